package agent

import "github.com/tmc/langchaingo/llms"

// Role tags a transcript message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one immutable transcript entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Transcript is the append-only conversation replayed to the reasoning
// service on every turn. It always begins with one system and one user
// message.
type Transcript struct {
	messages []Message
}

func NewTranscript(systemPrompt, userQuery string) *Transcript {
	return &Transcript{
		messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: userQuery},
		},
	}
}

func (t *Transcript) Append(m Message) {
	t.messages = append(t.messages, m)
}

// Messages returns a copy so callers cannot rewrite history.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int {
	return len(t.messages)
}

func (t *Transcript) Last() Message {
	return t.messages[len(t.messages)-1]
}

// toMessageContent converts messages to langchaingo's chat format.
func toMessageContent(msgs []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		var role llms.ChatMessageType
		switch m.Role {
		case RoleSystem:
			role = llms.ChatMessageTypeSystem
		case RoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(m.Content)},
		})
	}
	return out
}
