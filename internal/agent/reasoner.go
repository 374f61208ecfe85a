package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/teilomillet/gollm"
	"github.com/tmc/langchaingo/llms"
)

// Reasoner produces the next assistant message for a transcript.
type Reasoner interface {
	Complete(ctx context.Context, transcript []Message) (string, error)
}

// ReasoningError wraps a failure of the reasoning service itself
// (transport, auth, quota). It is the only error that ends a session.
type ReasoningError struct {
	Provider string
	Err      error
}

func (e *ReasoningError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return e.Err.Error()
}

func (e *ReasoningError) Unwrap() error {
	return e.Err
}

// LLMReasoner drives any langchaingo chat model.
type LLMReasoner struct {
	Model       llms.Model
	Provider    string
	Temperature float64
}

func NewLLMReasoner(model llms.Model, provider string, temperature float64) *LLMReasoner {
	return &LLMReasoner{Model: model, Provider: provider, Temperature: temperature}
}

func (r *LLMReasoner) Complete(ctx context.Context, transcript []Message) (string, error) {
	resp, err := r.Model.GenerateContent(ctx, toMessageContent(transcript), llms.WithTemperature(r.Temperature))
	if err != nil {
		return "", &ReasoningError{Provider: r.Provider, Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}

// GollmReasoner drives providers through gollm, which takes a single prompt
// plus a system prompt rather than a message list.
type GollmReasoner struct {
	Provider string
	llm      gollm.LLM
}

func NewGollmReasoner(provider, apiKey, model string, temperature float64) (*GollmReasoner, error) {
	if model == "" {
		return nil, fmt.Errorf("model is required for provider %s", provider)
	}

	opts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetTemperature(temperature),
		gollm.SetMaxTokens(2048),
		gollm.SetMaxRetries(0),
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if apiKey != "" {
		opts = append(opts, gollm.SetAPIKey(apiKey))
	}

	llm, err := gollm.NewLLM(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gollm LLM for provider %s: %w", provider, err)
	}
	return &GollmReasoner{Provider: provider, llm: llm}, nil
}

func (r *GollmReasoner) Complete(ctx context.Context, transcript []Message) (string, error) {
	system, text := flattenTranscript(transcript)

	var promptOpts []gollm.PromptOption
	if system != "" {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(system, gollm.CacheTypeEphemeral))
	}

	out, err := r.llm.Generate(ctx, gollm.NewPrompt(text, promptOpts...))
	if err != nil {
		return "", &ReasoningError{Provider: r.Provider, Err: err}
	}
	return out, nil
}

// flattenTranscript splits system messages from the rest and renders the
// remaining turns as role-labelled paragraphs.
func flattenTranscript(transcript []Message) (string, string) {
	var system []string
	var turns []string
	for _, m := range transcript {
		switch m.Role {
		case RoleSystem:
			system = append(system, strings.TrimSpace(m.Content))
		case RoleAssistant:
			turns = append(turns, "Assistant: "+m.Content)
		default:
			turns = append(turns, "User: "+m.Content)
		}
	}
	return strings.Join(system, "\n\n"), strings.Join(turns, "\n\n")
}
