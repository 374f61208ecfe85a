package agent

import (
	"regexp"
	"strings"
)

// ActionKind distinguishes a final answer from a tool directive.
type ActionKind int

const (
	// ActionNone means no directive was found; the text is the answer.
	ActionNone ActionKind = iota
	// ActionFound carries a tool name and an unvalidated payload.
	ActionFound
)

const pauseMarker = "PAUSE"

// actionRegex matches `Action: <name>: {...}`. The payload is non-greedy and
// may span lines; only the first directive in a message is honoured.
var actionRegex = regexp.MustCompile(`(?s)Action:\s*(\w+):\s*(\{.*?\})`)

// Action is the parser's view of one assistant message.
type Action struct {
	Kind         ActionKind
	Tool         string
	RawArguments string
	// HasPause is diagnostic only; a missing marker never blocks dispatch.
	HasPause bool
	// Final holds the trimmed message when Kind is ActionNone.
	Final string
}

// ParseAction extracts the first tool directive from text.
func ParseAction(text string) Action {
	m := actionRegex.FindStringSubmatch(text)
	if m == nil {
		return Action{Kind: ActionNone, Final: strings.TrimSpace(text)}
	}
	return Action{
		Kind:         ActionFound,
		Tool:         strings.TrimSpace(m[1]),
		RawArguments: strings.TrimSpace(m[2]),
		HasPause:     strings.Contains(text, pauseMarker),
	}
}
