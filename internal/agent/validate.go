package agent

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/treadly55/weekend-away-event-finder/internal/tools"
)

// ValidationKind enumerates the outcomes of checking a directive.
type ValidationKind int

const (
	Valid ValidationKind = iota
	InvalidTool
	ArgumentParseError
	MissingArguments
)

func (k ValidationKind) String() string {
	switch k {
	case Valid:
		return "valid"
	case InvalidTool:
		return "invalid_tool"
	case ArgumentParseError:
		return "argument_parse_error"
	case MissingArguments:
		return "missing_arguments"
	default:
		return "unknown"
	}
}

// Validation is the result of Validate. On Valid, Tool and Args are set;
// otherwise Reason is the observation text fed back to the model.
type Validation struct {
	Kind    ValidationKind
	Tool    tools.Tool
	Args    tools.Args
	Missing []string
	Reason  string
}

// Validate checks a parsed directive against the registry: the tool name
// must be registered, the payload must be a JSON object and every required
// argument must be present and non-empty.
func Validate(registry *tools.Registry, action Action) Validation {
	tool := registry.Get(action.Tool)
	if tool == nil {
		return Validation{
			Kind: InvalidTool,
			Reason: fmt.Sprintf("Error - Invalid tool '%s'. Only %s are available.",
				action.Tool, quotedList(registry.Names(), "and")),
		}
	}

	args, err := ParseArguments(action.RawArguments)
	if err != nil {
		return Validation{
			Kind: ArgumentParseError,
			Tool: tool,
			Reason: fmt.Sprintf("Error parsing the arguments JSON provided: '%s'. Please ensure arguments are valid JSON.",
				action.RawArguments),
		}
	}

	var missing []string
	for _, name := range tool.RequiredArgs() {
		if strings.TrimSpace(args[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Validation{
			Kind:    MissingArguments,
			Tool:    tool,
			Missing: missing,
			Reason: fmt.Sprintf("Error - Missing %s in arguments for %s.",
				quotedList(missing, "and"), tool.Name()),
		}
	}

	return Validation{Kind: Valid, Tool: tool, Args: args}
}

// ParseArguments decodes a JSON object into a flat string record. String
// arrays are joined with commas. null, false and 0 flatten to "" so they
// fail the required-argument check.
func ParseArguments(raw string) (tools.Args, error) {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, err
	}
	if decoded == nil {
		return nil, fmt.Errorf("arguments must be a JSON object")
	}

	args := make(tools.Args, len(decoded))
	for k, v := range decoded {
		args[k] = flatten(v)
	}
	return args, nil
}

func flatten(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		// false counts as absent, like null.
		if !val {
			return ""
		}
		return "true"
	case float64:
		if val == 0 {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := flatten(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ",")
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

func quotedList(items []string, conj string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	switch len(quoted) {
	case 0:
		return ""
	case 1:
		return quoted[0]
	default:
		return strings.Join(quoted[:len(quoted)-1], ", ") + " " + conj + " " + quoted[len(quoted)-1]
	}
}
