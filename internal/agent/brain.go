package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/treadly55/weekend-away-event-finder/internal/governance"
	"github.com/treadly55/weekend-away-event-finder/internal/observability"
	"github.com/treadly55/weekend-away-event-finder/internal/tools"
)

const (
	DefaultMaxTurns = 5

	EmptyResponseText = "I seem to be at a loss for words! Could you try again?"
	ExhaustedText     = "Sorry, I couldn't finalize the suggestions within the allowed steps."
	CancelledText     = "The search was cancelled before the suggestions were ready."
)

// Outcome is how a session ended.
type Outcome int

const (
	OutcomeFinal Outcome = iota
	OutcomeEmpty
	OutcomeExhausted
	OutcomeFailed
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFinal:
		return "final"
	case OutcomeEmpty:
		return "empty"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ProgressFunc receives human readable status lines. It never affects
// control flow.
type ProgressFunc func(string)

// Request seeds one session.
type Request struct {
	City        string
	EventKey    string
	WeatherDate string
	Progress    ProgressFunc
}

// Result is returned by Run. Text is always user-presentable; Err is set
// only for OutcomeFailed and OutcomeCancelled.
type Result struct {
	SessionID  string
	Outcome    Outcome
	Text       string
	Turns      int
	Transcript []Message
	Err        error
}

// Brain drives the reasoning service through the fixed getEvents then
// getWeather sequence. It holds no per-session state, so one Brain can
// serve many concurrent sessions.
type Brain struct {
	Reasoner Reasoner
	Registry *tools.Registry
	Prompts  *PromptManager
	Policy   governance.PolicyEngine
	Logger   *observability.Logger
	MaxTurns int
}

func NewBrain(reasoner Reasoner, registry *tools.Registry, prompts *PromptManager, policy governance.PolicyEngine, logger *observability.Logger) *Brain {
	if policy == nil {
		policy = governance.NewDefaultPolicyEngine()
	}
	if logger == nil {
		logger = observability.Discard()
	}
	return &Brain{
		Reasoner: reasoner,
		Registry: registry,
		Prompts:  prompts,
		Policy:   policy,
		Logger:   logger,
		MaxTurns: DefaultMaxTurns,
	}
}

// RunAgent runs one session and always returns a presentable string:
// the recommendation, a canned fallback, or a description of the failure.
func (b *Brain) RunAgent(ctx context.Context, city, eventKey, weatherDate string, progress ProgressFunc) string {
	return b.Run(ctx, Request{
		City:        city,
		EventKey:    eventKey,
		WeatherDate: weatherDate,
		Progress:    progress,
	}).Text
}

// Run executes turns until the model answers without a directive, returns
// nothing, fails, or the turn cap is hit. Cancellation is only checked
// between turns.
func (b *Brain) Run(ctx context.Context, req Request) (res Result) {
	sessionID := uuid.NewString()
	progress := req.Progress
	if progress == nil {
		progress = func(string) {}
	}

	var transcript *Transcript
	defer func() {
		if r := recover(); r != nil {
			progress("An error occurred while processing your request.")
			err := fmt.Errorf("agent panic: %v", r)
			res = Result{SessionID: sessionID, Outcome: OutcomeFailed, Turns: res.Turns, Err: err,
				Text: fmt.Sprintf("An unexpected error occurred: %v", err)}
		}
		if transcript != nil {
			res.Transcript = transcript.Messages()
		}
		b.log().LogSession(sessionID, res.Outcome.String(), res.Turns)
	}()

	progress(fmt.Sprintf("Initializing agent for %s with event key: '%s' and weather date: '%s'",
		req.City, req.EventKey, req.WeatherDate))

	systemPrompt, err := b.Prompts.SystemPromptFor(b.Registry)
	if err != nil {
		b.log().Warnf(sessionID, "failed to load system prompt, using built-in: %v", err)
		systemPrompt = BuiltinPrompt(b.Registry)
	}
	transcript = NewTranscript(systemPrompt, BuildUserQuery(req.City, req.EventKey, req.WeatherDate))

	maxTurns := b.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	for turn := 1; turn <= maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			progress("Search cancelled.")
			return Result{SessionID: sessionID, Outcome: OutcomeCancelled, Text: CancelledText, Turns: turn - 1, Err: err}
		}

		progress(fmt.Sprintf("Iteration #%d: Thinking...", turn))
		text, err := b.Reasoner.Complete(ctx, transcript.Messages())
		b.log().LogLLM(sessionID, turn, transcript.Messages(), text)
		if err != nil {
			if ctx.Err() != nil {
				progress("Search cancelled.")
				return Result{SessionID: sessionID, Outcome: OutcomeCancelled, Text: CancelledText, Turns: turn, Err: ctx.Err()}
			}
			progress("An error occurred while processing your request.")
			return Result{SessionID: sessionID, Outcome: OutcomeFailed, Text: failureText(err), Turns: turn, Err: err}
		}

		if strings.TrimSpace(text) == "" {
			progress("Agent provided an empty response. Ending interaction.")
			b.log().Warnf(sessionID, "agent provided empty response text on turn %d", turn)
			transcript.Append(Message{Role: RoleAssistant, Content: ""})
			return Result{SessionID: sessionID, Outcome: OutcomeEmpty, Text: EmptyResponseText, Turns: turn}
		}

		transcript.Append(Message{Role: RoleAssistant, Content: text})
		b.log().LogReasoning(sessionID, turn, text)

		action := ParseAction(text)
		if action.Kind == ActionNone {
			progress("Agent finished. Processing final answer.")
			return Result{SessionID: sessionID, Outcome: OutcomeFinal, Text: action.Final, Turns: turn}
		}

		obs := b.step(ctx, sessionID, turn, action, progress)
		transcript.Append(Message{Role: RoleAssistant, Content: "Observation: " + obs})

		if !action.HasPause {
			b.log().Warnf(sessionID, "response had an Action but no %s marker", pauseMarker)
		}
	}

	progress("Agent reached maximum iterations.")
	return Result{SessionID: sessionID, Outcome: OutcomeExhausted, Text: ExhaustedText, Turns: maxTurns}
}

// step validates and dispatches one directive and returns the observation
// body. Every failure is turned into text for the model to correct.
func (b *Brain) step(ctx context.Context, sessionID string, turn int, action Action, progress ProgressFunc) string {
	v := Validate(b.Registry, action)
	switch v.Kind {
	case InvalidTool:
		progress(fmt.Sprintf("Error: Agent tried to use an invalid tool '%s'.", action.Tool))
		b.log().LogTurnError(sessionID, turn, v.Kind.String(), action.Tool)
		return v.Reason
	case ArgumentParseError:
		progress(fmt.Sprintf("Error understanding action arguments for %s.", action.Tool))
		b.log().LogTurnError(sessionID, turn, v.Kind.String(), action.RawArguments)
		return v.Reason
	case MissingArguments:
		progress(fmt.Sprintf("Error: Missing %s argument for %s tool.", strings.Join(v.Missing, " or "), action.Tool))
		b.log().LogTurnError(sessionID, turn, v.Kind.String(), strings.Join(v.Missing, ","))
		return v.Reason
	}

	name := v.Tool.Name()
	decision, err := b.policy().Evaluate(ctx, governance.Request{SessionID: sessionID, Tool: name, Arguments: v.Args})
	if err != nil {
		progress(fmt.Sprintf("Error executing tool %s.", name))
		return fmt.Sprintf("Error running %s: %v", name, err)
	}
	b.log().LogPolicy(sessionID, turn, name, string(decision.Effect), decision.Reason)
	if decision.Effect == governance.EffectDeny {
		progress(fmt.Sprintf("Error: Tool %s was blocked by policy.", name))
		return fmt.Sprintf("Error - %s.", decision.Reason)
	}

	argsJSON, _ := json.Marshal(v.Args)
	progress(fmt.Sprintf("Calling tool: %s with args: %s", name, argsJSON))
	b.log().LogToolCall(sessionID, turn, name, string(argsJSON))

	out, err := dispatch(ctx, v.Tool, v.Args)
	if err != nil {
		progress(fmt.Sprintf("Error executing tool %s.", name))
		b.log().LogTurnError(sessionID, turn, "tool_dispatch_error", err.Error())
		return fmt.Sprintf("Error running %s: %v", name, err)
	}

	progress(fmt.Sprintf("Received observation from %s.", name))
	b.log().LogToolResult(sessionID, turn, name, out)
	return out
}

func (b *Brain) log() *observability.Logger {
	if b.Logger == nil {
		return observability.Discard()
	}
	return b.Logger
}

func (b *Brain) policy() governance.PolicyEngine {
	if b.Policy == nil {
		return governance.NewDefaultPolicyEngine()
	}
	return b.Policy
}

func dispatch(ctx context.Context, tool tools.Tool, args tools.Args) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return tool.Execute(ctx, args)
}

func failureText(err error) string {
	var re *ReasoningError
	if errors.As(err, &re) {
		return fmt.Sprintf("Error communicating with AI: %v", re.Err)
	}
	return fmt.Sprintf("An unexpected error occurred: %v", err)
}
