package governance

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request describes a validated tool call about to be dispatched.
type Request struct {
	SessionID string
	Tool      string
	Arguments map[string]string
}

// Canonical renders the arguments as sorted key=value lines so patterns
// can anchor on a specific field, e.g. `(?m)^city=Perth`.
func (r Request) Canonical() string {
	keys := make([]string, 0, len(r.Arguments))
	for k := range r.Arguments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, r.Arguments[k])
	}
	return b.String()
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

// PolicyEngine evaluates tool calls against a set of rules.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// DefaultPolicyEngine denies by tool name or by argument pattern and
// allows everything else.
type DefaultPolicyEngine struct {
	DeniedTools map[string]bool
	DeniedRegex []*regexp.Regexp
}

func NewDefaultPolicyEngine() *DefaultPolicyEngine {
	return &DefaultPolicyEngine{
		DeniedTools: make(map[string]bool),
		DeniedRegex: make([]*regexp.Regexp, 0),
	}
}

// NewPolicyEngine builds an engine from configured rules.
func NewPolicyEngine(deniedTools, deniedArguments []string) (*DefaultPolicyEngine, error) {
	e := NewDefaultPolicyEngine()
	for _, name := range deniedTools {
		e.DenyTool(name)
	}
	for _, pattern := range deniedArguments {
		if err := e.DenyArguments(pattern); err != nil {
			return nil, fmt.Errorf("invalid denied argument pattern %q: %w", pattern, err)
		}
	}
	return e, nil
}

func (e *DefaultPolicyEngine) DenyTool(name string) {
	e.DeniedTools[name] = true
}

func (e *DefaultPolicyEngine) DenyArguments(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	e.DeniedRegex = append(e.DeniedRegex, re)
	return nil
}

func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if e.DeniedTools[req.Tool] {
		return Result{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("Tool '%s' is restricted by system policy", req.Tool),
		}, nil
	}

	canonical := req.Canonical()
	for _, re := range e.DeniedRegex {
		if re.MatchString(canonical) {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("Arguments match restricted pattern: %s", re.String()),
			}, nil
		}
	}

	return Result{
		Effect: EffectAllow,
		Reason: "Approved by default policy",
	}, nil
}
