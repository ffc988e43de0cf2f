package validation

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// Rule is a named CEL expression that must evaluate to true.
// Expressions see three variables: action, stationId and station (the
// submitted record as a map, empty for deletes).
type Rule struct {
	Name       string   `yaml:"name"`
	Expression string   `yaml:"expression"`
	Message    string   `yaml:"message"`
	Actions    []string `yaml:"actions,omitempty"` // empty applies to every action
}

// BuiltinRules always run before any configured rules
var BuiltinRules = []Rule{
	{
		Name:       "station-id-format",
		Expression: `stationId.matches('^[a-z0-9][a-z0-9._-]*$')`,
		Message:    "stationId must start with a lowercase letter or digit and contain only lowercase letters, digits, dots, underscores and hyphens",
	},
	{
		Name:       "station-id-matches-record",
		Expression: `action == 'delete' || !has(station.id) || station.id == '' || station.id == stationId`,
		Message:    "stationData.id does not match stationId",
	},
}

// Violation is one failed rule
type Violation struct {
	Rule    string
	Message string
}

// ViolationError lists every rule a request failed
type ViolationError struct {
	Violations []Violation
}

func (e *ViolationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return strings.Join(msgs, "; ")
}

type compiledRule struct {
	Rule
	program cel.Program
}

// StationPolicy evaluates compiled rules against station mutations
type StationPolicy struct {
	rules []compiledRule
}

// NewStationPolicy compiles the builtin rules followed by extra.
// A rule that fails to compile is a configuration error.
func NewStationPolicy(extra ...Rule) (*StationPolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("action", cel.StringType),
		cel.Variable("stationId", cel.StringType),
		cel.Variable("station", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	all := make([]Rule, 0, len(BuiltinRules)+len(extra))
	all = append(all, BuiltinRules...)
	all = append(all, extra...)

	p := &StationPolicy{rules: make([]compiledRule, 0, len(all))}
	for _, r := range all {
		if r.Expression == "" {
			return nil, fmt.Errorf("rule %q has no expression", r.Name)
		}

		ast, issues := env.Compile(r.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("rule %q: CEL compilation error: %w", r.Name, issues.Err())
		}
		if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
			return nil, fmt.Errorf("rule %q must return bool, got %s", r.Name, ast.OutputType())
		}

		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("rule %q: failed to create CEL program: %w", r.Name, err)
		}

		if r.Message == "" {
			r.Message = fmt.Sprintf("station rejected by rule %s", r.Name)
		}
		p.rules = append(p.rules, compiledRule{Rule: r, program: prg})
	}

	return p, nil
}

// Check runs every applicable rule and returns a *ViolationError if any fail.
// station may be nil.
func (p *StationPolicy) Check(action, stationID string, station map[string]interface{}) error {
	if station == nil {
		station = map[string]interface{}{}
	}

	vars := map[string]interface{}{
		"action":    action,
		"stationId": stationID,
		"station":   station,
	}

	var violations []Violation
	for _, r := range p.rules {
		if !r.appliesTo(action) {
			continue
		}

		out, _, err := r.program.Eval(vars)
		if err != nil {
			violations = append(violations, Violation{
				Rule:    r.Name,
				Message: fmt.Sprintf("%s (%v)", r.Message, err),
			})
			continue
		}

		ok, isBool := out.Value().(bool)
		if !isBool || !ok {
			violations = append(violations, Violation{Rule: r.Name, Message: r.Message})
		}
	}

	if len(violations) > 0 {
		return &ViolationError{Violations: violations}
	}
	return nil
}

// Len returns the number of compiled rules
func (p *StationPolicy) Len() int {
	return len(p.rules)
}

func (r compiledRule) appliesTo(action string) bool {
	if len(r.Actions) == 0 {
		return true
	}
	for _, a := range r.Actions {
		if a == action {
			return true
		}
	}
	return false
}
