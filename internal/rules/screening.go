// Package rules provides the CEL-based compliance screening engine.
//
// Screening rules are CEL expressions evaluated over the signal bundle
// the pattern detector produced. Their findings are advisory: a tripped
// rule adds a flag to the audit trail and the reviewer-facing report but
// never alters the deterministic risk score.
package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/yash-7575/luminasar/internal/domain"
)

// Severity levels for screening flags.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityReview  = "review"
)

// ScreeningRule is one configurable CEL rule. Expression must evaluate
// to a boolean over the bundle variables.
type ScreeningRule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Expression  string `json:"expression"`
	Severity    string `json:"severity"`
	Enabled     bool   `json:"enabled"`
}

// Flag is a tripped screening rule.
type Flag struct {
	RuleID   string `json:"ruleId"`
	Name     string `json:"name"`
	Severity string `json:"severity"`
}

type compiledRule struct {
	rule    ScreeningRule
	program cel.Program
}

// Engine compiles and evaluates screening rules.
type Engine struct {
	mu       sync.RWMutex
	env      *cel.Env
	compiled map[string]*compiledRule
}

// NewEngine creates a screening engine with the signal-bundle variables
// declared in its CEL environment.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("time_span_days", cel.IntType),
		cel.Variable("transactions_per_day", cel.DoubleType),
		cel.Variable("velocity_risk", cel.StringType),
		cel.Variable("total_amount", cel.DoubleType),
		cel.Variable("avg_amount", cel.DoubleType),
		cel.Variable("max_amount", cel.DoubleType),
		cel.Variable("num_transactions", cel.IntType),
		cel.Variable("near_threshold_count", cel.IntType),
		cel.Variable("structuring_likelihood", cel.DoubleType),
		cel.Variable("structuring_suspicious", cel.BoolType),
		cel.Variable("unique_sources", cel.IntType),
		cel.Variable("unique_destinations", cel.IntType),
		cel.Variable("fan_in_high", cel.BoolType),
		cel.Variable("fan_out_high", cel.BoolType),
		cel.Variable("hub_detected", cel.BoolType),
		cel.Variable("risk_score", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:      env,
		compiled: make(map[string]*compiledRule),
	}, nil
}

// LoadRule compiles and loads a rule into the engine.
func (e *Engine) LoadRule(rule ScreeningRule) error {
	compiled, err := e.compile(rule)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.compiled[rule.ID] = compiled
	e.mu.Unlock()
	return nil
}

// LoadRules compiles and loads all enabled rules.
func (e *Engine) LoadRules(rules []ScreeningRule) error {
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if err := e.LoadRule(rule); err != nil {
			return err
		}
	}
	return nil
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiled)
}

// Evaluate runs every loaded rule against the signal bundle and returns
// the tripped flags. A rule that fails to evaluate is skipped: screening
// is advisory and must never take the pipeline down.
func (e *Engine) Evaluate(patterns domain.PatternResult) []Flag {
	e.mu.RLock()
	rules := make([]*compiledRule, 0, len(e.compiled))
	for _, r := range e.compiled {
		rules = append(rules, r)
	}
	e.mu.RUnlock()

	if len(rules) == 0 {
		return nil
	}

	activation := map[string]any{
		"time_span_days":         int64(patterns.Velocity.TimeSpanDays),
		"transactions_per_day":   patterns.Velocity.TransactionsPerDay,
		"velocity_risk":          patterns.Velocity.Risk,
		"total_amount":           patterns.Volume.TotalAmount,
		"avg_amount":             patterns.Volume.AvgAmount,
		"max_amount":             patterns.Volume.MaxAmount,
		"num_transactions":       int64(patterns.Volume.NumTransactions),
		"near_threshold_count":   int64(patterns.Structuring.NearThresholdCount),
		"structuring_likelihood": patterns.Structuring.Likelihood,
		"structuring_suspicious": patterns.Structuring.Suspicious,
		"unique_sources":         int64(patterns.Network.UniqueSources),
		"unique_destinations":    int64(patterns.Network.UniqueDestinations),
		"fan_in_high":            patterns.Network.FanInHigh,
		"fan_out_high":           patterns.Network.FanOutHigh,
		"hub_detected":           patterns.Network.HubDetected,
		"risk_score":             patterns.RiskScore,
	}

	var flags []Flag
	for _, r := range rules {
		out, _, err := r.program.Eval(activation)
		if err != nil {
			continue
		}
		if b, ok := out.(types.Bool); ok && bool(b) {
			flags = append(flags, Flag{
				RuleID:   r.rule.ID,
				Name:     r.rule.Name,
				Severity: r.rule.Severity,
			})
		}
	}

	return flags
}

// Close clears the loaded rules.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiled = make(map[string]*compiledRule)
	return nil
}

func (e *Engine) compile(rule ScreeningRule) (*compiledRule, error) {
	ast, issues := e.env.Compile(rule.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", rule.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", rule.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", rule.ID, err)
	}

	return &compiledRule{rule: rule, program: program}, nil
}
