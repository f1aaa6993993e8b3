// Package engine evaluates the rule set against telemetry readings with per-rule fault isolation.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	"github.com/afikmenashe/fleet-platform/services/processing/internal/rules"
)

// Result records what happened to each rule for one reading.
type Result struct {
	Evaluated []string // every rule whose predicate ran to completion
	Triggered []string // predicate returned true
	Executed  []string // triggered and actions completed
	Failed    []string // predicate or actions returned an error or panicked
}

// Engine owns an immutable, priority-ordered rule list.
type Engine struct {
	rules  []rules.Rule
	env    rules.Env
	logger *slog.Logger
}

// New builds an engine. Rules are ordered by ascending priority; equal priorities keep
// the order they were passed in.
func New(env rules.Env, logger *slog.Logger, rs ...rules.Rule) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if env.Logger == nil {
		env.Logger = logger
	}

	ordered := make([]rules.Rule, len(rs))
	copy(ordered, rs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	return &Engine{rules: ordered, env: env, logger: logger}
}

// Rules returns the evaluation order.
func (e *Engine) Rules() []rules.Rule {
	out := make([]rules.Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Process evaluates every rule against t. It never returns early because a rule
// matched or failed, and it never panics because of a rule.
func (e *Engine) Process(ctx context.Context, t events.VehicleTelemetry) Result {
	var res Result

	e.logger.Debug("Evaluating rules for vehicle",
		"rule_count", len(e.rules),
		"vehicle_id", t.VehicleID,
	)

	for _, rule := range e.rules {
		var triggered bool
		err := guard(func() error {
			var err error
			triggered, err = rule.Evaluate(t)
			return err
		})
		if err != nil {
			e.logger.Error("Rule evaluation failed",
				"rule_id", rule.ID(),
				"rule_name", rule.Name(),
				"vehicle_id", t.VehicleID,
				"error", err,
			)
			res.Failed = append(res.Failed, rule.Name())
			continue
		}
		res.Evaluated = append(res.Evaluated, rule.Name())

		if !triggered {
			e.logger.Debug("Rule not triggered", "rule_name", rule.Name(), "vehicle_id", t.VehicleID)
			continue
		}

		e.logger.Info("Rule triggered",
			"rule_id", rule.ID(),
			"rule_name", rule.Name(),
			"vehicle_id", t.VehicleID,
		)
		res.Triggered = append(res.Triggered, rule.Name())

		if err := guard(func() error { return rule.ExecuteActions(ctx, t, e.env) }); err != nil {
			e.logger.Error("Rule actions failed",
				"rule_id", rule.ID(),
				"rule_name", rule.Name(),
				"vehicle_id", t.VehicleID,
				"error", err,
			)
			res.Failed = append(res.Failed, rule.Name())
			continue
		}
		res.Executed = append(res.Executed, rule.Name())
	}

	if len(res.Executed) > 0 {
		e.logger.Info("Rules executed for vehicle",
			"vehicle_id", t.VehicleID,
			"rules", strings.Join(res.Executed, ", "),
		)
	} else {
		e.logger.Debug("No rules executed for vehicle", "vehicle_id", t.VehicleID)
	}

	return res
}

// guard runs fn, converting a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule panicked: %v\n%s", r, debug.Stack())
		}
	}()
	return fn()
}
