package plan

import (
	"context"
	"log/slog"

	"github.com/relaywire/agentcore/pkg/content"
)

// EvaluatorSource supplies the registered evaluator table in registration
// order, the shape plugin.Tables.Evaluators.Ordered() already provides.
type EvaluatorSource interface {
	Ordered() []*content.Evaluator
}

// RunEvaluators runs the post-execution evaluator phase: evaluators whose Validate passes
// (or that set AlwaysRun) run serially in registration order; a failing
// evaluator is logged and does not abort the cycle or the others.
func RunEvaluators(ctx context.Context, rt content.Runtime, msg *content.Message, state *content.State, evaluators EvaluatorSource, logger *slog.Logger) []content.ActionResult {
	if logger == nil {
		logger = slog.Default()
	}

	var out []content.ActionResult
	for _, ev := range evaluators.Ordered() {
		applies := ev.AlwaysRun
		if !applies && ev.Validate != nil {
			ok, err := ev.Validate(ctx, rt, msg, state)
			if err != nil {
				logger.Warn("evaluator validate failed", "evaluator", ev.Name, "error", err)
				continue
			}
			applies = ok
		}
		if !applies {
			continue
		}

		result, err := ev.Handler(ctx, rt, msg, state)
		if err != nil {
			logger.Warn("evaluator failed", "evaluator", ev.Name, "error", err)
			continue
		}
		if result != nil {
			out = append(out, *result)
		}
	}
	return out
}
