package scoring

import (
	"context"
	"fmt"

	"medical-decision/backend/internal/circuit"
	"medical-decision/backend/internal/fuzzy"
)

// Engine turns two opinions into a decision. It holds no per-request state
// and is safe for concurrent use.
type Engine struct {
	estimator circuit.Estimator
}

// NewEngine builds an engine around the given estimator; nil means exact.
func NewEngine(estimator circuit.Estimator) *Engine {
	if estimator == nil {
		estimator = circuit.ExactEstimator{}
	}
	return &Engine{estimator: estimator}
}

// Mode reports the estimator mode.
func (e *Engine) Mode() string {
	return e.estimator.Mode()
}

// Decide encodes the opinions, measures the network, fuses the result and
// maps it onto a decision label.
func (e *Engine) Decide(ctx context.Context, doctor1, doctor2 fuzzy.Opinion) (Result, error) {
	inputs, err := fuzzy.EncodePair(doctor1, doctor2)
	if err != nil {
		return Result{}, err
	}
	est, err := e.estimator.Estimate(ctx, inputs)
	if err != nil {
		return Result{}, fmt.Errorf("estimate network: %w", err)
	}

	factors, raw := Fuse(doctor1, doctor2, est)
	scores, degenerate := Normalize(raw)
	label := Choose(scores)

	return Result{
		Label:          label,
		Scores:         scores,
		Estimate:       est,
		Factors:        factors,
		Degenerate:     degenerate,
		Interpretation: Interpret(est, factors.Hesitation, label),
	}, nil
}
