package scoring

import (
	"context"
	"errors"
	"math"
	"testing"

	"medical-decision/backend/internal/circuit"
	"medical-decision/backend/internal/fuzzy"
)

type stubEstimator struct {
	est circuit.Estimate
	err error
}

func (s stubEstimator) Estimate(context.Context, fuzzy.Inputs) (circuit.Estimate, error) {
	return s.est, s.err
}

func (stubEstimator) Mode() string { return "stub" }

func TestDecideBoundaries(t *testing.T) {
	engine := NewEngine(nil)

	tests := []struct {
		name       string
		d1, d2     fuzzy.Opinion
		expected   string
		confidence float64
		hesitation float64
	}{
		{"full agreement on treat", fuzzy.Opinion{Mu: 1, Nu: 0}, fuzzy.Opinion{Mu: 1, Nu: 0}, DecisionTreat, 1, 0},
		{"total hesitation", fuzzy.Opinion{}, fuzzy.Opinion{}, DecisionRequestExams, 0, 1},
		{"full agreement on not treating", fuzzy.Opinion{Mu: 0, Nu: 1}, fuzzy.Opinion{Mu: 0, Nu: 1}, DecisionDoNotTreat, 1, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := engine.Decide(context.Background(), tc.d1, tc.d2)
			if err != nil {
				t.Fatalf("decide: %v", err)
			}
			if res.Decision() != tc.expected {
				t.Fatalf("expected %s got %s (scores %+v)", tc.expected, res.Decision(), res.Scores)
			}
			if res.Factors.QuantumConfidence != tc.confidence {
				t.Fatalf("expected confidence %v got %v", tc.confidence, res.Factors.QuantumConfidence)
			}
			if res.Factors.Hesitation != tc.hesitation {
				t.Fatalf("expected hesitation %v got %v", tc.hesitation, res.Factors.Hesitation)
			}
		})
	}
}

func TestDecideTotalHesitationScores(t *testing.T) {
	res, err := NewEngine(nil).Decide(context.Background(), fuzzy.Opinion{}, fuzzy.Opinion{})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if res.Scores.Treat != 0 || res.Scores.DoNotTreat != 0 || res.Scores.RequestExams != 1 {
		t.Fatalf("unexpected scores %+v", res.Scores)
	}
	if res.Label != RequestExams {
		t.Fatalf("expected %s got %s", RequestExams, res.Label)
	}
}

func TestDecideStubEstimatorFlowsThrough(t *testing.T) {
	engine := NewEngine(stubEstimator{est: circuit.Estimate{Mu: 1, Nu: 0, Pi: 0}})
	d := fuzzy.Opinion{Mu: 0.5, Nu: 0.5}
	res, err := engine.Decide(context.Background(), d, d)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	// Confidence is 1 and hesitation 0, so exams gets no weight and the
	// treat/do-not-treat tie resolves in enumeration order.
	if res.Scores.RequestExams != 0 || res.Scores.Treat != 0.5 || res.Scores.DoNotTreat != 0.5 {
		t.Fatalf("unexpected scores %+v", res.Scores)
	}
	if res.Label != DoNotTreat || res.Degenerate {
		t.Fatalf("unexpected result %+v", res)
	}
	if engine.Mode() != "stub" {
		t.Fatalf("unexpected mode %s", engine.Mode())
	}
}

func TestDecideScoresAlwaysNormalized(t *testing.T) {
	engine := NewEngine(nil)
	levels := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}
	for _, mu1 := range levels {
		for _, nu1 := range levels {
			for _, mu2 := range levels {
				for _, nu2 := range levels {
					d1 := fuzzy.Opinion{Mu: mu1, Nu: nu1}
					d2 := fuzzy.Opinion{Mu: mu2, Nu: nu2}
					res, err := engine.Decide(context.Background(), d1, d2)
					if err != nil {
						t.Fatalf("decide %v %v: %v", d1, d2, err)
					}
					s := res.Scores
					if s.Treat < 0 || s.DoNotTreat < 0 || s.RequestExams < 0 {
						t.Fatalf("%v %v: negative score %+v", d1, d2, s)
					}
					if math.Abs(s.Sum()-1) > 1e-9 {
						t.Fatalf("%v %v: scores sum to %v", d1, d2, s.Sum())
					}
				}
			}
		}
	}
}

func TestDecideSymmetricUnderDoctorSwap(t *testing.T) {
	engine := NewEngine(nil)
	pairs := [][2]fuzzy.Opinion{
		{{Mu: 0.8, Nu: 0.1}, {Mu: 0.75, Nu: 0.15}},
		{{Mu: 0.3, Nu: 0.6}, {Mu: 0.25, Nu: 0.65}},
		{{Mu: 0.9, Nu: 0.05}, {Mu: 0.1, Nu: 0.8}},
		{{Mu: 0.5, Nu: 0.3}, {Mu: 0.4, Nu: 0.5}},
	}
	for _, p := range pairs {
		a, err := engine.Decide(context.Background(), p[0], p[1])
		if err != nil {
			t.Fatalf("decide: %v", err)
		}
		b, err := engine.Decide(context.Background(), p[1], p[0])
		if err != nil {
			t.Fatalf("decide: %v", err)
		}
		if a.Label != b.Label {
			t.Fatalf("%v: decision changes on swap (%s vs %s)", p, a.Label, b.Label)
		}
		if math.Abs(a.Scores.Treat-b.Scores.Treat) > 1e-12 ||
			math.Abs(a.Scores.DoNotTreat-b.Scores.DoNotTreat) > 1e-12 ||
			math.Abs(a.Scores.RequestExams-b.Scores.RequestExams) > 1e-12 {
			t.Fatalf("%v: scores change on swap (%+v vs %+v)", p, a.Scores, b.Scores)
		}
	}
}

func TestDecidePropagatesEstimatorError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewEngine(stubEstimator{err: boom}).Decide(context.Background(), fuzzy.Opinion{}, fuzzy.Opinion{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped estimator error, got %v", err)
	}
}

func TestDecideRejectsNonFiniteInput(t *testing.T) {
	_, err := NewEngine(nil).Decide(context.Background(), fuzzy.Opinion{Mu: math.NaN()}, fuzzy.Opinion{})
	if !errors.Is(err, fuzzy.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDecideSampledAgreesWithExact(t *testing.T) {
	exact := NewEngine(nil)
	sampled := NewEngine(circuit.SampledEstimator{Sampler: circuit.NewSampler(11), Shots: 200000})
	d1 := fuzzy.Opinion{Mu: 0.9, Nu: 0.05}
	d2 := fuzzy.Opinion{Mu: 0.85, Nu: 0.1}

	a, err := exact.Decide(context.Background(), d1, d2)
	if err != nil {
		t.Fatalf("exact: %v", err)
	}
	b, err := sampled.Decide(context.Background(), d1, d2)
	if err != nil {
		t.Fatalf("sampled: %v", err)
	}
	if math.Abs(a.Estimate.Mu-b.Estimate.Mu) > 0.01 || math.Abs(a.Estimate.Nu-b.Estimate.Nu) > 0.01 {
		t.Fatalf("sampled estimate %+v far from exact %+v", b.Estimate, a.Estimate)
	}
	if b.Estimate.Shots != 200000 {
		t.Fatalf("expected 200000 shots got %d", b.Estimate.Shots)
	}
}
