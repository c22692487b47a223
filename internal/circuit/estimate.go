package circuit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"medical-decision/backend/internal/fuzzy"
)

const (
	// DefaultShots is the trial count used when none is configured.
	DefaultShots = 2000

	ModeExact   = "exact"
	ModeSampled = "sampled"
)

// Estimate is the measured output of the network: μ⊙, ν⊙ and the derived
// π⊙. Shots is zero for exact propagation.
type Estimate struct {
	Mu       float64 `json:"mu"`
	Nu       float64 `json:"nu"`
	Pi       float64 `json:"pi"`
	Shots    int     `json:"shots"`
	MuStdErr float64 `json:"mu_std_err"`
	NuStdErr float64 `json:"nu_std_err"`
}

func newEstimate(mu, nu float64) Estimate {
	mu = clampUnit(mu)
	nu = clampUnit(nu)
	return Estimate{Mu: mu, Nu: nu, Pi: math.Max(0, 1-mu-nu)}
}

// Exact computes μ⊙ and ν⊙ by summing the joint probability of every input
// combination for which the corresponding output is 1.
func Exact(in fuzzy.Inputs) Estimate {
	p := in.Probabilities()
	var mu, nu float64
	for i := 0; i < 16; i++ {
		r := RealizationFromIndex(i)
		w := weight(p, r)
		if w == 0 {
			continue
		}
		out := Evaluate(r)
		if out.Agreement {
			mu += w
		}
		if out.Conflict {
			nu += w
		}
	}
	return newEstimate(mu, nu)
}

func weight(p [4]float64, r Realization) float64 {
	bits := [4]bool{r.A, r.B, r.C, r.D}
	w := 1.0
	for i, on := range bits {
		if on {
			w *= p[i]
		} else {
			w *= 1 - p[i]
		}
	}
	return w
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Estimator produces the network estimate for one set of encoded inputs.
type Estimator interface {
	Estimate(ctx context.Context, in fuzzy.Inputs) (Estimate, error)
	Mode() string
}

// ExactEstimator evaluates the network by probability propagation.
type ExactEstimator struct{}

// Estimate implements Estimator.
func (ExactEstimator) Estimate(_ context.Context, in fuzzy.Inputs) (Estimate, error) {
	return Exact(in), nil
}

// Mode implements Estimator.
func (ExactEstimator) Mode() string { return ModeExact }

// SampledEstimator evaluates the network by repeated shots.
type SampledEstimator struct {
	Sampler *Sampler
	Shots   int
}

// Estimate implements Estimator.
func (e SampledEstimator) Estimate(ctx context.Context, in fuzzy.Inputs) (Estimate, error) {
	sampler := e.Sampler
	if sampler == nil {
		sampler = NewSampler(0)
	}
	return sampler.Sample(ctx, in, e.Shots)
}

// Mode implements Estimator.
func (SampledEstimator) Mode() string { return ModeSampled }

// NewEstimator builds the estimator for the configured mode. A non-zero seed
// makes sampled runs reproducible.
func NewEstimator(mode string, shots int, seed uint64) (Estimator, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeExact:
		return ExactEstimator{}, nil
	case ModeSampled:
		if shots <= 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidShots, shots)
		}
		return SampledEstimator{Sampler: NewSampler(seed), Shots: shots}, nil
	default:
		return nil, errors.New("unknown estimator mode " + mode)
	}
}
