package circuit

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"

	"medical-decision/backend/internal/fuzzy"
)

// ErrInvalidShots is returned when a sampler is asked for fewer than one shot.
var ErrInvalidShots = errors.New("shot count must be at least 1")

const (
	minShotsPerWorker = 512
	ctxCheckInterval  = 1024
)

// Tally counts how many shots produced each output bit.
type Tally struct {
	Shots         int
	AgreementHits int
	ConflictHits  int
}

// Add merges another tally into t.
func (t *Tally) Add(other Tally) {
	t.Shots += other.Shots
	t.AgreementHits += other.AgreementHits
	t.ConflictHits += other.ConflictHits
}

// Estimate converts the tally into frequencies with binomial standard errors.
func (t Tally) Estimate() Estimate {
	if t.Shots <= 0 {
		return Estimate{}
	}
	n := float64(t.Shots)
	est := newEstimate(float64(t.AgreementHits)/n, float64(t.ConflictHits)/n)
	est.Shots = t.Shots
	est.MuStdErr = math.Sqrt(est.Mu * (1 - est.Mu) / n)
	est.NuStdErr = math.Sqrt(est.Nu * (1 - est.Nu) / n)
	return est
}

// Sampler realizes the encoded bits repeatedly and propagates each draw
// through the network. Shots are split across a bounded set of workers, each
// with its own generator, so a fixed seed gives reproducible tallies.
type Sampler struct {
	seed    uint64
	workers int
}

// NewSampler returns a sampler. A zero seed draws a fresh seed per call.
func NewSampler(seed uint64) *Sampler {
	return &Sampler{seed: seed, workers: determineWorkerCount()}
}

// WithWorkers overrides the worker bound; values below one are ignored.
func (s *Sampler) WithWorkers(n int) *Sampler {
	if n >= 1 {
		s.workers = n
	}
	return s
}

// Sample runs shots independent trials and returns the measured frequencies.
func (s *Sampler) Sample(ctx context.Context, in fuzzy.Inputs, shots int) (Estimate, error) {
	tally, err := s.Tally(ctx, in, shots)
	if err != nil {
		return Estimate{}, err
	}
	return tally.Estimate(), nil
}

// Tally runs the trials and returns the raw hit counts.
func (s *Sampler) Tally(ctx context.Context, in fuzzy.Inputs, shots int) (Tally, error) {
	if shots <= 0 {
		return Tally{}, fmt.Errorf("%w: got %d", ErrInvalidShots, shots)
	}
	seed := s.seed
	if seed == 0 {
		var err error
		if seed, err = newSeed(); err != nil {
			return Tally{}, err
		}
	}

	p := in.Probabilities()
	workers := s.workerCount(shots)
	parts := make([]Tally, workers)
	per, rem := shots/workers, shots%workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		n := per
		if w < rem {
			n++
		}
		wg.Add(1)
		go func(w, n int) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(seed, uint64(w)))
			parts[w] = runShots(ctx, rng, p, n)
		}(w, n)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Tally{}, err
	}
	var total Tally
	for _, part := range parts {
		total.Add(part)
	}
	return total, nil
}

func runShots(ctx context.Context, rng *rand.Rand, p [4]float64, n int) Tally {
	t := Tally{}
	for i := 0; i < n; i++ {
		if i%ctxCheckInterval == 0 && ctx.Err() != nil {
			return t
		}
		r := Realization{
			A: rng.Float64() < p[0],
			B: rng.Float64() < p[1],
			C: rng.Float64() < p[2],
			D: rng.Float64() < p[3],
		}
		out := Evaluate(r)
		t.Shots++
		if out.Agreement {
			t.AgreementHits++
		}
		if out.Conflict {
			t.ConflictHits++
		}
	}
	return t
}

func (s *Sampler) workerCount(shots int) int {
	workers := s.workers
	if workers < 1 {
		workers = 1
	}
	if byShots := (shots + minShotsPerWorker - 1) / minShotsPerWorker; byShots < workers {
		workers = byShots
	}
	return workers
}

func determineWorkerCount() int {
	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}
	if workers > 12 {
		workers = 12
	}
	return workers
}

func newSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
