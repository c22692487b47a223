package fuzzy

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned when a membership or non-membership degree is
// not a finite value in [0,1].
var ErrInvalidInput = errors.New("invalid input")

// Opinion is an intuitionistic fuzzy judgement: degree of membership (Mu)
// and degree of non-membership (Nu). The pair need not satisfy Mu+Nu <= 1.
type Opinion struct {
	Mu float64 `json:"mu"`
	Nu float64 `json:"nu"`
}

// Hesitation returns π = 1 - μ - ν, clamped at zero.
func (o Opinion) Hesitation() float64 {
	return math.Max(0, 1-o.Mu-o.Nu)
}

// Validate rejects degrees that are non-finite or outside [0,1].
func (o Opinion) Validate() error {
	if err := checkDegree("mu", o.Mu); err != nil {
		return err
	}
	return checkDegree("nu", o.Nu)
}

// Clamped rejects non-finite degrees and clamps the rest into [0,1], the
// range the encoder works in.
func (o Opinion) Clamped() (Opinion, error) {
	if err := checkFinite("mu", o.Mu); err != nil {
		return Opinion{}, err
	}
	if err := checkFinite("nu", o.Nu); err != nil {
		return Opinion{}, err
	}
	return Opinion{Mu: clamp(o.Mu), Nu: clamp(o.Nu)}, nil
}

func checkDegree(field string, v float64) error {
	if err := checkFinite(field, v); err != nil {
		return err
	}
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: %s must be within [0,1], got %g", ErrInvalidInput, field, v)
	}
	return nil
}

func checkFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrInvalidInput, field)
	}
	return nil
}

func clamp(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
