package fuzzy

import (
	"fmt"
	"math"
)

// Bit is the probability that an encoded input bit realizes as 1.
type Bit float64

// Encode maps a fuzzy degree onto a Bernoulli bit. Values at or below zero
// never fire, values at or above one always fire.
func Encode(x float64) (Bit, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("%w: cannot encode %v", ErrInvalidInput, x)
	}
	switch {
	case x <= 0:
		return 0, nil
	case x >= 1:
		return 1, nil
	}
	return Bit(x), nil
}

// Inputs are the four encoded bits of a two-doctor request:
// A=μ1, B=ν1, C=μ2, D=ν2.
type Inputs struct {
	A Bit
	B Bit
	C Bit
	D Bit
}

// EncodePair encodes both opinions in network order.
func EncodePair(doctor1, doctor2 Opinion) (Inputs, error) {
	var (
		in  Inputs
		err error
	)
	if in.A, err = Encode(doctor1.Mu); err != nil {
		return Inputs{}, fmt.Errorf("doctor1 mu: %w", err)
	}
	if in.B, err = Encode(doctor1.Nu); err != nil {
		return Inputs{}, fmt.Errorf("doctor1 nu: %w", err)
	}
	if in.C, err = Encode(doctor2.Mu); err != nil {
		return Inputs{}, fmt.Errorf("doctor2 mu: %w", err)
	}
	if in.D, err = Encode(doctor2.Nu); err != nil {
		return Inputs{}, fmt.Errorf("doctor2 nu: %w", err)
	}
	return in, nil
}

// Probabilities returns the bits as plain floats in A, B, C, D order.
func (in Inputs) Probabilities() [4]float64 {
	return [4]float64{float64(in.A), float64(in.B), float64(in.C), float64(in.D)}
}

// Swapped exchanges the two doctors.
func (in Inputs) Swapped() Inputs {
	return Inputs{A: in.C, B: in.D, C: in.A, D: in.B}
}
