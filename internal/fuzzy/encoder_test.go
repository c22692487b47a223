package fuzzy

import (
	"errors"
	"math"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		in       float64
		expected Bit
	}{
		{"negative clamps to zero", -0.4, 0},
		{"zero", 0, 0},
		{"interior", 0.35, 0.35},
		{"one", 1, 1},
		{"above one clamps", 1.7, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Encode(tc.in)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if got != tc.expected {
				t.Fatalf("expected %v got %v", tc.expected, got)
			}
		})
	}
}

func TestEncodeRejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := Encode(v); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %v, got %v", v, err)
		}
	}
}

func TestEncodePairOrder(t *testing.T) {
	in, err := EncodePair(Opinion{Mu: 0.1, Nu: 0.2}, Opinion{Mu: 0.3, Nu: 0.4})
	if err != nil {
		t.Fatalf("encode pair: %v", err)
	}
	want := [4]float64{0.1, 0.2, 0.3, 0.4}
	if in.Probabilities() != want {
		t.Fatalf("expected %v got %v", want, in.Probabilities())
	}
	swapped := in.Swapped().Probabilities()
	if swapped != [4]float64{0.3, 0.4, 0.1, 0.2} {
		t.Fatalf("unexpected swap %v", swapped)
	}
}

func TestOpinionHesitationAndValidate(t *testing.T) {
	if h := (Opinion{Mu: 0.6, Nu: 0.3}).Hesitation(); math.Abs(h-0.1) > 1e-12 {
		t.Fatalf("expected 0.1 got %v", h)
	}
	if h := (Opinion{Mu: 0.8, Nu: 0.7}).Hesitation(); h != 0 {
		t.Fatalf("expected clamp to 0 got %v", h)
	}
	if err := (Opinion{Mu: 0.8, Nu: 0.7}).Validate(); err != nil {
		t.Fatalf("mu+nu above one is accepted: %v", err)
	}
	if err := (Opinion{Mu: 1.2, Nu: 0}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := (Opinion{Mu: 0.2, Nu: math.NaN()}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestOpinionClamped(t *testing.T) {
	tests := []struct {
		name string
		in   Opinion
		want Opinion
	}{
		{"inside range untouched", Opinion{Mu: 0.4, Nu: 0.3}, Opinion{Mu: 0.4, Nu: 0.3}},
		{"above one", Opinion{Mu: 1.5, Nu: 0}, Opinion{Mu: 1, Nu: 0}},
		{"negative", Opinion{Mu: 0.2, Nu: -0.7}, Opinion{Mu: 0.2, Nu: 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.in.Clamped()
			if err != nil {
				t.Fatalf("clamp: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v got %v", tc.want, got)
			}
		})
	}
	if _, err := (Opinion{Mu: math.Inf(1), Nu: 0}).Clamped(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
