package scoring

import (
	"strings"
	"testing"

	"medical-decision/backend/internal/circuit"
)

func TestChoose(t *testing.T) {
	tests := []struct {
		name     string
		scores   Scores
		expected Label
	}{
		{"treat wins", Scores{DoNotTreat: 0.1, RequestExams: 0.2, Treat: 0.7}, Treat},
		{"exams wins", Scores{DoNotTreat: 0.2, RequestExams: 0.5, Treat: 0.3}, RequestExams},
		{"do not treat wins", Scores{DoNotTreat: 0.6, RequestExams: 0.3, Treat: 0.1}, DoNotTreat},
		{"tie favours do not treat", Scores{DoNotTreat: 0.4, RequestExams: 0.2, Treat: 0.4}, DoNotTreat},
		{"tie favours exams over treat", Scores{DoNotTreat: 0.2, RequestExams: 0.4, Treat: 0.4}, RequestExams},
		{"all equal", Scores{DoNotTreat: 1.0 / 3, RequestExams: 1.0 / 3, Treat: 1.0 / 3}, DoNotTreat},
		{"fallback", FallbackScores, RequestExams},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Choose(tc.scores); got != tc.expected {
				t.Fatalf("expected %s got %s", tc.expected, got)
			}
		})
	}
}

func TestExternalLabels(t *testing.T) {
	tests := []struct {
		label    Label
		expected string
	}{
		{Treat, "TREAT"},
		{DoNotTreat, "DO NOT TREAT"},
		{RequestExams, "REQUEST EXAMS"},
	}
	for _, tc := range tests {
		if got := External(tc.label); got != tc.expected {
			t.Fatalf("%s: expected %q got %q", tc.label, tc.expected, got)
		}
		back, ok := ParseExternal(tc.expected)
		if !ok || back != tc.label {
			t.Fatalf("%q: expected %s got %s", tc.expected, tc.label, back)
		}
	}
	if _, ok := ParseExternal("MAYBE"); ok {
		t.Fatal("unexpected label accepted")
	}
}

func TestInterpret(t *testing.T) {
	got := Interpret(circuit.Estimate{Mu: 0.814, Nu: 0.35675}, 0.1, RequestExams)
	for _, want := range []string{"μ⊙=0.81", "ν⊙=0.36", "π⊙=0.10", "Final decision: PEDIR_EXAME."} {
		if !strings.Contains(got, want) {
			t.Fatalf("interpretation %q missing %q", got, want)
		}
	}
}
