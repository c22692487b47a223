package scoring

import (
	"fmt"

	"medical-decision/backend/internal/circuit"
)

// Label is the internal decision vocabulary.
type Label string

const (
	DoNotTreat   Label = "NAO_TRATAR"
	RequestExams Label = "PEDIR_EXAME"
	Treat        Label = "TRATAR"
)

// External response vocabulary.
const (
	DecisionTreat        = "TREAT"
	DecisionDoNotTreat   = "DO NOT TREAT"
	DecisionRequestExams = "REQUEST EXAMS"
)

// labelOrder fixes tie resolution: the first label holding the maximum wins.
var labelOrder = [...]Label{DoNotTreat, RequestExams, Treat}

// Result is the outcome of one decision request.
type Result struct {
	Label          Label            `json:"label"`
	Scores         Scores           `json:"scores"`
	Estimate       circuit.Estimate `json:"estimate"`
	Factors        Factors          `json:"factors"`
	Degenerate     bool             `json:"degenerate"`
	Interpretation string           `json:"interpretation"`
}

// Decision returns the external label.
func (r Result) Decision() string {
	return External(r.Label)
}

// Choose picks the label with the highest score.
func Choose(scores Scores) Label {
	best := labelOrder[0]
	bestScore := scores.Get(best)
	for _, label := range labelOrder[1:] {
		if v := scores.Get(label); v > bestScore {
			best, bestScore = label, v
		}
	}
	return best
}

// External maps an internal label to the response vocabulary.
func External(label Label) string {
	switch label {
	case Treat:
		return DecisionTreat
	case DoNotTreat:
		return DecisionDoNotTreat
	default:
		return DecisionRequestExams
	}
}

// ParseExternal maps a response label back to the internal vocabulary.
func ParseExternal(decision string) (Label, bool) {
	switch decision {
	case DecisionTreat:
		return Treat, true
	case DecisionDoNotTreat:
		return DoNotTreat, true
	case DecisionRequestExams:
		return RequestExams, true
	}
	return "", false
}

// Interpret renders the human-readable summary of a decision. pi is the
// effective hesitation reported to callers.
func Interpret(est circuit.Estimate, pi float64, label Label) string {
	return fmt.Sprintf(
		"μ⊙=%.2f, ν⊙=%.2f, π⊙=%.2f. (μ⊙=agreement, ν⊙=conflict, π⊙=hesitation). Final decision: %s.",
		est.Mu, est.Nu, pi, label,
	)
}
