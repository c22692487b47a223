package scoring

import (
	"math"

	"medical-decision/backend/internal/circuit"
	"medical-decision/backend/internal/fuzzy"
)

// degenerateThreshold is the raw score mass below which the fusion is
// considered uninformative.
const degenerateThreshold = 1e-9

// FallbackScores is returned when every raw score is effectively zero.
var FallbackScores = Scores{DoNotTreat: 0.33, RequestExams: 0.34, Treat: 0.33}

// Scores holds one weight per decision label.
type Scores struct {
	DoNotTreat   float64 `json:"do_not_treat"`
	RequestExams float64 `json:"request_exams"`
	Treat        float64 `json:"treat"`
}

// Get returns the weight for a label.
func (s Scores) Get(label Label) float64 {
	switch label {
	case DoNotTreat:
		return s.DoNotTreat
	case RequestExams:
		return s.RequestExams
	case Treat:
		return s.Treat
	default:
		return 0
	}
}

// Sum adds the three weights.
func (s Scores) Sum() float64 {
	return s.DoNotTreat + s.RequestExams + s.Treat
}

// Factors are the intermediate quantities of the fusion rules.
type Factors struct {
	AvgMu             float64 `json:"avg_mu"`
	AvgNu             float64 `json:"avg_nu"`
	Pi1               float64 `json:"pi1"`
	Pi2               float64 `json:"pi2"`
	PiAvg             float64 `json:"pi_avg"`
	Hesitation        float64 `json:"hesitation"`
	QuantumConfidence float64 `json:"quantum_confidence"`
}

// Fuse combines the raw opinions with the network estimate and returns the
// fusion factors together with the unnormalized scores.
func Fuse(doctor1, doctor2 fuzzy.Opinion, est circuit.Estimate) (Factors, Scores) {
	f := Factors{
		AvgMu: (doctor1.Mu + doctor2.Mu) / 2,
		AvgNu: (doctor1.Nu + doctor2.Nu) / 2,
		Pi1:   doctor1.Hesitation(),
		Pi2:   doctor2.Hesitation(),
	}
	f.PiAvg = (f.Pi1 + f.Pi2) / 2
	// The more conservative of the two hesitation estimates wins.
	f.Hesitation = math.Max(f.PiAvg, est.Pi)
	f.QuantumConfidence = est.Mu * (1 - est.Nu)

	raw := Scores{
		Treat:        f.AvgMu * f.QuantumConfidence * (1 - f.Hesitation),
		DoNotTreat:   f.AvgNu * f.QuantumConfidence * (1 - f.Hesitation),
		RequestExams: math.Max(1-f.QuantumConfidence, f.Hesitation),
	}
	return f, raw
}

// Normalize scales raw scores to sum to one. The second return value reports
// whether the fixed fallback distribution was used.
func Normalize(raw Scores) (Scores, bool) {
	total := raw.Sum()
	if total < degenerateThreshold {
		return FallbackScores, true
	}
	return Scores{
		DoNotTreat:   raw.DoNotTreat / total,
		RequestExams: raw.RequestExams / total,
		Treat:        raw.Treat / total,
	}, false
}
