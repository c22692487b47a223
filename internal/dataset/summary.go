package dataset

import (
	"github.com/montanaflynn/stats"

	"medical-decision/backend/internal/scoring"
	"medical-decision/backend/internal/store"
)

// Distribution describes one numeric column of a dataset.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary aggregates the decisions of a dataset.
type Summary struct {
	Total      int                     `json:"total"`
	Decisions  map[string]int          `json:"decisions"`
	Labelled   int                     `json:"labelled"`
	Matches    int                     `json:"matches"`
	Accuracy   float64                 `json:"accuracy"`
	Degenerate int                     `json:"degenerate"`
	Columns    map[string]Distribution `json:"columns"`
}

// Summarize computes decision counts, agreement with expected labels and
// distributions of the estimate and score columns.
func Summarize(rows []store.Decision) (Summary, error) {
	summary := Summary{
		Total: len(rows),
		Decisions: map[string]int{
			scoring.DecisionTreat:        0,
			scoring.DecisionDoNotTreat:   0,
			scoring.DecisionRequestExams: 0,
		},
		Columns: make(map[string]Distribution),
	}
	if len(rows) == 0 {
		return summary, nil
	}

	columns := map[string]stats.Float64Data{}
	add := func(name string, v float64) {
		columns[name] = append(columns[name], v)
	}
	for _, row := range rows {
		summary.Decisions[row.Decision]++
		if row.Degenerate {
			summary.Degenerate++
		}
		if row.ExpectedDecision != "" {
			summary.Labelled++
			if row.ExpectedDecision == row.Decision {
				summary.Matches++
			}
		}
		add("mu_xor", row.MuXNOR)
		add("nu_xor", row.NuXNOR)
		add("hesitation", row.Hesitation)
		add("quantum_confidence", row.QuantumConfidence)
		add("treat", row.TreatScore)
		add("do_not_treat", row.DoNotTreatScore)
		add("request_exams", row.RequestExamsScore)
	}
	if summary.Labelled > 0 {
		summary.Accuracy = float64(summary.Matches) / float64(summary.Labelled)
	}

	for name, data := range columns {
		dist, err := describe(data)
		if err != nil {
			return Summary{}, err
		}
		summary.Columns[name] = dist
	}
	return summary, nil
}

func describe(data stats.Float64Data) (Distribution, error) {
	var (
		d   Distribution
		err error
	)
	if d.Mean, err = stats.Mean(data); err != nil {
		return Distribution{}, err
	}
	if d.StdDev, err = stats.StandardDeviation(data); err != nil {
		return Distribution{}, err
	}
	if d.Median, err = stats.Median(data); err != nil {
		return Distribution{}, err
	}
	if d.Min, err = stats.Min(data); err != nil {
		return Distribution{}, err
	}
	if d.Max, err = stats.Max(data); err != nil {
		return Distribution{}, err
	}
	return d, nil
}
