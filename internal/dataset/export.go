package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"medical-decision/backend/internal/fuzzy"
	"medical-decision/backend/internal/scoring"
	"medical-decision/backend/internal/store"
)

// exportHeader lists the CSV columns written by WriteCSV.
var exportHeader = []string{
	"row", "mu1", "nu1", "mu2", "nu2",
	"mu_xor", "nu_xor", "pi_xor",
	"treat", "do_not_treat", "request_exams",
	"decision", "expected", "mode", "shots",
}

// NewDecision converts an engine result into its persisted form.
func NewDecision(requestID string, doctor1, doctor2 fuzzy.Opinion, res scoring.Result, mode string, elapsed time.Duration) store.Decision {
	return store.Decision{
		RequestID:         requestID,
		Mu1:               doctor1.Mu,
		Nu1:               doctor1.Nu,
		Mu2:               doctor2.Mu,
		Nu2:               doctor2.Nu,
		MuXNOR:            res.Estimate.Mu,
		NuXNOR:            res.Estimate.Nu,
		PiXNOR:            res.Estimate.Pi,
		Hesitation:        res.Factors.Hesitation,
		QuantumConfidence: res.Factors.QuantumConfidence,
		TreatScore:        res.Scores.Treat,
		DoNotTreatScore:   res.Scores.DoNotTreat,
		RequestExamsScore: res.Scores.RequestExams,
		Decision:          res.Decision(),
		InternalLabel:     string(res.Label),
		Degenerate:        res.Degenerate,
		Mode:              mode,
		Shots:             res.Estimate.Shots,
		Interpretation:    res.Interpretation,
		ProcessingTimeUs:  elapsed.Microseconds(),
	}
}

// WriteCSV writes decisions with a header row.
func WriteCSV(w io.Writer, rows []store.Decision) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	for _, row := range rows {
		line := []string{
			strconv.Itoa(row.RowIndex),
			formatFloat(row.Mu1),
			formatFloat(row.Nu1),
			formatFloat(row.Mu2),
			formatFloat(row.Nu2),
			formatFloat(row.MuXNOR),
			formatFloat(row.NuXNOR),
			formatFloat(row.Hesitation),
			formatFloat(row.TreatScore),
			formatFloat(row.DoNotTreatScore),
			formatFloat(row.RequestExamsScore),
			row.Decision,
			row.ExpectedDecision,
			row.Mode,
			strconv.Itoa(row.Shots),
		}
		if err := writer.Write(line); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
