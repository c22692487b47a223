package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"medical-decision/backend/internal/fuzzy"
	"medical-decision/backend/internal/scoring"
)

// Row is one opinion pair read from a dataset file.
type Row struct {
	Index    int
	Doctor1  fuzzy.Opinion
	Doctor2  fuzzy.Opinion
	Expected string
}

// RowError records a line that could not be used.
type RowError struct {
	Index int    `json:"row"`
	Err   string `json:"error"`
}

// ParseResult is the outcome of reading a dataset.
type ParseResult struct {
	Rows     []Row
	Invalid  []RowError
	RowCount int
}

type columns struct {
	mu1, nu1, mu2, nu2 int
	decision           int
}

var defaultColumns = columns{mu1: 0, nu1: 1, mu2: 2, nu2: 3, decision: -1}

// Parse reads rows of mu1,nu1,mu2,nu2 with an optional header and an optional
// decision column holding an expected label.
func Parse(r io.Reader) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		cols            = defaultColumns
		headerProcessed bool
		result          = &ParseResult{}
		rowIndex        int
	)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if isBlank(record) {
			continue
		}
		if len(record) > 0 {
			record[0] = strings.TrimPrefix(record[0], "\ufeff")
		}

		if !headerProcessed {
			headerProcessed = true
			if detected, ok := detectColumns(record); ok {
				cols = detected
				continue
			}
			if !looksNumeric(record) {
				continue // unrecognised header, keep positional columns
			}
		}

		rowIndex++
		row, err := parseRecord(record, cols)
		if err != nil {
			result.Invalid = append(result.Invalid, RowError{Index: rowIndex, Err: err.Error()})
			continue
		}
		row.Index = rowIndex
		result.Rows = append(result.Rows, row)
	}

	result.RowCount = rowIndex
	return result, nil
}

func parseRecord(record []string, cols columns) (Row, error) {
	values := make([]float64, 4)
	for i, idx := range []int{cols.mu1, cols.nu1, cols.mu2, cols.nu2} {
		if idx < 0 || idx >= len(record) {
			return Row{}, fmt.Errorf("missing column %d", idx+1)
		}
		raw := strings.TrimSpace(strings.ReplaceAll(record[idx], ",", "."))
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Row{}, fmt.Errorf("column %d: %w", idx+1, err)
		}
		values[i] = v
	}

	row := Row{
		Doctor1: fuzzy.Opinion{Mu: values[0], Nu: values[1]},
		Doctor2: fuzzy.Opinion{Mu: values[2], Nu: values[3]},
	}
	if err := row.Doctor1.Validate(); err != nil {
		return Row{}, fmt.Errorf("doctor1: %w", err)
	}
	if err := row.Doctor2.Validate(); err != nil {
		return Row{}, fmt.Errorf("doctor2: %w", err)
	}
	if cols.decision >= 0 && cols.decision < len(record) {
		expected := strings.ToUpper(strings.TrimSpace(record[cols.decision]))
		if _, ok := scoring.ParseExternal(expected); ok {
			row.Expected = expected
		}
	}
	return row, nil
}

// detectColumns treats the first record as a header when every opinion
// column can be located by name.
func detectColumns(record []string) (columns, bool) {
	cols := columns{mu1: -1, nu1: -1, mu2: -1, nu2: -1, decision: -1}
	for idx, value := range record {
		switch normalizeHeader(value) {
		case "mu1", "μ1", "μ₁", "doctor1mu", "x1":
			cols.mu1 = idx
		case "nu1", "ν1", "ν₁", "doctor1nu", "x2":
			cols.nu1 = idx
		case "mu2", "μ2", "μ₂", "doctor2mu", "y1":
			cols.mu2 = idx
		case "nu2", "ν2", "ν₂", "doctor2nu", "y2":
			cols.nu2 = idx
		case "decision", "decisao", "label", "expected":
			cols.decision = idx
		}
	}
	if cols.mu1 < 0 || cols.nu1 < 0 || cols.mu2 < 0 || cols.nu2 < 0 {
		return defaultColumns, false
	}
	return cols, true
}

func normalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	replacer := strings.NewReplacer("_", "", "-", "", " ", "", ".", "")
	return replacer.Replace(value)
}

func looksNumeric(record []string) bool {
	if len(record) == 0 {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
	return err == nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
