package api

import (
	"errors"
	"fmt"
	"time"

	"medical-decision/backend/internal/dataset"
	"medical-decision/backend/internal/fuzzy"
	"medical-decision/backend/internal/scoring"
	"medical-decision/backend/internal/store"
)

// OpinionDTO is one doctor's opinion as sent by the frontend. Pointers
// distinguish a missing degree from an explicit zero.
type OpinionDTO struct {
	Mu *float64 `json:"mu"`
	Nu *float64 `json:"nu"`
}

// DecisionRequest is the body of POST /decide.
type DecisionRequest struct {
	Doctor1 *OpinionDTO `json:"doctor1"`
	Doctor2 *OpinionDTO `json:"doctor2"`
}

// Opinions checks both opinions are present and returns them clamped to [0,1].
func (r DecisionRequest) Opinions() (fuzzy.Opinion, fuzzy.Opinion, error) {
	d1, err := r.Doctor1.opinion("doctor1")
	if err != nil {
		return fuzzy.Opinion{}, fuzzy.Opinion{}, err
	}
	d2, err := r.Doctor2.opinion("doctor2")
	if err != nil {
		return fuzzy.Opinion{}, fuzzy.Opinion{}, err
	}
	return d1, d2, nil
}

func (o *OpinionDTO) opinion(field string) (fuzzy.Opinion, error) {
	if o == nil {
		return fuzzy.Opinion{}, fmt.Errorf("%w: %s is required", fuzzy.ErrInvalidInput, field)
	}
	if o.Mu == nil || o.Nu == nil {
		return fuzzy.Opinion{}, fmt.Errorf("%w: %s requires mu and nu", fuzzy.ErrInvalidInput, field)
	}
	op, err := fuzzy.Opinion{Mu: *o.Mu, Nu: *o.Nu}.Clamped()
	if err != nil {
		return fuzzy.Opinion{}, fmt.Errorf("%s: %w", field, err)
	}
	return op, nil
}

// ScoresDTO uses the frontend's key names.
type ScoresDTO struct {
	Treat        float64 `json:"treat"`
	DoNotTreat   float64 `json:"doNotTreat"`
	RequestExams float64 `json:"requestExams"`
}

// DecisionResponse is the body returned by POST /decide.
type DecisionResponse struct {
	Decision       string    `json:"decision"`
	Scores         ScoresDTO `json:"scores"`
	MuXor          float64   `json:"mu_xor"`
	NuXor          float64   `json:"nu_xor"`
	PiXor          float64   `json:"pi_xor"`
	Interpretation string    `json:"interpretation"`
	RequestID      string    `json:"request_id,omitempty"`
}

// NewDecisionResponse maps an engine result to the response vocabulary. The
// reported π is the effective hesitation used by the rules.
func NewDecisionResponse(res scoring.Result) DecisionResponse {
	return DecisionResponse{
		Decision: res.Decision(),
		Scores: ScoresDTO{
			Treat:        res.Scores.Treat,
			DoNotTreat:   res.Scores.DoNotTreat,
			RequestExams: res.Scores.RequestExams,
		},
		MuXor:          res.Estimate.Mu,
		NuXor:          res.Estimate.Nu,
		PiXor:          res.Factors.Hesitation,
		Interpretation: res.Interpretation,
	}
}

// DecisionDTO is the API representation of a stored decision.
type DecisionDTO struct {
	ID                uint       `json:"id"`
	RequestID         string     `json:"request_id"`
	DatasetID         uint       `json:"dataset_id,omitempty"`
	Row               int        `json:"row,omitempty"`
	Doctor1           OpinionOut `json:"doctor1"`
	Doctor2           OpinionOut `json:"doctor2"`
	Decision          string     `json:"decision"`
	Expected          string     `json:"expected,omitempty"`
	Scores            ScoresDTO  `json:"scores"`
	MuXor             float64    `json:"mu_xor"`
	NuXor             float64    `json:"nu_xor"`
	PiXor             float64    `json:"pi_xor"`
	QuantumConfidence float64    `json:"quantum_confidence"`
	Degenerate        bool       `json:"degenerate"`
	Mode              string     `json:"mode"`
	Shots             int        `json:"shots,omitempty"`
	Interpretation    string     `json:"interpretation"`
	CreatedAt         time.Time  `json:"created_at"`
}

// OpinionOut is an opinion echoed back in history responses.
type OpinionOut struct {
	Mu float64 `json:"mu"`
	Nu float64 `json:"nu"`
}

// FromModel converts a store.Decision into the DTO representation.
func FromModel(d store.Decision) DecisionDTO {
	return DecisionDTO{
		ID:        d.ID,
		RequestID: d.RequestID,
		DatasetID: d.DatasetID,
		Row:       d.RowIndex,
		Doctor1:   OpinionOut{Mu: d.Mu1, Nu: d.Nu1},
		Doctor2:   OpinionOut{Mu: d.Mu2, Nu: d.Nu2},
		Decision:  d.Decision,
		Expected:  d.ExpectedDecision,
		Scores: ScoresDTO{
			Treat:        d.TreatScore,
			DoNotTreat:   d.DoNotTreatScore,
			RequestExams: d.RequestExamsScore,
		},
		MuXor:             d.MuXNOR,
		NuXor:             d.NuXNOR,
		PiXor:             d.Hesitation,
		QuantumConfidence: d.QuantumConfidence,
		Degenerate:        d.Degenerate,
		Mode:              d.Mode,
		Shots:             d.Shots,
		Interpretation:    d.Interpretation,
		CreatedAt:         d.CreatedAt,
	}
}

// DecisionsResponse is a page of stored decisions.
type DecisionsResponse struct {
	Items []DecisionDTO `json:"items"`
	Total int64         `json:"total"`
}

// DatasetDTO represents metadata for an uploaded dataset.
type DatasetDTO struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	OriginalFilename string    `json:"original_filename"`
	RowCount         int       `json:"row_count"`
	DecidedRows      int       `json:"decided_rows"`
	InvalidRows      int       `json:"invalid_rows"`
	Mode             string    `json:"mode"`
	Shots            int       `json:"shots,omitempty"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// DatasetFromModel converts a store.Dataset into a DTO.
func DatasetFromModel(d store.Dataset) DatasetDTO {
	return DatasetDTO{
		ID:               d.ID,
		Name:             d.Name,
		OriginalFilename: d.OriginalFilename,
		RowCount:         d.RowCount,
		DecidedRows:      d.DecidedRows,
		InvalidRows:      d.InvalidRows,
		Mode:             d.Mode,
		Shots:            d.Shots,
		ProcessingTimeMs: d.ProcessingTimeMs,
		CreatedAt:        d.CreatedAt,
	}
}

// DatasetsResponse is the paginated response for datasets.
type DatasetsResponse struct {
	Items []DatasetDTO `json:"items"`
	Total int64        `json:"total"`
}

// UploadResponse reports the outcome of a dataset upload.
type UploadResponse struct {
	Dataset DatasetDTO         `json:"dataset"`
	Invalid []dataset.RowError `json:"invalid_rows"`
}

// SummaryResponse pairs a dataset with its analytics.
type SummaryResponse struct {
	Dataset DatasetDTO      `json:"dataset"`
	Summary dataset.Summary `json:"summary"`
}

func isInvalidInput(err error) bool {
	return errors.Is(err, fuzzy.ErrInvalidInput)
}
