package store

import (
	"time"
)

// Decision is a persisted decision outcome, either from a single request or
// from a row of an uploaded dataset.
type Decision struct {
	ID                uint   `gorm:"primaryKey"`
	RequestID         string `gorm:"size:64;uniqueIndex"`
	DatasetID         uint   `gorm:"index"`
	RowIndex          int
	Mu1               float64
	Nu1               float64
	Mu2               float64
	Nu2               float64
	MuXNOR            float64
	NuXNOR            float64
	PiXNOR            float64
	Hesitation        float64
	QuantumConfidence float64
	TreatScore        float64
	DoNotTreatScore   float64
	RequestExamsScore float64
	Decision          string `gorm:"size:32;index"`
	InternalLabel     string `gorm:"size:32"`
	ExpectedDecision  string `gorm:"size:32"`
	Degenerate        bool
	Mode              string `gorm:"size:16"`
	Shots             int
	Interpretation    string `gorm:"type:text"`
	ProcessingTimeUs  int64
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

// Dataset represents an uploaded CSV of opinion pairs.
type Dataset struct {
	ID               uint   `gorm:"primaryKey"`
	Name             string `gorm:"size:128;index"`
	OriginalFilename string `gorm:"size:256"`
	RowCount         int
	DecidedRows      int
	InvalidRows      int
	Mode             string `gorm:"size:16"`
	Shots            int
	ProcessingTimeMs int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
