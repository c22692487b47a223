package store

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "decisions.db"), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newDecision(decision string, row int) Decision {
	return Decision{
		RequestID:  uuid.NewString(),
		RowIndex:   row,
		Decision:   decision,
		TreatScore: float64(row) / 10,
	}
}

func TestSaveAndListDecisions(t *testing.T) {
	db := openTestDB(t)

	for i, label := range []string{"TREAT", "DO NOT TREAT", "TREAT"} {
		d := newDecision(label, i+1)
		require.NoError(t, db.SaveDecision(&d))
		assert.NotZero(t, d.ID)
	}

	rows, total, err := db.ListDecisions(DecisionQuery{Decision: "treat"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, rows, 2)
	assert.Greater(t, rows[0].ID, rows[1].ID, "default order is newest first")

	rows, total, err = db.ListDecisions(DecisionQuery{Sort: "treat_desc", Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].RowIndex)
}

func TestCreateDatasetWithDecisions(t *testing.T) {
	db := openTestDB(t)

	dataset := &Dataset{Name: "ward A", OriginalFilename: "dataset_xor_medico.csv", Mode: "exact", RowCount: 4, InvalidRows: 1}
	decisions := []Decision{
		newDecision("TREAT", 2),
		newDecision("REQUEST EXAMS", 1),
		newDecision("DO NOT TREAT", 3),
	}
	require.NoError(t, db.CreateDatasetWithDecisions(dataset, decisions))
	require.NotZero(t, dataset.ID)

	stored, err := db.GetDataset(dataset.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.RowCount)
	assert.Equal(t, 3, stored.DecidedRows)
	assert.Equal(t, 1, stored.InvalidRows)

	rows, err := db.DatasetDecisions(dataset.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{rows[0].RowIndex, rows[1].RowIndex, rows[2].RowIndex})

	filtered, total, err := db.ListDecisions(DecisionQuery{DatasetID: dataset.ID, Decision: "REQUEST EXAMS"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, dataset.ID, filtered[0].DatasetID)

	datasets, count, err := db.ListDatasets(0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, "ward A", datasets[0].Name)
}

func TestCreateDatasetWithDecisionsRollsBack(t *testing.T) {
	db := openTestDB(t)

	first := newDecision("TREAT", 1)
	require.NoError(t, db.SaveDecision(&first))

	// The second row reuses a request ID, so the batch insert fails.
	clash := newDecision("TREAT", 1)
	clash.RequestID = first.RequestID
	dataset := &Dataset{Name: "broken", RowCount: 2}
	err := db.CreateDatasetWithDecisions(dataset, []Decision{newDecision("TREAT", 2), clash})
	require.Error(t, err)
	assert.Zero(t, dataset.ID)

	_, count, err := db.ListDatasets(0, 10)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, total, err := db.ListDecisions(DecisionQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestCreateDatasetWithDecisionsRejectsBadInput(t *testing.T) {
	db := openTestDB(t)
	assert.Error(t, db.CreateDatasetWithDecisions(nil, nil))
	assert.Error(t, db.CreateDatasetWithDecisions(&Dataset{ID: 7}, nil))
	assert.Error(t, db.SaveDecision(nil))
}
