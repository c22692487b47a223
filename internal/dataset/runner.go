package dataset

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"

	"medical-decision/backend/internal/fuzzy"
	"medical-decision/backend/internal/scoring"
	"medical-decision/backend/internal/store"
	"medical-decision/backend/internal/util"
)

// Decider is the part of the scoring engine the runner needs.
type Decider interface {
	Decide(ctx context.Context, doctor1, doctor2 fuzzy.Opinion) (scoring.Result, error)
	Mode() string
}

// Outcome pairs a dataset row with its decision.
type Outcome struct {
	Row      Row
	Decision store.Decision
	Err      error
}

// DecideRows runs every row through the decider on a bounded worker pool
// and returns the outcomes in row order. The first error cancels the rest.
func DecideRows(ctx context.Context, decider Decider, rows []Row) ([]Outcome, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workerCount := determineWorkerCount()
	if workerCount > len(rows) {
		workerCount = len(rows)
	}

	taskCh := make(chan Row, workerCount*4)
	resultCh := make(chan Outcome, workerCount*4)

	var workerWG sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			for row := range taskCh {
				res := decideRow(ctx, decider, row)
				select {
				case resultCh <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(taskCh)
		for _, row := range rows {
			select {
			case taskCh <- row:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		workerWG.Wait()
		close(resultCh)
	}()

	outcomes := make([]Outcome, 0, len(rows))
	var firstErr error
	for res := range resultCh {
		if res.Err != nil && firstErr == nil {
			firstErr = fmt.Errorf("row %d: %w", res.Row.Index, res.Err)
			cancel()
			continue
		}
		outcomes = append(outcomes, res)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Row.Index < outcomes[j].Row.Index })
	return outcomes, nil
}

func decideRow(ctx context.Context, decider Decider, row Row) Outcome {
	timer := util.StartTimer()
	res, err := decider.Decide(ctx, row.Doctor1, row.Doctor2)
	if err != nil {
		return Outcome{Row: row, Err: err}
	}
	decision := NewDecision(uuid.NewString(), row.Doctor1, row.Doctor2, res, decider.Mode(), timer.Elapsed())
	decision.RowIndex = row.Index
	decision.ExpectedDecision = row.Expected
	return Outcome{Row: row, Decision: decision}
}

// Decisions extracts the persisted form of each outcome.
func Decisions(outcomes []Outcome) []store.Decision {
	out := make([]store.Decision, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, o.Decision)
	}
	return out
}

func determineWorkerCount() int {
	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}
	if workers > 12 {
		workers = 12
	}
	return workers
}
