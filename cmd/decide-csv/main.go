package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"medical-decision/backend/internal/circuit"
	"medical-decision/backend/internal/config"
	"medical-decision/backend/internal/dataset"
	"medical-decision/backend/internal/scoring"
	"medical-decision/backend/internal/store"
	"medical-decision/backend/internal/util"
)

const usage = "usage: decide-csv -input opinions.csv [-output decided.csv] [-mode sampled -shots 2000 -seed 42] [-db data/decisions.db]"

var errUsage = errors.New(usage)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, usage)
			stop()
			os.Exit(2)
		}
		logrus.Fatalf("decide-csv: %v", err)
	}
}

// run decides every input file and writes the combined CSV to stdout or
// -output.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	defaults, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logrus.SetLevel(defaults.Level())

	fs := flag.NewFlagSet("decide-csv", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		inputs     multiFlag
		outputPath = fs.String("output", "", "Path of the decided CSV (stdout when empty)")
		mode       = fs.String("mode", defaults.Mode, "Estimator mode: exact or sampled")
		shots      = fs.Int("shots", defaults.Shots, "Shots per decision in sampled mode")
		seed       = fs.Uint64("seed", defaults.Seed, "Sampler seed (0 draws a random seed)")
		dbPath     = fs.String("db", "", "Optional SQLite database to record the datasets in")
	)
	fs.Var(&inputs, "input", "CSV file of opinion pairs (repeatable)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	inputs = append(inputs, fs.Args()...)
	if len(inputs) == 0 {
		return errUsage
	}

	estimator, err := circuit.NewEstimator(*mode, *shots, *seed)
	if err != nil {
		return fmt.Errorf("estimator: %w", err)
	}
	engine := scoring.NewEngine(estimator)
	recordedShots := 0
	if engine.Mode() == circuit.ModeSampled {
		recordedShots = *shots
	}

	var db *store.Database
	if strings.TrimSpace(*dbPath) != "" {
		if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		db, err = store.Open(*dbPath, true)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logrus.WithError(cerr).Warn("close database")
			}
		}()
	}

	var all []store.Decision
	for _, path := range inputs {
		decisions, err := decideFile(ctx, engine, db, path, recordedShots)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		all = append(all, decisions...)
	}

	if *outputPath == "" {
		return dataset.WriteCSV(stdout, all)
	}
	f, err := os.Create(*outputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := dataset.WriteCSV(f, all); err != nil {
		_ = f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

// decideFile decides one CSV and, when db is set, records it as a dataset.
// Nothing is stored unless every row was decided.
func decideFile(ctx context.Context, engine dataset.Decider, db *store.Database, path string, shots int) ([]store.Decision, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	parsed, err := dataset.Parse(f)
	if err != nil {
		return nil, err
	}
	for _, invalid := range parsed.Invalid {
		logrus.WithFields(logrus.Fields{
			"file": path,
			"row":  invalid.Index,
		}).Warn(invalid.Err)
	}

	timer := util.StartTimer()
	outcomes, err := dataset.DecideRows(ctx, engine, parsed.Rows)
	if err != nil {
		return nil, err
	}
	decisions := dataset.Decisions(outcomes)

	if db != nil {
		ds := &store.Dataset{
			Name:             strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			OriginalFilename: filepath.Base(path),
			Mode:             engine.Mode(),
			Shots:            shots,
			RowCount:         parsed.RowCount,
			InvalidRows:      len(parsed.Invalid),
			ProcessingTimeMs: timer.ElapsedMs(),
		}
		if err := db.CreateDatasetWithDecisions(ds, decisions); err != nil {
			return nil, fmt.Errorf("save dataset: %w", err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"file":       path,
		"rows":       parsed.RowCount,
		"decided":    len(decisions),
		"invalid":    len(parsed.Invalid),
		"elapsed_ms": timer.ElapsedMs(),
	}).Info("decided file")
	return decisions, nil
}

type multiFlag []string

func (m *multiFlag) String() string {
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("empty value")
	}
	*m = append(*m, value)
	return nil
}
