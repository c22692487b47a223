package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Decision{}, &Dataset{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	if err := applyIndexes(db); err != nil {
		return nil, fmt.Errorf("apply indexes: %w", err)
	}
	return &Database{gorm: db}, nil
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveDecision inserts a single decision row.
func (d *Database) SaveDecision(decision *Decision) error {
	if decision == nil {
		return errors.New("decision is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(decision).Error
}

// CreateDatasetWithDecisions inserts a dataset and its decided rows in one
// transaction, so a failed upload leaves nothing behind.
func (d *Database) CreateDatasetWithDecisions(dataset *Dataset, decisions []Decision) error {
	if dataset == nil {
		return errors.New("dataset is nil")
	}
	if dataset.ID != 0 {
		return fmt.Errorf("dataset %d already exists", dataset.ID)
	}
	dataset.DecidedRows = len(decisions)
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dataset).Error; err != nil {
			return err
		}
		if len(decisions) == 0 {
			return nil
		}
		for i := range decisions {
			decisions[i].DatasetID = dataset.ID
		}
		// Keep well under the SQLite variable limit.
		return tx.CreateInBatches(decisions, 250).Error
	})
	if err != nil {
		dataset.ID = 0
		return err
	}
	return nil
}

// ListDatasets returns datasets ordered by creation time.
func (d *Database) ListDatasets(offset, limit int) ([]Dataset, int64, error) {
	var total int64
	if err := d.gorm.Model(&Dataset{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query := d.gorm.Model(&Dataset{}).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	var datasets []Dataset
	if err := query.Find(&datasets).Error; err != nil {
		return nil, 0, err
	}
	return datasets, total, nil
}

// GetDataset retrieves a dataset by ID.
func (d *Database) GetDataset(datasetID uint) (*Dataset, error) {
	var dataset Dataset
	if err := d.gorm.First(&dataset, datasetID).Error; err != nil {
		return nil, err
	}
	return &dataset, nil
}

// DecisionQuery filters the decision history.
type DecisionQuery struct {
	DatasetID uint
	Decision  string
	Sort      string
	Offset    int
	Limit     int
}

// ListDecisions returns paginated decision records applying optional filters.
func (d *Database) ListDecisions(opts DecisionQuery) ([]Decision, int64, error) {
	var total int64
	base := d.gorm.Model(&Decision{})
	if opts.DatasetID > 0 {
		base = base.Where("dataset_id = ?", opts.DatasetID)
	}
	if decision := strings.TrimSpace(opts.Decision); decision != "" {
		base = base.Where("decision = ?", strings.ToUpper(decision))
	}

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	queryBuilder := base.Order(orderForSort(opts.Sort)).Offset(opts.Offset)
	if opts.Limit > 0 {
		queryBuilder = queryBuilder.Limit(opts.Limit)
	}

	var rows []Decision
	if err := queryBuilder.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// DatasetDecisions returns every decision of a dataset in row order.
func (d *Database) DatasetDecisions(datasetID uint) ([]Decision, error) {
	var rows []Decision
	if err := d.gorm.Where("dataset_id = ?", datasetID).Order("row_index ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func orderForSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "row_asc":
		return "decisions.row_index ASC, decisions.id ASC"
	case "treat_desc":
		return "decisions.treat_score DESC, decisions.id DESC"
	case "exams_desc":
		return "decisions.request_exams_score DESC, decisions.id DESC"
	case "conflict_desc":
		return "decisions.nu_xnor DESC, decisions.id DESC"
	case "agreement_desc":
		return "decisions.mu_xnor DESC, decisions.id DESC"
	case "created_asc":
		return "decisions.created_at ASC, decisions.id ASC"
	case "created_desc":
		return "decisions.created_at DESC, decisions.id DESC"
	default:
		return "decisions.id DESC"
	}
}

func applyIndexes(db *gorm.DB) error {
	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_decisions_dataset_row ON decisions(dataset_id, row_index)",
		"CREATE INDEX IF NOT EXISTS idx_decisions_decision_created ON decisions(decision, created_at)",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
