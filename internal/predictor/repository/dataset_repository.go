package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stock-movement-predictor/internal/entity"
	"stock-movement-predictor/pkg/logger"

	"github.com/gocarina/gocsv"
)

// datasetRepository stores each symbol's full series as a flat CSV file,
// {DATA_DIR}/{SYMBOL}_full_dataset.csv, with the same column layout the
// training pipeline produced. Empty cells round-trip as nil pointers.
type datasetRepository struct {
	dataDir string
	log     *logger.Logger
}

// NewDatasetRepository creates a CSV-backed DatasetRepository rooted at
// dataDir.
func NewDatasetRepository(dataDir string, log *logger.Logger) DatasetRepository {
	return &datasetRepository{dataDir: dataDir, log: log}
}

func (r *datasetRepository) path(symbol string) string {
	return filepath.Join(r.dataDir, fmt.Sprintf("%s_full_dataset.csv", strings.ToUpper(symbol)))
}

func (r *datasetRepository) Exists(symbol string) bool {
	_, err := os.Stat(r.path(symbol))
	return err == nil
}

func (r *datasetRepository) Load(ctx context.Context, symbol string) ([]entity.DailyRecord, error) {
	f, err := os.Open(r.path(symbol))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDatasetNotFound
		}
		return nil, fmt.Errorf("failed to open dataset for %s: %w", symbol, err)
	}
	defer f.Close()

	var records []entity.DailyRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("failed to parse dataset for %s: %w", symbol, err)
	}

	r.log.Debug("Loaded full series",
		logger.StringField("symbol", symbol),
		logger.IntField("rows", len(records)),
	)
	return records, nil
}

func (r *datasetRepository) Replace(ctx context.Context, symbol string, records []entity.DailyRecord) error {
	if err := os.MkdirAll(r.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	// Write to a temp file and rename so a crashed write never truncates
	// the persisted series.
	tmp, err := os.CreateTemp(r.dataDir, "dataset-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp dataset: %w", err)
	}
	tmpPath := tmp.Name()

	if err := gocsv.MarshalFile(&records, tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write dataset for %s: %w", symbol, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp dataset: %w", err)
	}
	if err := os.Rename(tmpPath, r.path(symbol)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace dataset for %s: %w", symbol, err)
	}

	r.log.Info("Persisted full series",
		logger.StringField("symbol", symbol),
		logger.IntField("rows", len(records)),
	)
	return nil
}
