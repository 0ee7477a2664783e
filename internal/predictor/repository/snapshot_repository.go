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

// snapshotRepository writes the engineered feature table to
// {SNAPSHOT_DIR}/{SYMBOL}_final_dataset.csv after each run. Snapshots are
// debugging artifacts, not part of the serving contract.
type snapshotRepository struct {
	dir string
	log *logger.Logger
}

// NewSnapshotRepository creates a CSV snapshot writer rooted at dir.
func NewSnapshotRepository(dir string, log *logger.Logger) SnapshotRepository {
	return &snapshotRepository{dir: dir, log: log}
}

func (r *snapshotRepository) Save(ctx context.Context, symbol string, rows []entity.FeatureRow) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	path := filepath.Join(r.dir, fmt.Sprintf("%s_final_dataset.csv", strings.ToUpper(symbol)))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	r.log.Debug("Saved engineered snapshot",
		logger.StringField("symbol", symbol),
		logger.StringField("path", path),
	)
	return nil
}
