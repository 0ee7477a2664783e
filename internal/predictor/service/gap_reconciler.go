package service

import (
	"context"
	"sort"
	"sync"

	"stock-movement-predictor/internal/entity"
	"stock-movement-predictor/internal/predictor/repository"
	"stock-movement-predictor/pkg/logger"
)

// GapReconcilerService guarantees every calendar date in a requested
// range exists as a row of a symbol's persisted full series before
// feature engineering runs. Weekends and holidays are legitimately absent
// upstream but must still appear as placeholder rows so lag and rolling
// windows behave predictably over calendar-contiguous ranges.
type GapReconcilerService interface {
	// Reconcile loads the symbol's series, inserts placeholders for every
	// missing date in [start, end], persists the updated series and
	// returns it sorted ascending. A symbol with no persisted series at
	// all fails with repository.ErrDatasetNotFound; the reconciler only
	// extends existing series, never creates one.
	Reconcile(ctx context.Context, symbol string, start, end entity.Date) ([]entity.DailyRecord, error)
}

type gapReconcilerService struct {
	datasetRepo repository.DatasetRepository
	log         *logger.Logger

	// The read-modify-persist cycle is serialized per symbol so that two
	// requests discovering overlapping missing-date sets cannot lose
	// updates.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewGapReconcilerService creates the gap reconciler.
func NewGapReconcilerService(datasetRepo repository.DatasetRepository, log *logger.Logger) GapReconcilerService {
	return &gapReconcilerService{
		datasetRepo: datasetRepo,
		log:         log,
		locks:       make(map[string]*sync.Mutex),
	}
}

func (s *gapReconcilerService) symbolLock(symbol string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[symbol]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[symbol] = lock
	}
	return lock
}

func (s *gapReconcilerService) Reconcile(ctx context.Context, symbol string, start, end entity.Date) ([]entity.DailyRecord, error) {
	lock := s.symbolLock(symbol)
	lock.Lock()
	defer lock.Unlock()

	records, err := s.datasetRepo.Load(ctx, symbol)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]struct{}, len(records))
	for _, rec := range records {
		existing[rec.Date.String()] = struct{}{}
	}

	var missing []entity.Date
	for _, date := range entity.DatesBetween(start, end) {
		if _, ok := existing[date.String()]; !ok {
			missing = append(missing, date)
		}
	}

	if len(missing) == 0 {
		return records, nil
	}

	s.log.Info("Reconciling missing dates",
		logger.StringField("symbol", symbol),
		logger.IntField("missing", len(missing)),
		logger.StringField("first", missing[0].String()),
		logger.StringField("last", missing[len(missing)-1].String()),
	)

	for _, date := range missing {
		records = append(records, entity.NewPlaceholder(date))
	}

	records = dedupeByDate(records)
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	// Persist so future requests do not re-detect the same gaps.
	if err := s.datasetRepo.Replace(ctx, symbol, records); err != nil {
		return nil, err
	}

	return records, nil
}

// dedupeByDate collapses duplicate dates, keeping the first occurrence.
// Rows loaded from the store precede freshly appended placeholders, so an
// existing observation always wins over a racing placeholder.
func dedupeByDate(records []entity.DailyRecord) []entity.DailyRecord {
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	for _, rec := range records {
		key := rec.Date.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}
