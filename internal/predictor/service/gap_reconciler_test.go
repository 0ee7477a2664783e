package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-movement-predictor/internal/entity"
	"stock-movement-predictor/internal/predictor/repository"
)

// fakeDatasetRepo is an in-memory DatasetRepository shared across the
// service tests.
type fakeDatasetRepo struct {
	mu       sync.Mutex
	series   map[string][]entity.DailyRecord
	replaced int
}

func newFakeDatasetRepo() *fakeDatasetRepo {
	return &fakeDatasetRepo{series: make(map[string][]entity.DailyRecord)}
}

func (f *fakeDatasetRepo) Load(ctx context.Context, symbol string) ([]entity.DailyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	records, ok := f.series[symbol]
	if !ok {
		return nil, repository.ErrDatasetNotFound
	}
	out := make([]entity.DailyRecord, len(records))
	copy(out, records)
	return out, nil
}

func (f *fakeDatasetRepo) Replace(ctx context.Context, symbol string, records []entity.DailyRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.DailyRecord, len(records))
	copy(out, records)
	f.series[symbol] = out
	f.replaced++
	return nil
}

func (f *fakeDatasetRepo) Exists(symbol string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.series[symbol]
	return ok
}

func TestReconcileInsertsPlaceholders(t *testing.T) {
	base := entity.NewDate(2024, time.January, 1)
	repo := newFakeDatasetRepo()
	persisted := seriesFromCloses(base, []float64{100, 101})
	// drop Jan 2 so the series has a hole
	persisted[1].Date = base.AddDays(2)
	require.NoError(t, repo.Replace(context.Background(), "AAPL", persisted))
	repo.replaced = 0

	svc := NewGapReconcilerService(repo, testLogger(t))
	records, err := svc.Reconcile(context.Background(), "AAPL", base, base.AddDays(2))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "2024-01-01", records[0].Date.String())
	assert.Equal(t, "2024-01-02", records[1].Date.String())
	assert.Equal(t, "2024-01-03", records[2].Date.String())

	assert.True(t, records[1].IsPlaceholder())
	assert.False(t, records[0].IsPlaceholder(), "existing rows keep their observations")
	require.NotNil(t, records[2].Close)
	assert.Equal(t, 101.0, *records[2].Close)

	assert.Equal(t, 1, repo.replaced, "updated series must be persisted")

	t.Run("second pass sees a complete series", func(t *testing.T) {
		again, err := svc.Reconcile(context.Background(), "AAPL", base, base.AddDays(2))
		require.NoError(t, err)
		assert.Equal(t, records, again)
		assert.Equal(t, 1, repo.replaced, "no gaps left, nothing to persist")
	})
}

func TestReconcileExtendsBeyondSeries(t *testing.T) {
	base := entity.NewDate(2024, time.January, 10)
	repo := newFakeDatasetRepo()
	require.NoError(t, repo.Replace(context.Background(), "AAPL", seriesFromCloses(base, []float64{100})))

	svc := NewGapReconcilerService(repo, testLogger(t))
	records, err := svc.Reconcile(context.Background(), "AAPL", base.AddDays(-2), base.AddDays(2))
	require.NoError(t, err)
	require.Len(t, records, 5)

	for i := 1; i < len(records); i++ {
		assert.True(t, records[i-1].Date.Before(records[i].Date), "output must be sorted ascending")
	}
	assert.True(t, records[0].IsPlaceholder())
	assert.False(t, records[2].IsPlaceholder())
	assert.True(t, records[4].IsPlaceholder())
}

func TestReconcileUnknownSymbol(t *testing.T) {
	svc := NewGapReconcilerService(newFakeDatasetRepo(), testLogger(t))

	_, err := svc.Reconcile(context.Background(), "MSFT",
		entity.NewDate(2024, time.January, 1), entity.NewDate(2024, time.January, 5))
	assert.ErrorIs(t, err, repository.ErrDatasetNotFound)
}

func TestReconcileDeduplicatesDates(t *testing.T) {
	base := entity.NewDate(2024, time.January, 1)
	repo := newFakeDatasetRepo()
	persisted := seriesFromCloses(base, []float64{100, 200})
	persisted[1].Date = persisted[0].Date
	require.NoError(t, repo.Replace(context.Background(), "AAPL", persisted))

	svc := NewGapReconcilerService(repo, testLogger(t))
	records, err := svc.Reconcile(context.Background(), "AAPL", base, base.AddDays(1))
	require.NoError(t, err)
	require.Len(t, records, 2)

	// first occurrence wins
	require.NotNil(t, records[0].Close)
	assert.Equal(t, 100.0, *records[0].Close)
	assert.True(t, records[1].IsPlaceholder())
}

func TestReconcileConcurrentRequests(t *testing.T) {
	base := entity.NewDate(2024, time.January, 1)
	repo := newFakeDatasetRepo()
	require.NoError(t, repo.Replace(context.Background(), "AAPL", seriesFromCloses(base, []float64{100})))

	svc := NewGapReconcilerService(repo, testLogger(t))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Reconcile(context.Background(), "AAPL", base, base.AddDays(9))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	records, err := repo.Load(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Len(t, records, 10, "racing reconciles must not duplicate rows")
}
