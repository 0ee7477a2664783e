package repository

import (
	"context"
	"errors"

	"stock-movement-predictor/internal/entity"
)

// ErrDatasetNotFound is returned when a symbol has no persisted full series.
var ErrDatasetNotFound = errors.New("dataset not found")

// ErrModelNotFound is returned when a symbol has no classifier artifact.
var ErrModelNotFound = errors.New("model not found")

// DatasetRepository stores the per-symbol full series: one row per known
// or placeholder calendar date.
type DatasetRepository interface {
	// Load reads the full series. It returns ErrDatasetNotFound when the
	// symbol has never been ingested.
	Load(ctx context.Context, symbol string) ([]entity.DailyRecord, error)
	// Replace rewrites the full series atomically.
	Replace(ctx context.Context, symbol string, records []entity.DailyRecord) error
	// Exists reports whether a persisted series exists for the symbol.
	Exists(symbol string) bool
}

// ModelRepository loads pretrained classifier artifacts, read-only.
type ModelRepository interface {
	// Get returns the artifact for the symbol. It returns ErrModelNotFound
	// when no artifact exists.
	Get(ctx context.Context, symbol string) (*entity.ModelArtifact, error)
}

// PriceRepository fetches daily OHLCV history.
type PriceRepository interface {
	FetchDaily(ctx context.Context, symbol string, start, end entity.Date) ([]entity.DailyRecord, error)
}

// NewsRepository fetches news articles for a symbol over a date range.
type NewsRepository interface {
	FetchRange(ctx context.Context, symbol string, start, end entity.Date) ([]entity.NewsArticle, error)
}

// SentimentRepository scores articles with a pretrained sentiment
// classifier.
type SentimentRepository interface {
	Score(ctx context.Context, article entity.NewsArticle) (*entity.ArticleSentiment, error)
}

// SnapshotRepository persists engineered feature tables as debugging
// artifacts.
type SnapshotRepository interface {
	Save(ctx context.Context, symbol string, rows []entity.FeatureRow) error
}
