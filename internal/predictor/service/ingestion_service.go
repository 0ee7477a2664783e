package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"stock-movement-predictor/internal/entity"
	"stock-movement-predictor/internal/predictor/dto"
	"stock-movement-predictor/internal/predictor/repository"
	"stock-movement-predictor/pkg/logger"
	"stock-movement-predictor/pkg/telegram"
)

// IngestionService builds a symbol's full series: daily price history
// inner-joined with aggregated news sentiment, persisted to the dataset
// store.
type IngestionService interface {
	Ingest(ctx context.Context, symbol string, start, end entity.Date) (*dto.IngestionSummary, error)
}

type ingestionService struct {
	priceRepo     repository.PriceRepository
	newsRepo      repository.NewsRepository
	sentimentRepo repository.SentimentRepository
	datasetRepo   repository.DatasetRepository
	notifier      telegram.Notifier
	log           *logger.Logger
}

// NewIngestionService creates the ingestion pipeline. notifier must be
// non-nil; telegram.NoopNotifier disables digests.
func NewIngestionService(
	priceRepo repository.PriceRepository,
	newsRepo repository.NewsRepository,
	sentimentRepo repository.SentimentRepository,
	datasetRepo repository.DatasetRepository,
	notifier telegram.Notifier,
	log *logger.Logger,
) IngestionService {
	return &ingestionService{
		priceRepo:     priceRepo,
		newsRepo:      newsRepo,
		sentimentRepo: sentimentRepo,
		datasetRepo:   datasetRepo,
		notifier:      notifier,
		log:           log,
	}
}

func (s *ingestionService) Ingest(ctx context.Context, symbol string, start, end entity.Date) (*dto.IngestionSummary, error) {
	symbol = strings.ToUpper(symbol)

	prices, err := s.priceRepo.FetchDaily(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price history: %w", err)
	}

	articles, err := s.newsRepo.FetchRange(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}

	scored := s.scoreArticles(ctx, articles)
	daily := AggregateDailySentiment(scored)

	merged := mergeSeries(prices, daily, scored)
	if len(merged) == 0 {
		return nil, fmt.Errorf("no overlapping price and news dates for %s between %s and %s", symbol, start, end)
	}

	// The persisted series is append-and-rededupe, never truncated: a
	// trailing-window refresh must keep every date outside the window.
	existing, err := s.datasetRepo.Load(ctx, symbol)
	if err != nil && !errors.Is(err, repository.ErrDatasetNotFound) {
		return nil, fmt.Errorf("failed to load persisted series: %w", err)
	}

	if err := s.datasetRepo.Replace(ctx, symbol, mergeIntoSeries(existing, merged)); err != nil {
		return nil, fmt.Errorf("failed to persist full series: %w", err)
	}

	summary := &dto.IngestionSummary{
		Symbol:     symbol,
		StartDate:  start.String(),
		EndDate:    end.String(),
		PriceRows:  len(prices),
		Articles:   len(articles),
		MergedRows: len(merged),
	}

	msg := telegram.FormatIngestionSummary(symbol, summary.StartDate, summary.EndDate, summary.MergedRows, summary.Articles)
	if err := s.notifier.SendMessage(msg); err != nil {
		s.log.Warn("Failed to send ingestion digest", logger.ErrorField(err))
	}

	return summary, nil
}

// scoredArticle pairs an article with its sentiment verdict.
type scoredArticle struct {
	article   entity.NewsArticle
	sentiment entity.ArticleSentiment
}

// scoreArticles runs the sentiment provider over every article. One
// article failing to score never aborts the batch; it is dropped with a
// warning.
func (s *ingestionService) scoreArticles(ctx context.Context, articles []entity.NewsArticle) []scoredArticle {
	scored := make([]scoredArticle, 0, len(articles))
	for _, article := range articles {
		sentiment, err := s.sentimentRepo.Score(ctx, article)
		if err != nil {
			s.log.Warn("Failed to score article",
				logger.StringField("headline", article.Headline),
				logger.ErrorField(err),
			)
			continue
		}
		scored = append(scored, scoredArticle{article: article, sentiment: *sentiment})
	}
	return scored
}

// AggregateDailySentiment reduces per-article sentiment to one row per
// calendar date: mean score, modal label, positive ratio and article
// count. Ties between modal labels break deterministically toward the
// lower label value.
func AggregateDailySentiment(scored []scoredArticle) []entity.DailySentiment {
	byDate := make(map[string][]scoredArticle)
	for _, sa := range scored {
		key := sa.article.Published.String()
		byDate[key] = append(byDate[key], sa)
	}

	out := make([]entity.DailySentiment, 0, len(byDate))
	for _, group := range byDate {
		var scoreSum float64
		var positives int
		labelCounts := map[int]int{}
		for _, sa := range group {
			scoreSum += sa.sentiment.Score
			labelCounts[sa.sentiment.Label]++
			if sa.sentiment.Label == entity.SentimentPositive {
				positives++
			}
		}

		modal := entity.SentimentNegative
		best := -1
		for _, label := range []int{entity.SentimentNegative, entity.SentimentNeutral, entity.SentimentPositive} {
			if labelCounts[label] > best {
				best = labelCounts[label]
				modal = label
			}
		}

		out = append(out, entity.DailySentiment{
			Date:           group[0].article.Published,
			SentimentScore: scoreSum / float64(len(group)),
			SentimentLabel: modal,
			PositiveRatio:  float64(positives) / float64(len(group)),
			NewsCount:      len(group),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// mergeIntoSeries folds freshly ingested rows into the persisted series,
// keyed by date. A re-fetched date wins over whatever was stored before,
// so a refresh corrects stale rows and fills placeholders; dates outside
// the refreshed window are kept untouched.
func mergeIntoSeries(existing, fresh []entity.DailyRecord) []entity.DailyRecord {
	byDate := make(map[string]entity.DailyRecord, len(existing)+len(fresh))
	for _, rec := range existing {
		byDate[rec.Date.String()] = rec
	}
	for _, rec := range fresh {
		byDate[rec.Date.String()] = rec
	}

	out := make([]entity.DailyRecord, 0, len(byDate))
	for _, rec := range byDate {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// mergeSeries inner-joins price rows with daily sentiment on date,
// producing the canonical full series sorted ascending.
func mergeSeries(prices []entity.DailyRecord, daily []entity.DailySentiment, scored []scoredArticle) []entity.DailyRecord {
	sentimentByDate := make(map[string]entity.DailySentiment, len(daily))
	for _, d := range daily {
		sentimentByDate[d.Date.String()] = d
	}

	headlinesByDate := make(map[string][]string)
	for _, sa := range scored {
		key := sa.article.Published.String()
		headlinesByDate[key] = append(headlinesByDate[key], sa.article.Text())
	}

	var merged []entity.DailyRecord
	for _, price := range prices {
		key := price.Date.String()
		sentiment, ok := sentimentByDate[key]
		if !ok {
			continue
		}
		rec := price
		score := sentiment.SentimentScore
		rec.SentimentScore = &score
		text := strings.Join(headlinesByDate[key], " | ")
		rec.Text = &text
		merged = append(merged, rec)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	return merged
}
