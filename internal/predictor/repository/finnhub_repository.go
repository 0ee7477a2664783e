package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"stock-movement-predictor/internal/entity"
	"stock-movement-predictor/internal/predictor/config"
	"stock-movement-predictor/internal/predictor/dto"
	"stock-movement-predictor/pkg/logger"

	"golang.org/x/time/rate"
)

// finnhubRepository fetches company news from Finnhub one calendar day at
// a time, the granularity the sentiment aggregation works at.
type finnhubRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewFinnhubRepository creates a rate-limited NewsRepository backed by the
// Finnhub company-news API.
func NewFinnhubRepository(cfg *config.Config, log *logger.Logger) NewsRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Finnhub.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)
	return &finnhubRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		requestLimiter: requestLimiter,
	}
}

func (r *finnhubRepository) FetchRange(ctx context.Context, symbol string, start, end entity.Date) ([]entity.NewsArticle, error) {
	var articles []entity.NewsArticle
	for _, day := range entity.DatesBetween(start, end) {
		dayArticles, err := r.fetchDay(ctx, symbol, day)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch news for %s: %w", day, err)
		}
		articles = append(articles, dayArticles...)
	}

	r.log.Info("Fetched company news",
		logger.StringField("symbol", symbol),
		logger.IntField("articles", len(articles)),
	)
	return articles, nil
}

func (r *finnhubRepository) fetchDay(ctx context.Context, symbol string, day entity.Date) ([]entity.NewsArticle, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("from", day.String())
	q.Set("to", day.String())
	q.Set("token", r.cfg.Finnhub.APIKey)
	apiURL := fmt.Sprintf("%s/api/v1/company-news?%s", r.cfg.Finnhub.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("finnhub returned %d: %s", resp.StatusCode, string(body))
	}

	var items []dto.FinnhubNewsItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	articles := make([]entity.NewsArticle, 0, len(items))
	for _, item := range items {
		if item.Headline == "" {
			continue
		}
		articles = append(articles, entity.NewsArticle{
			Symbol:    symbol,
			Headline:  item.Headline,
			Summary:   item.Summary,
			Source:    item.Source,
			URL:       item.URL,
			Published: day,
		})
	}
	return articles, nil
}
