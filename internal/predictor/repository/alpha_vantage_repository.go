package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"stock-movement-predictor/internal/entity"
	"stock-movement-predictor/internal/predictor/config"
	"stock-movement-predictor/internal/predictor/dto"
	"stock-movement-predictor/pkg/logger"

	"golang.org/x/time/rate"
)

// alphaVantageRepository fetches daily OHLCV history from the Alpha
// Vantage TIME_SERIES_DAILY endpoint.
type alphaVantageRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewAlphaVantageRepository creates a rate-limited PriceRepository backed
// by Alpha Vantage.
func NewAlphaVantageRepository(cfg *config.Config, log *logger.Logger) PriceRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.AlphaVantage.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)
	return &alphaVantageRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		requestLimiter: requestLimiter,
	}
}

func (r *alphaVantageRepository) FetchDaily(ctx context.Context, symbol string, start, end entity.Date) ([]entity.DailyRecord, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("symbol", symbol)
	q.Set("apikey", r.cfg.AlphaVantage.APIKey)
	q.Set("outputsize", "full")
	apiURL := fmt.Sprintf("%s/query?%s", r.cfg.AlphaVantage.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("alpha vantage returned %d: %s", resp.StatusCode, string(body))
	}

	var payload dto.AlphaVantageDailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if payload.ErrorMessage != "" {
		return nil, fmt.Errorf("alpha vantage error: %s", payload.ErrorMessage)
	}
	if len(payload.TimeSeries) == 0 {
		// Rate-limit notes come back as 200s with an empty series.
		if payload.Note != "" {
			return nil, fmt.Errorf("alpha vantage throttled: %s", payload.Note)
		}
		if payload.Information != "" {
			return nil, fmt.Errorf("alpha vantage rejected request: %s", payload.Information)
		}
		return nil, fmt.Errorf("alpha vantage returned no daily series for %s", symbol)
	}

	records := make([]entity.DailyRecord, 0, len(payload.TimeSeries))
	for dateStr, bar := range payload.TimeSeries {
		date, err := entity.ParseDate(dateStr)
		if err != nil {
			r.log.Warn("Skipping unparseable date in daily series",
				logger.StringField("symbol", symbol),
				logger.StringField("date", dateStr),
			)
			continue
		}
		if date.Before(start) || date.After(end) {
			continue
		}
		rec, err := parseDailyBar(date, bar)
		if err != nil {
			return nil, fmt.Errorf("failed to parse bar for %s: %w", dateStr, err)
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	r.log.Info("Fetched daily prices",
		logger.StringField("symbol", symbol),
		logger.IntField("rows", len(records)),
	)
	return records, nil
}

func parseDailyBar(date entity.Date, bar dto.AlphaVantageDailyBar) (entity.DailyRecord, error) {
	rec := entity.DailyRecord{Date: date}
	for _, field := range []struct {
		raw string
		dst **float64
	}{
		{bar.Open, &rec.Open},
		{bar.High, &rec.High},
		{bar.Low, &rec.Low},
		{bar.Close, &rec.Close},
		{bar.Volume, &rec.Volume},
	} {
		v, err := strconv.ParseFloat(field.raw, 64)
		if err != nil {
			return entity.DailyRecord{}, fmt.Errorf("invalid value %q: %w", field.raw, err)
		}
		value := v
		*field.dst = &value
	}
	return rec, nil
}
