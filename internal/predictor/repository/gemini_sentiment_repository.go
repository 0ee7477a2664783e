package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stock-movement-predictor/internal/entity"
	"stock-movement-predictor/internal/predictor/config"
	"stock-movement-predictor/internal/predictor/dto"
	"stock-movement-predictor/pkg/logger"
	"stock-movement-predictor/pkg/ratelimit"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const sentimentPromptTemplate = `You are a financial news sentiment classifier.
Classify the sentiment of the following news article about %s toward the company's stock.

Headline: %s
Published: %s
Content: %s

Respond with JSON only, no markdown, in this exact schema:
{"label": "positive|neutral|negative", "score": <confidence between 0 and 1>}`

// geminiSentimentRepository scores articles with the Google Gemini API.
type geminiSentimentRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	genAiClient    *genai.Client
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
}

// NewGeminiSentimentRepository creates a Gemini-backed SentimentRepository.
func NewGeminiSentimentRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (SentimentRepository, error) {
	if cfg.Gemini.MaxRequestPerMinute <= 0 {
		return nil, fmt.Errorf("gemini max_request_per_minute must be positive")
	}
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)
	tokenLimiter := ratelimit.NewTokenLimiter(cfg.Gemini.MaxTokenPerMinute)

	return &geminiSentimentRepository{
		cfg:            cfg,
		log:            log,
		genAiClient:    genAiClient,
		tokenLimiter:   tokenLimiter,
		requestLimiter: requestLimiter,
	}, nil
}

func (r *geminiSentimentRepository) Score(ctx context.Context, article entity.NewsArticle) (*entity.ArticleSentiment, error) {
	prompt := fmt.Sprintf(sentimentPromptTemplate,
		article.Symbol, article.Headline, article.Published, article.Summary)

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}

	tokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count tokens: %w", err)
	}

	r.log.Debug("Gemini token count",
		logger.IntField("total_tokens", int(tokenResp.TotalTokens)),
		logger.IntField("remaining", r.tokenLimiter.GetRemaining()),
	)

	if err := r.tokenLimiter.Wait(ctx, int(tokenResp.TotalTokens)); err != nil {
		return nil, fmt.Errorf("failed to wait for token limit: %w", err)
	}
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call Gemini API: %w", err)
	}

	return parseSentimentVerdict(resp.Text())
}

func parseSentimentVerdict(raw string) (*entity.ArticleSentiment, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var verdict dto.SentimentVerdict
	if err := json.Unmarshal([]byte(cleaned), &verdict); err != nil {
		return nil, fmt.Errorf("failed to parse sentiment verdict %q: %w", raw, err)
	}

	label, err := sentimentLabelValue(verdict.Label)
	if err != nil {
		return nil, err
	}
	score := verdict.Score
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return &entity.ArticleSentiment{Score: score, Label: label}, nil
}

func sentimentLabelValue(label string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive":
		return entity.SentimentPositive, nil
	case "neutral":
		return entity.SentimentNeutral, nil
	case "negative":
		return entity.SentimentNegative, nil
	}
	return 0, fmt.Errorf("unknown sentiment label %q", label)
}
