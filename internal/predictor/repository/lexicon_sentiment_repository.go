package repository

import (
	"context"
	"strings"

	"stock-movement-predictor/internal/entity"
)

// Small financial polarity lexicon. The lexicon provider is an offline
// fallback for environments without an AI provider; the numeric output
// keeps the same shape as the Gemini provider.
var (
	positiveTerms = []string{
		"beat", "beats", "surge", "surges", "rally", "rallies", "gain",
		"gains", "record", "upgrade", "upgraded", "outperform", "growth",
		"profit", "profits", "strong", "bullish", "raise", "raises",
		"exceeds", "soar", "soars", "jump", "jumps",
	}
	negativeTerms = []string{
		"miss", "misses", "fall", "falls", "drop", "drops", "plunge",
		"plunges", "downgrade", "downgraded", "underperform", "loss",
		"losses", "weak", "bearish", "cut", "cuts", "lawsuit", "probe",
		"recall", "slump", "slumps", "decline", "declines", "warning",
	}
)

type lexiconSentimentRepository struct{}

// NewLexiconSentimentRepository creates the offline lexicon-based
// SentimentRepository.
func NewLexiconSentimentRepository() SentimentRepository {
	return &lexiconSentimentRepository{}
}

func (r *lexiconSentimentRepository) Score(ctx context.Context, article entity.NewsArticle) (*entity.ArticleSentiment, error) {
	tokens := strings.Fields(strings.ToLower(article.Text()))
	var pos, neg int
	for _, tok := range tokens {
		tok = strings.Trim(tok, ".,;:!?\"'()[]")
		if contains(positiveTerms, tok) {
			pos++
		} else if contains(negativeTerms, tok) {
			neg++
		}
	}

	matched := pos + neg
	if matched == 0 {
		return &entity.ArticleSentiment{Score: 0.5, Label: entity.SentimentNeutral}, nil
	}

	// Confidence grows with the margin between polarities.
	margin := float64(abs(pos-neg)) / float64(matched)
	score := 0.5 + margin/2

	label := entity.SentimentNeutral
	if pos > neg {
		label = entity.SentimentPositive
	} else if neg > pos {
		label = entity.SentimentNegative
	}
	return &entity.ArticleSentiment{Score: score, Label: label}, nil
}

func contains(terms []string, tok string) bool {
	for _, t := range terms {
		if t == tok {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
