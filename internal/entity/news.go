package entity

// Sentiment labels use the same numeric mapping as the classifier that
// produced the training data: -1 negative, 0 neutral, 1 positive.
const (
	SentimentNegative = -1
	SentimentNeutral  = 0
	SentimentPositive = 1
)

// NewsArticle is a single news item about a symbol.
type NewsArticle struct {
	Symbol    string `json:"symbol"`
	Headline  string `json:"headline"`
	Summary   string `json:"summary"`
	Source    string `json:"source"`
	URL       string `json:"url"`
	Published Date   `json:"published"`
}

// Text combines headline and summary the way the training corpus did.
func (a NewsArticle) Text() string {
	if a.Summary == "" {
		return a.Headline
	}
	return a.Headline + ". " + a.Summary
}

// ArticleSentiment is the per-article output of a sentiment provider.
type ArticleSentiment struct {
	// Score is the provider's confidence in the assigned label, in [0, 1].
	Score float64 `json:"score"`
	// Label is -1, 0 or 1.
	Label int `json:"label"`
}

// DailySentiment is the fixed daily schema produced by the sentiment
// aggregator: one row per calendar date with news activity.
type DailySentiment struct {
	Date           Date    `json:"date"`
	SentimentScore float64 `json:"sentiment_score"`
	SentimentLabel int     `json:"sentiment_label"`
	PositiveRatio  float64 `json:"positive_ratio"`
	NewsCount      int     `json:"news_count"`
}
