package dto

// FinnhubNewsItem is one article from the company-news endpoint.
// Datetime is a unix timestamp in seconds.
type FinnhubNewsItem struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}
