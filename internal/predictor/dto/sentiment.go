package dto

// SentimentVerdict is the JSON verdict requested from the Gemini prompt.
type SentimentVerdict struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// IngestionSummary reports the outcome of one ingestion run.
type IngestionSummary struct {
	Symbol     string `json:"symbol"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	PriceRows  int    `json:"price_rows"`
	Articles   int    `json:"articles"`
	MergedRows int    `json:"merged_rows"`
}
