package entity

// DailyRecord is one calendar date of a symbol's full series: merged daily
// price data and aggregated news sentiment. All observation fields are
// nullable; a record with every observation field nil is a placeholder for
// a date with no observed market or news activity.
type DailyRecord struct {
	Date           Date     `csv:"Date" json:"date"`
	Open           *float64 `csv:"Open" json:"open,omitempty"`
	High           *float64 `csv:"High" json:"high,omitempty"`
	Low            *float64 `csv:"Low" json:"low,omitempty"`
	Close          *float64 `csv:"Close" json:"close,omitempty"`
	Volume         *float64 `csv:"Volume" json:"volume,omitempty"`
	SentimentScore *float64 `csv:"sentiment_score" json:"sentiment_score,omitempty"`
	Text           *string  `csv:"text" json:"text,omitempty"`
}

// NewPlaceholder creates a placeholder record for a date absent from the
// source data.
func NewPlaceholder(date Date) DailyRecord {
	return DailyRecord{Date: date}
}

// IsPlaceholder reports whether every observation field is nil.
func (r DailyRecord) IsPlaceholder() bool {
	return r.Open == nil && r.High == nil && r.Low == nil && r.Close == nil &&
		r.Volume == nil && r.SentimentScore == nil && r.Text == nil
}
