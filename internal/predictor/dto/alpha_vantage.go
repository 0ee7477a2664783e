package dto

// AlphaVantageDailyResponse is the TIME_SERIES_DAILY payload. The time
// series maps "YYYY-MM-DD" to the per-day bar; Note and Information carry
// rate-limit and error messages in otherwise-200 responses.
type AlphaVantageDailyResponse struct {
	MetaData     map[string]string               `json:"Meta Data"`
	TimeSeries   map[string]AlphaVantageDailyBar `json:"Time Series (Daily)"`
	Note         string                          `json:"Note"`
	Information  string                          `json:"Information"`
	ErrorMessage string                          `json:"Error Message"`
}

// AlphaVantageDailyBar is one day of OHLCV data, all values as strings.
type AlphaVantageDailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}
