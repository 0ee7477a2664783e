package entity

// FeatureRow is a DailyRecord after feature engineering. The derived-column
// schema is identical whether the row was produced for training or for
// serving; the Predictor consumes the derived columns only.
type FeatureRow struct {
	DailyRecord

	Lag1Close  *float64 `csv:"lag_1_close" json:"lag_1_close,omitempty"`
	Lag1Open   *float64 `csv:"lag_1_open" json:"lag_1_open,omitempty"`
	Lag1High   *float64 `csv:"lag_1_high" json:"lag_1_high,omitempty"`
	Lag1Low    *float64 `csv:"lag_1_low" json:"lag_1_low,omitempty"`
	Lag1Volume *float64 `csv:"lag_1_volume" json:"lag_1_volume,omitempty"`

	Lag1Return        *float64 `csv:"lag_1_return" json:"lag_1_return,omitempty"`
	Lag2Return        *float64 `csv:"lag_2_return" json:"lag_2_return,omitempty"`
	Lag3Return        *float64 `csv:"lag_3_return" json:"lag_3_return,omitempty"`
	CumulativeReturn3 *float64 `csv:"cumulative_return_3" json:"cumulative_return_3,omitempty"`

	SMA5  *float64 `csv:"SMA_5" json:"SMA_5,omitempty"`
	SMA10 *float64 `csv:"SMA_10" json:"SMA_10,omitempty"`
	EMA10 *float64 `csv:"EMA_10" json:"EMA_10,omitempty"`
	EMA20 *float64 `csv:"EMA_20" json:"EMA_20,omitempty"`

	MACD       *float64 `csv:"MACD" json:"MACD,omitempty"`
	RSI        *float64 `csv:"RSI" json:"RSI,omitempty"`
	BollingerH *float64 `csv:"bollinger_h" json:"bollinger_h,omitempty"`
	BollingerL *float64 `csv:"bollinger_l" json:"bollinger_l,omitempty"`

	Volatility       *float64 `csv:"volatility" json:"volatility,omitempty"`
	RollingStd5      *float64 `csv:"rolling_std_5" json:"rolling_std_5,omitempty"`
	CloseToOpenRatio *float64 `csv:"close_to_open_ratio" json:"close_to_open_ratio,omitempty"`
	HighToLowRatio   *float64 `csv:"high_to_low_ratio" json:"high_to_low_ratio,omitempty"`

	VolumeChange *float64 `csv:"volume_change" json:"volume_change,omitempty"`
	VolumeSMA5   *float64 `csv:"volume_SMA_5" json:"volume_SMA_5,omitempty"`
	Lag2Volume   *float64 `csv:"lag_2_volume" json:"lag_2_volume,omitempty"`

	SentimentMomentum *float64 `csv:"sentiment_momentum" json:"sentiment_momentum,omitempty"`
	RollingSentiment3 *float64 `csv:"rolling_sentiment_3" json:"rolling_sentiment_3,omitempty"`
	NewsCount         *float64 `csv:"news_count" json:"news_count,omitempty"`

	DayOfWeek  *float64 `csv:"day_of_week" json:"day_of_week,omitempty"`
	Month      *float64 `csv:"month" json:"month,omitempty"`
	Quarter    *float64 `csv:"quarter" json:"quarter,omitempty"`
	IsMonthEnd *float64 `csv:"is_month_end" json:"is_month_end,omitempty"`

	// Target is the next-day direction label: 1 when the next calendar
	// row's close is strictly greater than this row's close, 0 otherwise.
	// It is nil when no next row exists or either close is unknown; callers
	// rely on nil to mean "label unknown, must predict".
	Target *int `csv:"target" json:"target,omitempty"`
}

// featureColumns is the canonical feature order, matching the order in
// which the engineering stages create columns. Raw observation columns,
// Date, text and target are not model features.
var featureColumns = []string{
	"lag_1_close", "lag_1_open", "lag_1_high", "lag_1_low", "lag_1_volume",
	"lag_1_return", "lag_2_return", "lag_3_return", "cumulative_return_3",
	"SMA_5", "SMA_10", "EMA_10", "EMA_20",
	"MACD", "RSI", "bollinger_h", "bollinger_l",
	"volatility", "rolling_std_5", "close_to_open_ratio", "high_to_low_ratio",
	"volume_change", "volume_SMA_5", "lag_2_volume",
	"sentiment_momentum", "rolling_sentiment_3", "news_count",
	"day_of_week", "month", "quarter", "is_month_end",
}

// FeatureNames returns the canonical ordered feature-column names.
func FeatureNames() []string {
	out := make([]string, len(featureColumns))
	copy(out, featureColumns)
	return out
}

// Feature returns the named feature value, or nil when the column is
// undefined for this row. Unknown names return nil.
func (r *FeatureRow) Feature(name string) *float64 {
	switch name {
	case "lag_1_close":
		return r.Lag1Close
	case "lag_1_open":
		return r.Lag1Open
	case "lag_1_high":
		return r.Lag1High
	case "lag_1_low":
		return r.Lag1Low
	case "lag_1_volume":
		return r.Lag1Volume
	case "lag_1_return":
		return r.Lag1Return
	case "lag_2_return":
		return r.Lag2Return
	case "lag_3_return":
		return r.Lag3Return
	case "cumulative_return_3":
		return r.CumulativeReturn3
	case "SMA_5":
		return r.SMA5
	case "SMA_10":
		return r.SMA10
	case "EMA_10":
		return r.EMA10
	case "EMA_20":
		return r.EMA20
	case "MACD":
		return r.MACD
	case "RSI":
		return r.RSI
	case "bollinger_h":
		return r.BollingerH
	case "bollinger_l":
		return r.BollingerL
	case "volatility":
		return r.Volatility
	case "rolling_std_5":
		return r.RollingStd5
	case "close_to_open_ratio":
		return r.CloseToOpenRatio
	case "high_to_low_ratio":
		return r.HighToLowRatio
	case "volume_change":
		return r.VolumeChange
	case "volume_SMA_5":
		return r.VolumeSMA5
	case "lag_2_volume":
		return r.Lag2Volume
	case "sentiment_momentum":
		return r.SentimentMomentum
	case "rolling_sentiment_3":
		return r.RollingSentiment3
	case "news_count":
		return r.NewsCount
	case "day_of_week":
		return r.DayOfWeek
	case "month":
		return r.Month
	case "quarter":
		return r.Quarter
	case "is_month_end":
		return r.IsMonthEnd
	}
	return nil
}

// Vector assembles the model input for the given feature order. It returns
// false when any requested feature is undefined, which makes the row
// unsafe for inference.
func (r *FeatureRow) Vector(names []string) ([]float64, bool) {
	vec := make([]float64, len(names))
	for i, name := range names {
		v := r.Feature(name)
		if v == nil {
			return nil, false
		}
		vec[i] = *v
	}
	return vec, true
}
