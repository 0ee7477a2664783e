package service

import (
	"context"
	"fmt"
	"strings"

	"stock-movement-predictor/internal/entity"
	"stock-movement-predictor/internal/predictor/repository"
	"stock-movement-predictor/pkg/logger"
	"stock-movement-predictor/pkg/utils"
)

// Indicator lookbacks. These are fixed because the pretrained classifiers
// were built against features computed with exactly these windows.
const (
	smaShortWindow  = 5
	smaLongWindow   = 10
	emaShortSpan    = 10
	emaLongSpan     = 20
	macdFastSpan    = 12
	macdSlowSpan    = 26
	rsiPeriod       = 14
	bollingerWindow = 20
	bollingerK      = 2.0
	volatilityWin   = 5
	returnSumWindow = 3
	sentimentWindow = 3
)

// FeatureEngineeringService derives lagged price, volume, sentiment and
// temporal features plus the next-day direction label from a symbol's
// full series. The transformation is a pure function of the input series;
// the same schema is produced for offline training data and online
// serving input.
type FeatureEngineeringService interface {
	Engineer(ctx context.Context, symbol string, records []entity.DailyRecord) ([]entity.FeatureRow, error)
}

type featureEngineeringService struct {
	log       *logger.Logger
	snapshots repository.SnapshotRepository
}

// NewFeatureEngineeringService creates the feature engine. snapshots may
// be nil to disable the debugging snapshot.
func NewFeatureEngineeringService(log *logger.Logger, snapshots repository.SnapshotRepository) FeatureEngineeringService {
	return &featureEngineeringService{log: log, snapshots: snapshots}
}

// Engineer runs every stage in fixed order. The input must be sorted
// ascending by date with unique dates; placeholder rows are expected and
// simply carry undefined derived values where the math needs missing
// observations. The output has exactly one row per input row.
func (s *featureEngineeringService) Engineer(ctx context.Context, symbol string, records []entity.DailyRecord) ([]entity.FeatureRow, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("cannot engineer features for an empty series")
	}
	for i := 1; i < len(records); i++ {
		if !records[i-1].Date.Before(records[i].Date) {
			return nil, fmt.Errorf("series dates must be strictly ascending: %s followed by %s",
				records[i-1].Date, records[i].Date)
		}
	}

	rows := make([]entity.FeatureRow, len(records))
	for i, rec := range records {
		rows[i] = entity.FeatureRow{DailyRecord: rec}
	}

	s.addPriceFeatures(rows)
	s.addVolumeFeatures(rows)
	s.addSentimentFeatures(rows)
	s.addTemporalFeatures(rows)
	s.addTargetLabel(rows)

	if s.snapshots != nil {
		if err := s.snapshots.Save(ctx, symbol, rows); err != nil {
			// The snapshot is an auxiliary artifact; a failed write must
			// not fail the feature build.
			s.log.Warn("Failed to save engineered snapshot",
				logger.StringField("symbol", symbol),
				logger.ErrorField(err),
			)
		}
	}

	return rows, nil
}

// addPriceFeatures computes everything derived from lagged OHLC values.
// All statistics are built from yesterday's bar so that no same-day
// information leaks into a same-day-available feature.
func (s *featureEngineeringService) addPriceFeatures(rows []entity.FeatureRow) {
	n := len(rows)
	closes := make([]*float64, n)
	opens := make([]*float64, n)
	highs := make([]*float64, n)
	lows := make([]*float64, n)
	volumes := make([]*float64, n)
	for i := range rows {
		closes[i] = rows[i].Close
		opens[i] = rows[i].Open
		highs[i] = rows[i].High
		lows[i] = rows[i].Low
		volumes[i] = rows[i].Volume
	}

	lag1Close := shift(closes, 1)
	lag1Open := shift(opens, 1)
	lag1High := shift(highs, 1)
	lag1Low := shift(lows, 1)
	lag1Volume := shift(volumes, 1)

	lag1Return := make([]*float64, n)
	for i := 0; i < n; i++ {
		lag1Return[i] = div(sub(lag1Close[i], lag1Open[i]), lag1Open[i])
	}
	lag2Return := shift(lag1Return, 1)
	lag3Return := shift(lag1Return, 2)
	cumReturn3 := rollingSum(lag1Return, returnSumWindow)

	sma5 := rollingMean(lag1Close, smaShortWindow)
	sma10 := rollingMean(lag1Close, smaLongWindow)
	ema10 := ewm(lag1Close, 2.0/float64(emaShortSpan+1), 1)
	ema20 := ewm(lag1Close, 2.0/float64(emaLongSpan+1), 1)

	emaFast := ewm(lag1Close, 2.0/float64(macdFastSpan+1), macdFastSpan)
	emaSlow := ewm(lag1Close, 2.0/float64(macdSlowSpan+1), macdSlowSpan)
	rsi := rsiColumn(lag1Close, rsiPeriod)

	bollMid := rollingMean(lag1Close, bollingerWindow)
	bollStd := rollingStd(lag1Close, bollingerWindow, 0)
	std5 := rollingStd(lag1Close, volatilityWin, 1)

	for i := range rows {
		r := &rows[i]
		r.Lag1Close = lag1Close[i]
		r.Lag1Open = lag1Open[i]
		r.Lag1High = lag1High[i]
		r.Lag1Low = lag1Low[i]
		r.Lag1Volume = lag1Volume[i]

		r.Lag1Return = lag1Return[i]
		r.Lag2Return = lag2Return[i]
		r.Lag3Return = lag3Return[i]
		r.CumulativeReturn3 = cumReturn3[i]

		r.SMA5 = sma5[i]
		r.SMA10 = sma10[i]
		r.EMA10 = ema10[i]
		r.EMA20 = ema20[i]

		r.MACD = sub(emaFast[i], emaSlow[i])
		r.RSI = rsi[i]
		if bollMid[i] != nil && bollStd[i] != nil {
			r.BollingerH = fptr(*bollMid[i] + bollingerK**bollStd[i])
			r.BollingerL = fptr(*bollMid[i] - bollingerK**bollStd[i])
		}

		// The five-period deviation is exposed under two names because
		// the training data carried both columns.
		r.Volatility = std5[i]
		r.RollingStd5 = std5[i]
		r.CloseToOpenRatio = div(r.Lag1Close, r.Lag1Open)
		r.HighToLowRatio = div(r.Lag1High, r.Lag1Low)
	}
}

// addVolumeFeatures derives turnover features from the lagged volume
// column produced by the price stage.
func (s *featureEngineeringService) addVolumeFeatures(rows []entity.FeatureRow) {
	n := len(rows)
	lag1Volume := make([]*float64, n)
	for i := range rows {
		lag1Volume[i] = rows[i].Lag1Volume
	}

	volumeSMA5 := rollingMean(lag1Volume, smaShortWindow)
	lag2Volume := shift(lag1Volume, 1)

	for i := range rows {
		if i > 0 {
			rows[i].VolumeChange = div(sub(lag1Volume[i], lag1Volume[i-1]), lag1Volume[i-1])
		}
		rows[i].VolumeSMA5 = volumeSMA5[i]
		rows[i].Lag2Volume = lag2Volume[i]
	}
}

// addSentimentFeatures derives sentiment momentum and the news presence
// flag. Both source columns are optional: a series where every value is
// absent leaves the derived columns undefined, which downstream callers
// must tolerate.
func (s *featureEngineeringService) addSentimentFeatures(rows []entity.FeatureRow) {
	n := len(rows)
	scores := make([]*float64, n)
	hasScores := false
	hasText := false
	for i := range rows {
		scores[i] = rows[i].SentimentScore
		if scores[i] != nil {
			hasScores = true
		}
		if rows[i].Text != nil {
			hasText = true
		}
	}

	if hasScores {
		rolling3 := rollingMean(scores, sentimentWindow)
		for i := range rows {
			if i > 0 {
				rows[i].SentimentMomentum = sub(scores[i], scores[i-1])
			}
			rows[i].RollingSentiment3 = rolling3[i]
		}
	}

	if hasText {
		for i := range rows {
			if rows[i].Text != nil && strings.TrimSpace(*rows[i].Text) != "" {
				rows[i].NewsCount = fptr(1)
			} else {
				rows[i].NewsCount = fptr(0)
			}
		}
	}
}

// addTemporalFeatures derives calendar facts from the row's own date:
// these are known in advance, so no lagging applies.
func (s *featureEngineeringService) addTemporalFeatures(rows []entity.FeatureRow) {
	for i := range rows {
		t := rows[i].Date.Time
		rows[i].DayOfWeek = fptr(float64(utils.DayOfWeekMondayZero(t)))
		rows[i].Month = fptr(float64(t.Month()))
		rows[i].Quarter = fptr(float64(utils.Quarter(t)))
		if utils.IsMonthEnd(t) {
			rows[i].IsMonthEnd = fptr(1)
		} else {
			rows[i].IsMonthEnd = fptr(0)
		}
	}
}

// addTargetLabel assigns the one-step-forward direction label. The final
// row, and any row where either close is unknown, keeps a nil target:
// callers rely on nil to mean the label must be predicted.
func (s *featureEngineeringService) addTargetLabel(rows []entity.FeatureRow) {
	for i := 0; i < len(rows)-1; i++ {
		if rows[i].Close == nil || rows[i+1].Close == nil {
			continue
		}
		target := 0
		if *rows[i+1].Close > *rows[i].Close {
			target = 1
		}
		rows[i].Target = &target
	}
}
