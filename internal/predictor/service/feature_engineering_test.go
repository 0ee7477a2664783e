package service

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-movement-predictor/internal/entity"
	"stock-movement-predictor/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "json")
	require.NoError(t, err)
	return log
}

// seriesFromCloses builds consecutive calendar dates starting at base,
// with open/high/low/volume derived from the close so every observation
// field is populated.
func seriesFromCloses(base entity.Date, closes []float64) []entity.DailyRecord {
	records := make([]entity.DailyRecord, len(closes))
	for i, c := range closes {
		c := c
		open := c - 1
		high := c + 2
		low := c - 2
		volume := 1000.0 + float64(i)*100
		records[i] = entity.DailyRecord{
			Date:   base.AddDays(i),
			Open:   &open,
			High:   &high,
			Low:    &low,
			Close:  &c,
			Volume: &volume,
		}
	}
	return records
}

func TestEngineerTargetLabel(t *testing.T) {
	svc := NewFeatureEngineeringService(testLogger(t), nil)
	base := entity.NewDate(2024, time.January, 1)

	t.Run("worked example", func(t *testing.T) {
		records := seriesFromCloses(base, []float64{100, 102, 101, 101, 105})

		rows, err := svc.Engineer(context.Background(), "AAPL", records)
		require.NoError(t, err)
		require.Len(t, rows, 5)

		expected := []*int{intPtr(1), intPtr(0), intPtr(0), intPtr(1), nil}
		for i, want := range expected {
			if want == nil {
				assert.Nil(t, rows[i].Target, "row %d", i)
			} else {
				require.NotNil(t, rows[i].Target, "row %d", i)
				assert.Equal(t, *want, *rows[i].Target, "row %d", i)
			}
		}
	})

	t.Run("unknown close leaves target nil", func(t *testing.T) {
		records := seriesFromCloses(base, []float64{100, 102, 103})
		records[1].Close = nil

		rows, err := svc.Engineer(context.Background(), "AAPL", records)
		require.NoError(t, err)

		assert.Nil(t, rows[0].Target, "current close known, next unknown")
		assert.Nil(t, rows[1].Target, "current close unknown")
		assert.Nil(t, rows[2].Target, "last row never has a target")
	})
}

func TestEngineerLagFeatures(t *testing.T) {
	svc := NewFeatureEngineeringService(testLogger(t), nil)
	base := entity.NewDate(2024, time.March, 4)
	records := seriesFromCloses(base, []float64{10, 20, 30})

	rows, err := svc.Engineer(context.Background(), "AAPL", records)
	require.NoError(t, err)

	assert.Nil(t, rows[0].Lag1Close)
	assert.Nil(t, rows[0].Lag1Volume)

	require.NotNil(t, rows[1].Lag1Close)
	assert.Equal(t, 10.0, *rows[1].Lag1Close)
	require.NotNil(t, rows[2].Lag1Close)
	assert.Equal(t, 20.0, *rows[2].Lag1Close)
	require.NotNil(t, rows[2].Lag1Open)
	assert.Equal(t, 19.0, *rows[2].Lag1Open)

	// lag_1_return uses yesterday's bar only
	require.NotNil(t, rows[1].Lag1Return)
	assert.InDelta(t, (10.0-9.0)/9.0, *rows[1].Lag1Return, 1e-12)

	// ratios from lagged values
	require.NotNil(t, rows[1].CloseToOpenRatio)
	assert.InDelta(t, 10.0/9.0, *rows[1].CloseToOpenRatio, 1e-12)
	require.NotNil(t, rows[1].HighToLowRatio)
	assert.InDelta(t, 12.0/8.0, *rows[1].HighToLowRatio, 1e-12)

	// lag_2_volume is a second-order lag
	assert.Nil(t, rows[1].Lag2Volume)
	require.NotNil(t, rows[2].Lag2Volume)
	assert.Equal(t, 1000.0, *rows[2].Lag2Volume)
}

func TestEngineerRollingWindows(t *testing.T) {
	svc := NewFeatureEngineeringService(testLogger(t), nil)
	base := entity.NewDate(2024, time.January, 1)
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	records := seriesFromCloses(base, closes)

	rows, err := svc.Engineer(context.Background(), "AAPL", records)
	require.NoError(t, err)

	t.Run("undefined before the window fills", func(t *testing.T) {
		// lag_1_close starts at row 1, so an N-period window is first
		// complete at row N.
		for i := 0; i < 5; i++ {
			assert.Nil(t, rows[i].SMA5, "row %d", i)
		}
		for i := 0; i < 10; i++ {
			assert.Nil(t, rows[i].SMA10, "row %d", i)
		}
		for i := 0; i < 20; i++ {
			assert.Nil(t, rows[i].BollingerH, "row %d", i)
			assert.Nil(t, rows[i].BollingerL, "row %d", i)
		}
		for i := 0; i < 26; i++ {
			assert.Nil(t, rows[i].MACD, "row %d", i)
		}
		for i := 0; i < 15; i++ {
			assert.Nil(t, rows[i].RSI, "row %d", i)
		}
	})

	t.Run("defined from the window boundary", func(t *testing.T) {
		require.NotNil(t, rows[5].SMA5)
		// lag closes at rows 1..5 are 100..104
		assert.InDelta(t, 102.0, *rows[5].SMA5, 1e-12)

		require.NotNil(t, rows[10].SMA10)
		assert.InDelta(t, 104.5, *rows[10].SMA10, 1e-12)

		require.NotNil(t, rows[20].BollingerH)
		require.NotNil(t, rows[20].BollingerL)
		assert.Greater(t, *rows[20].BollingerH, *rows[20].BollingerL)

		require.NotNil(t, rows[26].MACD)
		require.NotNil(t, rows[15].RSI)
		// strictly rising closes saturate RSI at 100
		assert.InDelta(t, 100.0, *rows[15].RSI, 1e-9)
	})

	t.Run("return window", func(t *testing.T) {
		assert.Nil(t, rows[2].CumulativeReturn3)
		require.NotNil(t, rows[3].CumulativeReturn3)
		want := *rows[1].Lag1Return + *rows[2].Lag1Return + *rows[3].Lag1Return
		assert.InDelta(t, want, *rows[3].CumulativeReturn3, 1e-12)
	})

	t.Run("volatility columns agree", func(t *testing.T) {
		require.NotNil(t, rows[5].Volatility)
		require.NotNil(t, rows[5].RollingStd5)
		assert.Equal(t, *rows[5].Volatility, *rows[5].RollingStd5)
	})
}

func TestEngineerVolumeFeatures(t *testing.T) {
	svc := NewFeatureEngineeringService(testLogger(t), nil)
	base := entity.NewDate(2024, time.January, 1)
	records := seriesFromCloses(base, []float64{100, 101, 102, 103})

	rows, err := svc.Engineer(context.Background(), "AAPL", records)
	require.NoError(t, err)

	assert.Nil(t, rows[0].VolumeChange)
	assert.Nil(t, rows[1].VolumeChange, "needs two lagged volumes")
	require.NotNil(t, rows[2].VolumeChange)
	assert.InDelta(t, (1100.0-1000.0)/1000.0, *rows[2].VolumeChange, 1e-12)

	t.Run("zero prior volume is undefined", func(t *testing.T) {
		zero := 0.0
		records := seriesFromCloses(base, []float64{100, 101, 102})
		records[0].Volume = &zero

		rows, err := svc.Engineer(context.Background(), "AAPL", records)
		require.NoError(t, err)
		assert.Nil(t, rows[2].VolumeChange)
	})
}

func TestEngineerSentimentFeatures(t *testing.T) {
	svc := NewFeatureEngineeringService(testLogger(t), nil)
	base := entity.NewDate(2024, time.January, 1)

	t.Run("absent source columns stay absent", func(t *testing.T) {
		records := seriesFromCloses(base, []float64{100, 101, 102})

		rows, err := svc.Engineer(context.Background(), "AAPL", records)
		require.NoError(t, err)
		for i := range rows {
			assert.Nil(t, rows[i].SentimentMomentum)
			assert.Nil(t, rows[i].RollingSentiment3)
			assert.Nil(t, rows[i].NewsCount)
		}
	})

	t.Run("momentum and rolling mean", func(t *testing.T) {
		records := seriesFromCloses(base, []float64{100, 101, 102, 103})
		scores := []float64{0.2, 0.4, 0.1, 0.3}
		for i := range records {
			records[i].SentimentScore = &scores[i]
		}

		rows, err := svc.Engineer(context.Background(), "AAPL", records)
		require.NoError(t, err)

		assert.Nil(t, rows[0].SentimentMomentum)
		require.NotNil(t, rows[1].SentimentMomentum)
		assert.InDelta(t, 0.2, *rows[1].SentimentMomentum, 1e-12)

		assert.Nil(t, rows[1].RollingSentiment3)
		require.NotNil(t, rows[2].RollingSentiment3)
		assert.InDelta(t, (0.2+0.4+0.1)/3, *rows[2].RollingSentiment3, 1e-12)
	})

	t.Run("news presence flag", func(t *testing.T) {
		records := seriesFromCloses(base, []float64{100, 101, 102})
		text := "Apple beats estimates. Shares rally."
		blank := "   "
		records[0].Text = &text
		records[1].Text = &blank

		rows, err := svc.Engineer(context.Background(), "AAPL", records)
		require.NoError(t, err)

		require.NotNil(t, rows[0].NewsCount)
		assert.Equal(t, 1.0, *rows[0].NewsCount)
		require.NotNil(t, rows[1].NewsCount)
		assert.Equal(t, 0.0, *rows[1].NewsCount)
		require.NotNil(t, rows[2].NewsCount)
		assert.Equal(t, 0.0, *rows[2].NewsCount)
	})
}

func TestEngineerTemporalFeatures(t *testing.T) {
	svc := NewFeatureEngineeringService(testLogger(t), nil)
	// 2024-02-28 is a Wednesday; 2024-02-29 is a leap month end.
	records := seriesFromCloses(entity.NewDate(2024, time.February, 28), []float64{100, 101})

	rows, err := svc.Engineer(context.Background(), "AAPL", records)
	require.NoError(t, err)

	assert.Equal(t, 2.0, *rows[0].DayOfWeek)
	assert.Equal(t, 2.0, *rows[0].Month)
	assert.Equal(t, 1.0, *rows[0].Quarter)
	assert.Equal(t, 0.0, *rows[0].IsMonthEnd)
	assert.Equal(t, 1.0, *rows[1].IsMonthEnd)
}

func TestEngineerPlaceholderRows(t *testing.T) {
	svc := NewFeatureEngineeringService(testLogger(t), nil)
	base := entity.NewDate(2024, time.January, 1)
	records := seriesFromCloses(base, []float64{100, 101, 102})
	// make the middle row a weekend-style placeholder
	records[1] = entity.NewPlaceholder(base.AddDays(1))

	rows, err := svc.Engineer(context.Background(), "AAPL", records)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// placeholder still gets calendar features
	require.NotNil(t, rows[1].DayOfWeek)
	// lag of the placeholder's nil close is undefined on the next row
	assert.Nil(t, rows[2].Lag1Close)
	// but the placeholder's own lag sees the prior observation
	require.NotNil(t, rows[1].Lag1Close)
	assert.Equal(t, 100.0, *rows[1].Lag1Close)
}

func TestEngineerDeterminism(t *testing.T) {
	svc := NewFeatureEngineeringService(testLogger(t), nil)
	base := entity.NewDate(2024, time.January, 1)
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i%7)*3.5
	}
	records := seriesFromCloses(base, closes)

	first, err := svc.Engineer(context.Background(), "AAPL", records)
	require.NoError(t, err)
	second, err := svc.Engineer(context.Background(), "AAPL", records)
	require.NoError(t, err)

	require.True(t, reflect.DeepEqual(first, second), "engineering must be deterministic")
}

func TestEngineerInputValidation(t *testing.T) {
	svc := NewFeatureEngineeringService(testLogger(t), nil)
	base := entity.NewDate(2024, time.January, 1)

	t.Run("empty series", func(t *testing.T) {
		_, err := svc.Engineer(context.Background(), "AAPL", nil)
		assert.Error(t, err)
	})

	t.Run("duplicate dates", func(t *testing.T) {
		records := seriesFromCloses(base, []float64{100, 101})
		records[1].Date = records[0].Date

		_, err := svc.Engineer(context.Background(), "AAPL", records)
		assert.Error(t, err)
	})

	t.Run("input not mutated", func(t *testing.T) {
		records := seriesFromCloses(base, []float64{100, 101, 102})
		snapshot := make([]entity.DailyRecord, len(records))
		copy(snapshot, records)

		_, err := svc.Engineer(context.Background(), "AAPL", records)
		require.NoError(t, err)
		assert.True(t, reflect.DeepEqual(snapshot, records))
	})
}

func intPtr(v int) *int { return &v }
