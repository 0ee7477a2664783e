package service

import "math"

// Column helpers over nullable series. A nil entry is an undefined value;
// every helper propagates undefined-ness the way the offline feature build
// did: a window statistic is defined only when the whole window is.

func fptr(v float64) *float64 { return &v }

// shift lags a column by k rows. The first k outputs are undefined.
func shift(col []*float64, k int) []*float64 {
	out := make([]*float64, len(col))
	for i := k; i < len(col); i++ {
		out[i] = col[i-k]
	}
	return out
}

// sub returns a-b, or nil when either side is undefined.
func sub(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return fptr(*a - *b)
}

// div returns a/b, or nil when either side is undefined or b is zero.
func div(a, b *float64) *float64 {
	if a == nil || b == nil || *b == 0 {
		return nil
	}
	return fptr(*a / *b)
}

// rollingSum computes a trailing-window sum. Outputs are defined from row
// window-1 onward, and only where every value in the window is defined.
func rollingSum(col []*float64, window int) []*float64 {
	out := make([]*float64, len(col))
	for i := window - 1; i < len(col); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if col[j] == nil {
				ok = false
				break
			}
			sum += *col[j]
		}
		if ok {
			out[i] = fptr(sum)
		}
	}
	return out
}

// rollingMean computes a trailing-window simple moving average.
func rollingMean(col []*float64, window int) []*float64 {
	out := rollingSum(col, window)
	for i, v := range out {
		if v != nil {
			out[i] = fptr(*v / float64(window))
		}
	}
	return out
}

// rollingStd computes a trailing-window standard deviation with the given
// delta degrees of freedom (1 = sample, 0 = population).
func rollingStd(col []*float64, window, ddof int) []*float64 {
	out := make([]*float64, len(col))
	for i := window - 1; i < len(col); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if col[j] == nil {
				ok = false
				break
			}
			sum += *col[j]
		}
		if !ok {
			continue
		}
		mean := sum / float64(window)
		var ss float64
		for j := i - window + 1; j <= i; j++ {
			d := *col[j] - mean
			ss += d * d
		}
		out[i] = fptr(math.Sqrt(ss / float64(window-ddof)))
	}
	return out
}

// ewm computes a recursive exponential moving average with the given
// smoothing factor, seeded by the first defined observation. Undefined
// inputs produce undefined outputs and leave the recursion state
// untouched. Outputs stay undefined until minPeriods observations have
// been consumed.
func ewm(col []*float64, alpha float64, minPeriods int) []*float64 {
	out := make([]*float64, len(col))
	var state float64
	seeded := false
	seen := 0
	for i, v := range col {
		if v == nil {
			continue
		}
		seen++
		if !seeded {
			state = *v
			seeded = true
		} else {
			state = alpha**v + (1-alpha)*state
		}
		if seen >= minPeriods {
			out[i] = fptr(state)
		}
	}
	return out
}

// rsiColumn computes the relative strength index with Wilder smoothing
// over one-step differences of the column.
func rsiColumn(col []*float64, period int) []*float64 {
	n := len(col)
	gains := make([]*float64, n)
	losses := make([]*float64, n)
	for i := 1; i < n; i++ {
		if col[i] == nil || col[i-1] == nil {
			continue
		}
		d := *col[i] - *col[i-1]
		if d > 0 {
			gains[i] = fptr(d)
			losses[i] = fptr(0)
		} else {
			gains[i] = fptr(0)
			losses[i] = fptr(-d)
		}
	}

	alpha := 1.0 / float64(period)
	avgGain := ewm(gains, alpha, period)
	avgLoss := ewm(losses, alpha, period)

	out := make([]*float64, n)
	for i := 0; i < n; i++ {
		if avgGain[i] == nil || avgLoss[i] == nil {
			continue
		}
		if *avgLoss[i] == 0 {
			out[i] = fptr(100)
			continue
		}
		rs := *avgGain[i] / *avgLoss[i]
		out[i] = fptr(100 - 100/(1+rs))
	}
	return out
}
