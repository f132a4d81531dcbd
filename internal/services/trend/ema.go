package trend

import "math"

// EMA is the exponential moving average with alpha = 2/(span+1), seeded with
// the first value and without bias correction.
func EMA(values []float64, span int) []float64 {
	if len(values) == 0 {
		return nil
	}
	if span < 1 {
		span = 1
	}
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// SlopeDegrees returns atan2(v[i]-v[i-lookback], lookback) in degrees, and 0
// for i < lookback. The result depends on the price scale of v.
func SlopeDegrees(values []float64, lookback int) []float64 {
	out := make([]float64, len(values))
	if lookback < 1 {
		return out
	}
	run := float64(lookback)
	for i := lookback; i < len(values); i++ {
		out[i] = math.Atan2(values[i]-values[i-lookback], run) * 180 / math.Pi
	}
	return out
}
