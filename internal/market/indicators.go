package market

import (
	"math"

	"fingreat/internal/types"
)

// SMA is the mean of the last n closes; NaN when there are fewer than n.
func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, c := range closes[len(closes)-n:] {
		sum += c
	}
	return sum / float64(n)
}

// RSI over the last period changes, simple averages.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	gain, loss := 0.0, 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100
	}
	return 100 - 100/(1+gain/loss)
}

// ATR averages the true range over the last period candles.
func ATR(cs []types.Candle, period int) float64 {
	if len(cs) < period+1 || period <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(cs) - period; i < len(cs); i++ {
		prev := cs[i-1].Close
		sum += math.Max(cs[i].High-cs[i].Low, math.Max(math.Abs(cs[i].High-prev), math.Abs(cs[i].Low-prev)))
	}
	return sum / float64(period)
}

func Closes(cs []types.Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}
