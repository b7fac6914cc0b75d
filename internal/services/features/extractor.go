package features

import (
	"math"

	"SentiPull/internal/domain/models"
)

// Windows holds the rolling-window sizes for every indicator.
type Windows struct {
	SMA        int
	RSI        int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	Bollinger  int
}

// DefaultWindows are the conventional parameterizations.
func DefaultWindows() Windows {
	return Windows{SMA: 20, RSI: 14, MACDFast: 12, MACDSlow: 26, MACDSignal: 9, Bollinger: 20}
}

// Extractor computes rolling technical indicators over a daily price
// series. It is a pure computation; no I/O, no shared state.
type Extractor struct {
	w Windows
}

// New creates an extractor, falling back to defaults for any
// non-positive window.
func New(w Windows) *Extractor {
	d := DefaultWindows()
	if w.SMA <= 0 {
		w.SMA = d.SMA
	}
	if w.RSI <= 0 {
		w.RSI = d.RSI
	}
	if w.MACDFast <= 0 {
		w.MACDFast = d.MACDFast
	}
	if w.MACDSlow <= 0 {
		w.MACDSlow = d.MACDSlow
	}
	if w.MACDSignal <= 0 {
		w.MACDSignal = d.MACDSignal
	}
	if w.Bollinger <= 0 {
		w.Bollinger = d.Bollinger
	}
	return &Extractor{w: w}
}

// warmup returns the index of the first row where every indicator has a
// full window. Rows before it are dropped from the output.
func (e *Extractor) warmup() int {
	first := e.w.SMA - 1
	if v := e.w.RSI; v > first {
		first = v
	}
	if v := e.w.Bollinger - 1; v > first {
		first = v
	}
	if v := e.w.MACDSlow + e.w.MACDSignal - 2; v > first {
		first = v
	}
	return first
}

// Compute derives the indicator table for series. Rows lacking a full
// window for any indicator are dropped, so early trading days of a
// short series never surface as partial rows. The Sentiment column is
// left zero; the merge stage fills it.
func (e *Extractor) Compute(series *models.PriceSeries) []models.FeatureRow {
	n := series.Len()
	first := e.warmup()
	if n <= first {
		return []models.FeatureRow{}
	}

	closes := make([]float64, n)
	for i, p := range series.Points {
		closes[i] = p.Close
	}

	sma := rollingMean(closes, e.w.SMA)
	stddev := rollingStdDev(closes, e.w.Bollinger)
	bollMean := sma
	if e.w.Bollinger != e.w.SMA {
		bollMean = rollingMean(closes, e.w.Bollinger)
	}
	rsi := relativeStrengthIndex(closes, e.w.RSI)
	macd, signal := macdLines(closes, e.w.MACDFast, e.w.MACDSlow, e.w.MACDSignal)

	rows := make([]models.FeatureRow, 0, n-first)
	for i := first; i < n; i++ {
		p := series.Points[i]
		rows = append(rows, models.FeatureRow{
			Date:          p.Date,
			Open:          p.Open,
			High:          p.High,
			Low:           p.Low,
			Close:         p.Close,
			Volume:        p.Volume,
			SMA:           sma[i],
			RSI:           rsi[i],
			MACD:          macd[i],
			MACDSignal:    signal[i],
			BollingerUp:   bollMean[i] + 2*stddev[i],
			BollingerDown: bollMean[i] - 2*stddev[i],
		})
	}
	return rows
}

// rollingMean returns the window-mean aligned to the input; entries
// before a full window are zero.
func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// rollingStdDev returns the population standard deviation per window.
func rollingStdDev(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
		}
		mean := sum / float64(window)
		varSum := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mean
			varSum += d * d
		}
		out[i] = math.Sqrt(varSum / float64(window))
	}
	return out
}

// relativeStrengthIndex computes RSI = 100 - 100/(1+RS) where RS is the
// windowed mean gain over the windowed mean absolute loss. A zero loss
// mean yields RSI 100 rather than a division fault.
func relativeStrengthIndex(closes []float64, window int) []float64 {
	out := make([]float64, len(closes))
	for i := window; i < len(closes); i++ {
		gains, losses := 0.0, 0.0
		for j := i - window + 1; j <= i; j++ {
			delta := closes[j] - closes[j-1]
			if delta > 0 {
				gains += delta
			} else {
				losses += -delta
			}
		}
		if losses == 0 {
			out[i] = 100
			continue
		}
		rs := (gains / float64(window)) / (losses / float64(window))
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// ema computes an exponential moving average seeded with the simple
// mean of the first window values; entries before the seed are zero.
func ema(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if len(values) < window {
		return out
	}
	sum := 0.0
	for i := 0; i < window; i++ {
		sum += values[i]
	}
	out[window-1] = sum / float64(window)
	k := 2.0 / (float64(window) + 1)
	for i := window; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// macdLines returns the MACD line (fast EMA minus slow EMA) and its
// signal line (EMA of the MACD), each aligned to the input.
func macdLines(closes []float64, fast, slow, signalWindow int) (macd, signal []float64) {
	macd = make([]float64, len(closes))
	signal = make([]float64, len(closes))
	if len(closes) < slow {
		return macd, signal
	}

	emaFast := ema(closes, fast)
	emaSlow := ema(closes, slow)
	for i := slow - 1; i < len(closes); i++ {
		macd[i] = emaFast[i] - emaSlow[i]
	}

	// Signal line starts once signalWindow MACD values exist.
	start := slow - 1
	if len(closes)-start < signalWindow {
		return macd, signal
	}
	seed := 0.0
	for i := start; i < start+signalWindow; i++ {
		seed += macd[i]
	}
	idx := start + signalWindow - 1
	signal[idx] = seed / float64(signalWindow)
	k := 2.0 / (float64(signalWindow) + 1)
	for i := idx + 1; i < len(closes); i++ {
		signal[i] = macd[i]*k + signal[i-1]*(1-k)
	}
	return macd, signal
}
