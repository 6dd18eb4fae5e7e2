package indicator

// rsi computes the Relative Strength Index using Wilder's smoothing method.
// The first `window` price changes seed the average gain/loss via a plain
// mean; every later update is O(1) Wilder smoothing.
type rsi struct {
	window    int
	count     int // prices seen, not changes
	prevClose float64
	avgGain   float64
	avgLoss   float64
	current   float64
}

func newRSI(window int) *rsi {
	return &rsi{window: window}
}

func (r *rsi) update(price float64) {
	r.count++

	if r.count == 1 {
		// First close — no change to measure yet
		r.prevClose = price
		return
	}

	delta := price - r.prevClose
	r.prevClose = price

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	if r.count <= r.window+1 {
		// Accumulation phase: build the initial averages
		r.avgGain += gain
		r.avgLoss += loss

		if r.count == r.window+1 {
			r.avgGain /= float64(r.window)
			r.avgLoss /= float64(r.window)
			r.current = rsiFromAverages(r.avgGain, r.avgLoss)
		}
		return
	}

	// Wilder smoothing: avg = (prevAvg*(window-1) + x) / window
	w := float64(r.window)
	r.avgGain = (r.avgGain*(w-1) + gain) / w
	r.avgLoss = (r.avgLoss*(w-1) + loss) / w
	r.current = rsiFromAverages(r.avgGain, r.avgLoss)
}

func (r *rsi) ready() bool { return r.count > r.window }

func (r *rsi) value() float64 { return r.current }

// rsiFromAverages maps average gain/loss to the bounded [0,100] oscillator.
// Saturates at 100 when there were no losses in the window.
func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
