package indicator

// sma computes a simple moving average over a rolling window.
// Uses a preallocated circular buffer so each update is O(1).
type sma struct {
	window int
	buf    []float64 // circular buffer of the trailing window closes
	idx    int       // current write position
	count  int       // total values received
	sum    float64
}

func newSMA(window int) *sma {
	return &sma{
		window: window,
		buf:    make([]float64, window),
	}
}

func (s *sma) update(price float64) {
	if s.count >= s.window {
		// Subtract the oldest value being overwritten
		s.sum -= s.buf[s.idx]
	}
	s.buf[s.idx] = price
	s.sum += price
	s.idx = (s.idx + 1) % s.window
	s.count++
}

func (s *sma) ready() bool { return s.count >= s.window }

func (s *sma) value() float64 { return s.sum / float64(s.window) }
