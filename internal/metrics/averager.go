package metrics

import "math"

// Averager is an exponentially-weighted moving average of a byte rate,
// ported from the original throughput smoothing filter: each update blends
// the instantaneous rate over the elapsed interval into a smoothed
// bytes-per-second figure with time constant Tau.
type Averager struct {
	tauSecs     float64
	smoothedBps float64
}

// NewAverager returns an Averager with the given smoothing time constant.
func NewAverager(tauSecs float64) *Averager {
	return &Averager{tauSecs: tauSecs}
}

// Update folds bytesDelta observed over dtSecs into the smoothed rate and
// returns the updated value. dtSecs <= 0 is a no-op that returns the
// current smoothed rate unchanged.
func (a *Averager) Update(bytesDelta int64, dtSecs float64) float64 {
	if dtSecs <= 0 {
		return a.smoothedBps
	}
	instantaneous := float64(bytesDelta) / dtSecs
	alpha := 1 - math.Exp(-dtSecs/a.tauSecs)
	a.smoothedBps += alpha * (instantaneous - a.smoothedBps)
	return a.smoothedBps
}

// Bps returns the current smoothed bytes-per-second value.
func (a *Averager) Bps() float64 {
	return a.smoothedBps
}
