// Package tracker implements the statistical accumulators used by the
// harness and the Aggregator that owns them for the duration of a run.
package tracker

import (
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/codahale/hdrhistogram"
	"github.com/m-lab/fetchbench/pkg/fetchbench/spec"
)

const (
	// significantFigures is the precision kept by every histogram.
	significantFigures = 3

	// maxSampleDuration bounds time samples. Longer samples are clamped.
	maxSampleDuration = 24 * time.Hour
	// maxThroughput bounds throughput samples, in MB/s.
	maxThroughput = 1e6

	// Time samples are reported in milliseconds and recorded in
	// microseconds; throughput is recorded in thousandths of a MB/s.
	microsecondsPerMillisecond = 1000
	throughputResolution       = 1000
)

// Trend accumulates samples and reports their distribution. Samples are
// recorded into HDR histograms at a fixed resolution: negative samples go
// to a second histogram holding their magnitudes. It is not safe for
// concurrent use: the Aggregator is its only writer.
type Trend struct {
	// scale converts a reported value into a recorded integer.
	scale   float64
	highest int64

	pos *hdrhistogram.Histogram
	neg *hdrhistogram.Histogram
}

// NewTrend returns an empty Trend whose samples are recorded as
// round(v*scale) and clamped to [-highest, highest] reported units.
func NewTrend(scale, highest float64) *Trend {
	h := int64(highest * scale)
	return &Trend{
		scale:   scale,
		highest: h,
		pos:     hdrhistogram.New(1, h, significantFigures),
	}
}

// NewTimeTrend returns a Trend of millisecond samples with microsecond
// resolution.
func NewTimeTrend() *Trend {
	return NewTrend(microsecondsPerMillisecond, float64(maxSampleDuration.Milliseconds()))
}

// NewThroughputTrend returns a Trend of MB/s samples.
func NewThroughputTrend() *Trend {
	return NewTrend(throughputResolution, maxThroughput)
}

// Add records one sample.
func (t *Trend) Add(v float64) {
	x := int64(math.Round(math.Abs(v) * t.scale))
	if x > t.highest {
		x = t.highest
	}
	h := t.pos
	if v < 0 && x > 0 {
		if t.neg == nil {
			t.neg = hdrhistogram.New(1, t.highest, significantFigures)
		}
		h = t.neg
	}
	if err := h.RecordValue(x); err != nil {
		log.Warn("Dropped trend sample", "value", v, "err", err)
	}
}

func (t *Trend) negCount() int64 {
	if t.neg == nil {
		return 0
	}
	return t.neg.TotalCount()
}

// Count returns the number of samples.
func (t *Trend) Count() int {
	return int(t.pos.TotalCount() + t.negCount())
}

// Avg returns the mean, or 0 if there are no samples.
func (t *Trend) Avg() float64 {
	np, nn := t.pos.TotalCount(), t.negCount()
	if np+nn == 0 {
		return 0
	}
	sum := t.pos.Mean() * float64(np)
	if nn > 0 {
		sum -= t.neg.Mean() * float64(nn)
	}
	return sum / float64(np+nn) / t.scale
}

// Min returns the smallest sample, or 0 if there are no samples.
func (t *Trend) Min() float64 {
	if t.negCount() > 0 {
		return -float64(t.neg.Max()) / t.scale
	}
	if t.pos.TotalCount() == 0 {
		return 0
	}
	return float64(t.pos.Min()) / t.scale
}

// Max returns the largest sample, or 0 if there are no samples.
func (t *Trend) Max() float64 {
	if t.pos.TotalCount() > 0 {
		return float64(t.pos.Max()) / t.scale
	}
	if t.negCount() > 0 {
		return -float64(t.neg.Min()) / t.scale
	}
	return 0
}

// Percentile returns the p-th percentile (0 < p <= 100), or 0 if there are
// no samples.
func (t *Trend) Percentile(p float64) float64 {
	np, nn := t.pos.TotalCount(), t.negCount()
	switch {
	case np+nn == 0:
		return 0
	case nn == 0:
		return float64(t.pos.ValueAtQuantile(p)) / t.scale
	}
	// Same rank rule as ValueAtQuantile, applied across both histograms.
	rank := max(int64(p/100*float64(np+nn)+0.5), 1)
	if rank <= nn {
		// The rank-th smallest sample is the (nn-rank+1)-th largest
		// magnitude among the negative ones.
		return -float64(valueAtRank(t.neg, nn-rank+1)) / t.scale
	}
	return float64(valueAtRank(t.pos, rank-nn)) / t.scale
}

// valueAtRank returns the highest equivalent value of the rank-th smallest
// sample recorded in h.
func valueAtRank(h *hdrhistogram.Histogram, rank int64) int64 {
	var seen int64
	for _, b := range h.Distribution() {
		seen += b.Count
		if seen >= rank {
			return b.To
		}
	}
	return h.Max()
}

// Med returns the median.
func (t *Trend) Med() float64 {
	return t.Percentile(50)
}

// Values returns the summary statistics keyed by name.
func (t *Trend) Values() map[string]float64 {
	return map[string]float64{
		spec.ValueCount: float64(t.Count()),
		spec.ValueAvg:   t.Avg(),
		spec.ValueMin:   t.Min(),
		spec.ValueMed:   t.Med(),
		spec.ValueMax:   t.Max(),
		spec.ValueP90:   t.Percentile(90),
		spec.ValueP95:   t.Percentile(95),
	}
}
