package tracker

import "github.com/m-lab/fetchbench/pkg/fetchbench/spec"

// Rate tracks the fraction of true samples.
type Rate struct {
	passes int64
	total  int64
}

// Add records one boolean sample.
func (r *Rate) Add(ok bool) {
	r.total++
	if ok {
		r.passes++
	}
}

// Rate returns passes/total, or 0 if there are no samples.
func (r *Rate) Rate() float64 {
	if r.total == 0 {
		return 0
	}
	return float64(r.passes) / float64(r.total)
}

// Values returns the summary statistics keyed by name.
func (r *Rate) Values() map[string]float64 {
	return map[string]float64{
		spec.ValueRate: r.Rate(),
		spec.ValuePass: float64(r.passes),
		spec.ValueFail: float64(r.total - r.passes),
	}
}

// Counter sums samples.
type Counter struct {
	sum float64
}

// Add adds v to the counter.
func (c *Counter) Add(v float64) {
	c.sum += v
}

// Sum returns the total.
func (c *Counter) Sum() float64 {
	return c.sum
}

// Values returns the total and its rate per second over elapsedSeconds.
func (c *Counter) Values(elapsedSeconds float64) map[string]float64 {
	rate := 0.0
	if elapsedSeconds > 0 {
		rate = c.sum / elapsedSeconds
	}
	return map[string]float64{
		spec.ValueCount: c.sum,
		spec.ValueRate:  rate,
	}
}
