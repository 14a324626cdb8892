package tracker

import (
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/m-lab/fetchbench/pkg/fetchbench/model"
	"github.com/m-lab/fetchbench/pkg/fetchbench/spec"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetchbench_fetch_duration_seconds",
			Help:    "Time to fully read a fetched response.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 24),
		},
		[]string{"endpoint"},
	)
	fetchTTFB = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetchbench_fetch_ttfb_seconds",
			Help:    "Time to first response byte.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 20),
		},
		[]string{"endpoint"},
	)
	fetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchbench_fetches_total",
			Help: "Number of completed fetches by endpoint and HTTP status.",
		},
		[]string{"endpoint", "status"},
	)
	bytesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchbench_received_bytes_total",
			Help: "Response body bytes received.",
		},
		[]string{"endpoint"},
	)
)

// message is either an outcome or a delta between a pair of outcomes.
type message struct {
	outcome *model.Outcome
	delta   *delta
}

type delta struct {
	time time.Duration
	ttfb time.Duration
}

// endpointTrackers are the trackers of one side of the comparison.
type endpointTrackers struct {
	time       *Trend
	ttfb       *Trend
	throughput *Trend
	success    *Rate
	received   *Counter
	errors     *Counter
}

// Aggregator owns every tracker of a run. Workers send outcomes to it over
// a channel; a single goroutine applies them, so no locking is needed on
// the trackers themselves.
type Aggregator struct {
	in   chan message
	done chan struct{}
	once sync.Once

	start     time.Time
	endpoints map[spec.Endpoint]*endpointTrackers
	timeDelta *Trend
	ttfbDelta *Trend
	withDelta bool

	elapsed time.Duration
}

// NewAggregator starts an Aggregator with trackers for the given endpoints.
// Delta trackers are only created when both endpoints are present. buffer
// is the capacity of the intake channel.
func NewAggregator(buffer int, endpoints ...spec.Endpoint) *Aggregator {
	a := &Aggregator{
		in:        make(chan message, buffer),
		done:      make(chan struct{}),
		start:     time.Now(),
		endpoints: map[spec.Endpoint]*endpointTrackers{},
	}
	for _, e := range endpoints {
		a.endpoints[e] = &endpointTrackers{
			time:       NewTimeTrend(),
			ttfb:       NewTimeTrend(),
			throughput: NewThroughputTrend(),
			success:    &Rate{},
			received:   &Counter{},
			errors:     &Counter{},
		}
	}
	_, hasPrimary := a.endpoints[spec.EndpointPrimary]
	_, hasReference := a.endpoints[spec.EndpointReference]
	if hasPrimary && hasReference {
		a.withDelta = true
		a.timeDelta = NewTimeTrend()
		a.ttfbDelta = NewTimeTrend()
	}
	go a.loop()
	return a
}

// Record sends o to the Aggregator. It must not be called after Snapshot.
func (a *Aggregator) Record(o model.Outcome) {
	a.in <- message{outcome: &o}
}

// RecordDelta records primary minus reference for duration and TTFB. It is
// a no-op unless both endpoints are tracked and both fetches got a
// response.
func (a *Aggregator) RecordDelta(primary, reference model.Outcome) {
	if !a.withDelta || !primary.Responded() || !reference.Responded() {
		return
	}
	a.in <- message{delta: &delta{
		time: primary.Duration - reference.Duration,
		ttfb: primary.TTFB - reference.TTFB,
	}}
}

func (a *Aggregator) loop() {
	defer close(a.done)
	for m := range a.in {
		switch {
		case m.outcome != nil:
			a.apply(m.outcome)
		case m.delta != nil:
			a.timeDelta.Add(model.Milliseconds(m.delta.time))
			a.ttfbDelta.Add(model.Milliseconds(m.delta.ttfb))
		}
	}
	a.elapsed = time.Since(a.start)
}

func (a *Aggregator) apply(o *model.Outcome) {
	t, ok := a.endpoints[o.Endpoint]
	if !ok {
		log.Warn("outcome for untracked endpoint", "endpoint", o.Endpoint)
		return
	}
	label := string(o.Endpoint)

	t.time.Add(model.Milliseconds(o.Duration))
	t.success.Add(o.Success())
	t.received.Add(float64(o.BytesRead))
	fetchDuration.WithLabelValues(label).Observe(o.Duration.Seconds())
	fetchTotal.WithLabelValues(label, strconv.Itoa(o.Status)).Inc()
	bytesReceived.WithLabelValues(label).Add(float64(o.BytesRead))

	if !o.Responded() {
		t.errors.Add(1)
		return
	}
	t.ttfb.Add(model.Milliseconds(o.TTFB))
	fetchTTFB.WithLabelValues(label).Observe(o.TTFB.Seconds())
	if mbps, ok := o.MegabytesPerSecond(); ok {
		t.throughput.Add(mbps)
	}
}

// Snapshot stops the intake, waits for pending messages to be applied and
// returns the summary of every tracker keyed by metric name.
func (a *Aggregator) Snapshot() map[string]model.Metric {
	a.once.Do(func() { close(a.in) })
	<-a.done

	seconds := a.elapsed.Seconds()
	metrics := map[string]model.Metric{}
	for e, t := range a.endpoints {
		metrics[spec.MetricName(spec.MetricTime, e)] = trendMetric(t.time, spec.ContainsTime)
		metrics[spec.MetricName(spec.MetricTTFB, e)] = trendMetric(t.ttfb, spec.ContainsTime)
		metrics[spec.MetricName(spec.MetricThroughput, e)] = trendMetric(t.throughput, spec.ContainsDefault)
		metrics[spec.MetricName(spec.MetricSuccess, e)] = model.Metric{
			Type:     spec.TypeRate,
			Contains: spec.ContainsDefault,
			Values:   t.success.Values(),
		}
		metrics[spec.MetricName(spec.MetricDataReceived, e)] = model.Metric{
			Type:     spec.TypeCounter,
			Contains: spec.ContainsData,
			Values:   t.received.Values(seconds),
		}
		metrics[spec.MetricName(spec.MetricErrors, e)] = model.Metric{
			Type:     spec.TypeCounter,
			Contains: spec.ContainsDefault,
			Values:   t.errors.Values(seconds),
		}
	}
	if a.withDelta {
		metrics[spec.MetricTimeDelta] = trendMetric(a.timeDelta, spec.ContainsTime)
		metrics[spec.MetricTTFBDelta] = trendMetric(a.ttfbDelta, spec.ContainsTime)
	}
	return metrics
}

func trendMetric(t *Trend, contains string) model.Metric {
	return model.Metric{
		Type:     spec.TypeTrend,
		Contains: contains,
		Values:   t.Values(),
	}
}
