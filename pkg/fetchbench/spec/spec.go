// Package spec contains constants shared by the fetchbench harness and the
// report aggregator.
package spec

import "time"

const (
	// MiB is the number of bytes in a mebibyte. Throughput is reported in
	// MB/s using this unit, and range sizes are labelled in whole MiB.
	MiB = 1 << 20

	// DefaultMaxContentSize is the upper bound for random range offsets
	// (32 GiB). A range of size R always starts within [0, max-R].
	DefaultMaxContentSize = 32 << 30

	// TimeoutPerWorker is multiplied by the concurrency level to obtain the
	// default run timeout.
	TimeoutPerWorker = time.Hour

	// ArtifactExtension is the file extension of run artifacts.
	ArtifactExtension = ".json"

	// TimestampFormat is the ISO-8601 format used in artifact filenames.
	TimestampFormat = "2006-01-02T15:04:05.000Z"
)

const (
	// RangeScenario is the scenario name conventionally used for ranged runs.
	RangeScenario = "range-requests"
	// FullFetchScenario is the scenario name for whole-object runs.
	FullFetchScenario = "full-fetch"
)

// Endpoint identifies one side of a paired fetch.
type Endpoint string

const (
	// EndpointPrimary is always fetched.
	EndpointPrimary = Endpoint("primary")
	// EndpointReference is fetched only when a reference URL is configured.
	EndpointReference = Endpoint("reference")
)

// Endpoints lists both sides in report order.
var Endpoints = []Endpoint{EndpointPrimary, EndpointReference}

// Label returns the protocol label used in CSV reports.
func (e Endpoint) Label() string {
	switch e {
	case EndpointPrimary:
		return "Primary"
	case EndpointReference:
		return "Reference"
	}
	return string(e)
}

// Metric name prefixes. The full name of a per-endpoint metric is the prefix
// followed by the endpoint, e.g. "ttfb_primary".
const (
	MetricTime         = "time_"
	MetricTTFB         = "ttfb_"
	MetricThroughput   = "megabytes_per_second_"
	MetricSuccess      = "success_"
	MetricDataReceived = "data_received_"
	MetricErrors       = "errors_"

	// MetricTimeDelta and MetricTTFBDelta hold primary minus reference.
	MetricTimeDelta = "time_delta"
	MetricTTFBDelta = "ttfb_delta"

	// LatencyMetric is the prefix of the trend reported in the Latency
	// columns of the CSV report.
	LatencyMetric = MetricTTFB
)

// MetricName returns the name of the per-endpoint metric with prefix p.
func MetricName(p string, e Endpoint) string {
	return p + string(e)
}

// Metric types, matching the summary format of common load-testing tools.
const (
	TypeTrend   = "trend"
	TypeRate    = "rate"
	TypeCounter = "counter"

	ContainsTime    = "time"
	ContainsData    = "data"
	ContainsDefault = "default"
)

// Keys of the values map of a Metric.
const (
	ValueCount = "count"
	ValueAvg   = "avg"
	ValueMin   = "min"
	ValueMed   = "med"
	ValueMax   = "max"
	ValueP90   = "p(90)"
	ValueP95   = "p(95)"
	ValueRate  = "rate"
	ValuePass  = "passes"
	ValueFail  = "fails"
)
