package report

import (
	"errors"
	"fmt"

	"github.com/m-lab/fetchbench/pkg/fetchbench/model"
	"github.com/m-lab/fetchbench/pkg/fetchbench/spec"
)

// ErrMissingMetric is returned when an artifact lacks a metric needed for
// the primary row.
var ErrMissingMetric = errors.New("missing metric")

// Project flattens an artifact into one row per endpoint present in it. The
// primary row is always emitted; the reference row is omitted when the run
// had no reference endpoint.
//
// The artifact's own key takes precedence over the key parsed from the
// filename; the latter fills fields the artifact leaves empty.
func Project(f File, artifact *model.RunArtifact) ([]model.ReportRow, error) {
	key := mergeKey(artifact.Key, f.Key)

	rows := make([]model.ReportRow, 0, len(spec.Endpoints))
	for _, e := range spec.Endpoints {
		if e != spec.EndpointPrimary && !artifact.HasEndpoint(e) {
			continue
		}
		row, err := projectEndpoint(key, e, artifact.Metrics)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func mergeKey(fromArtifact, fromFile model.RunKey) model.RunKey {
	k := fromArtifact
	if k.Scenario == "" {
		k.Scenario = fromFile.Scenario
	}
	if k.Concurrency == 0 {
		k.Concurrency = fromFile.Concurrency
	}
	if k.RangeBytes == 0 {
		k.RangeBytes = fromFile.RangeBytes
	}
	if k.Timestamp == "" {
		k.Timestamp = fromFile.Timestamp
	}
	return k
}

func projectEndpoint(key model.RunKey, e spec.Endpoint, metrics map[string]model.Metric) (model.ReportRow, error) {
	latency, err := lookup(metrics, spec.MetricName(spec.LatencyMetric, e))
	if err != nil {
		return model.ReportRow{}, err
	}
	bandwidth, err := lookup(metrics, spec.MetricName(spec.MetricThroughput, e))
	if err != nil {
		return model.ReportRow{}, err
	}
	success, err := lookup(metrics, spec.MetricName(spec.MetricSuccess, e))
	if err != nil {
		return model.ReportRow{}, err
	}
	return model.ReportRow{
		Protocol:    e.Label(),
		Scenario:    key.ScenarioLabel(),
		Concurrency: key.Concurrency,

		LatencyAvg: latency[spec.ValueAvg],
		LatencyMin: latency[spec.ValueMin],
		LatencyMed: latency[spec.ValueMed],
		LatencyMax: latency[spec.ValueMax],
		LatencyP90: latency[spec.ValueP90],
		LatencyP95: latency[spec.ValueP95],

		BandwidthAvg: bandwidth[spec.ValueAvg],
		BandwidthMin: bandwidth[spec.ValueMin],
		BandwidthMed: bandwidth[spec.ValueMed],
		BandwidthMax: bandwidth[spec.ValueMax],
		BandwidthP90: bandwidth[spec.ValueP90],
		BandwidthP95: bandwidth[spec.ValueP95],

		SuccessRate: success[spec.ValueRate],
	}, nil
}

func lookup(metrics map[string]model.Metric, name string) (map[string]float64, error) {
	m, ok := metrics[name]
	if !ok || m.Values == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingMetric, name)
	}
	return m.Values, nil
}
