package model

import (
	"time"

	"github.com/m-lab/fetchbench/pkg/fetchbench/spec"
)

// Metric is the summary of one tracker at the end of a run.
type Metric struct {
	// Type is one of "trend", "rate" or "counter".
	Type string `json:"type"`
	// Contains describes the unit of the values ("time", "data" or
	// "default").
	Contains string `json:"contains"`
	// Values holds the computed statistics, keyed by name (e.g. "avg",
	// "p(90)", "rate").
	Values map[string]float64 `json:"values"`
}

// RunArtifact is the struct serialized as JSON to disk at the end of a run.
type RunArtifact struct {
	// GitShortCommit is the Git commit (short form) of the running code.
	GitShortCommit string
	// Version is the symbolic version (if any) of the running code.
	Version string
	// RunID is the unique identifier of this run.
	RunID string

	// Key holds the parameters the artifact's path is derived from.
	Key RunKey

	// PrimaryURL and ReferenceURL are the endpoint URL prefixes. An empty
	// ReferenceURL means only the primary endpoint was fetched.
	PrimaryURL   string
	ReferenceURL string `json:",omitempty"`

	// StartTime and EndTime delimit the run.
	StartTime time.Time
	EndTime   time.Time

	// Metrics maps metric names (see spec.MetricName) to their summary.
	Metrics map[string]Metric `json:"metrics"`
}

// HasEndpoint reports whether the artifact carries metrics for e.
func (a *RunArtifact) HasEndpoint(e spec.Endpoint) bool {
	_, ok := a.Metrics[spec.MetricName(spec.MetricTime, e)]
	return ok
}
