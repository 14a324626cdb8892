package client

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/m-lab/fetchbench/pkg/fetchbench/model"
	"github.com/m-lab/fetchbench/pkg/fetchbench/spec"
)

// Emitter is an interface for emitting results.
type Emitter interface {
	// OnStart is called when the run starts.
	OnStart(key model.RunKey, endpoints []spec.Endpoint)
	// OnOutcome is called for every completed fetch. It may be called
	// concurrently.
	OnOutcome(o model.Outcome)
	// OnError is called on fetch errors.
	OnError(err error)
	// OnDebug is called to print debug information.
	OnDebug(msg string)
	// OnSummary is called once the run artifact is ready.
	OnSummary(artifact *model.RunArtifact)
}

// HumanReadable prints human-readable output to stdout.
// It can be configured to include debug output, too.
type HumanReadable struct {
	Debug bool
}

// OnStart prints the run parameters.
func (HumanReadable) OnStart(key model.RunKey, endpoints []spec.Endpoint) {
	fmt.Printf("Starting %s with %d workers (endpoints: %v)\n", key.ScenarioLabel(), key.Concurrency, endpoints)
}

// OnOutcome prints individual fetches in debug mode only.
func (e HumanReadable) OnOutcome(o model.Outcome) {
	if e.Debug {
		fmt.Printf("DEBUG: %s status=%d duration=%s ttfb=%s bytes=%d\n",
			o.Endpoint, o.Status, o.Duration, o.TTFB, o.BytesRead)
	}
}

// OnError is called on errors.
func (HumanReadable) OnError(err error) {
	fmt.Println(err)
}

// OnDebug is called to print debug information.
func (e HumanReadable) OnDebug(msg string) {
	if e.Debug {
		fmt.Printf("DEBUG: %s\n", msg)
	}
}

// OnSummary prints the text summary of the run.
func (HumanReadable) OnSummary(artifact *model.RunArtifact) {
	fmt.Println()
	WriteSummary(os.Stdout, artifact)
}

// WriteSummary writes one line per metric of artifact, sorted by name.
func WriteSummary(w io.Writer, artifact *model.RunArtifact) {
	fmt.Fprintf(w, "Test results (%s, %d workers):\n", artifact.Key.ScenarioLabel(), artifact.Key.Concurrency)
	names := make([]string, 0, len(artifact.Metrics))
	for name := range artifact.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}
	for _, name := range names {
		fmt.Fprintf(w, "  %s%s: %s\n", name, strings.Repeat(".", width-len(name)+3),
			formatMetric(artifact.Metrics[name]))
	}
}

func formatMetric(m model.Metric) string {
	v := m.Values
	switch m.Type {
	case spec.TypeTrend:
		unit := ""
		if m.Contains == spec.ContainsTime {
			unit = "ms"
		}
		keys := []string{spec.ValueAvg, spec.ValueMin, spec.ValueMed, spec.ValueMax, spec.ValueP90, spec.ValueP95}
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%.2f%s", k, v[k], unit))
		}
		return strings.Join(parts, " ")
	case spec.TypeRate:
		return fmt.Sprintf("%.2f%% ✓ %.0f ✗ %.0f", v[spec.ValueRate]*100, v[spec.ValuePass], v[spec.ValueFail])
	case spec.TypeCounter:
		unit := ""
		if m.Contains == spec.ContainsData {
			unit = " B"
		}
		return fmt.Sprintf("%.0f%s %.2f%s/s", v[spec.ValueCount], unit, v[spec.ValueRate], unit)
	default:
		return fmt.Sprint(v)
	}
}

// Checks that HumanReadable implements Emitter.
var _ Emitter = &HumanReadable{}
