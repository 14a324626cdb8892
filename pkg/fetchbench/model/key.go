package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/m-lab/fetchbench/pkg/fetchbench/spec"
)

// ErrInvalidFilename is returned when an artifact filename does not start
// with "<concurrency>vu_".
var ErrInvalidFilename = errors.New("invalid artifact filename")

// filenameRe matches the parameters encoded at the start of an artifact name.
var filenameRe = regexp.MustCompile(`^(\d+)vu_(?:(\d+)B_)?`)

// RunKey identifies a run. It is attached to every RunArtifact and the
// artifact's filename is derived from it.
type RunKey struct {
	// Scenario is the name of the test shape, e.g. "range-requests".
	Scenario string
	// Concurrency is the number of simultaneous workers.
	Concurrency int
	// RangeBytes is the size of each ranged request. Zero means the run
	// fetched whole objects.
	RangeBytes int64 `json:",omitempty"`
	// Timestamp is the formatted start time used in the filename.
	Timestamp string
}

// HasRange reports whether the run used ranged requests.
func (k RunKey) HasRange() bool {
	return k.RangeBytes > 0
}

// Filename returns <concurrency>vu_[<rangeBytes>B_]<timestamp>.json.
func (k RunKey) Filename() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(k.Concurrency))
	b.WriteString("vu_")
	if k.HasRange() {
		b.WriteString(strconv.FormatInt(k.RangeBytes, 10))
		b.WriteString("B_")
	}
	b.WriteString(k.Timestamp)
	b.WriteString(spec.ArtifactExtension)
	return b.String()
}

// ScenarioLabel returns the scenario name, with the range size appended in
// whole mebibytes for ranged runs.
func (k RunKey) ScenarioLabel() string {
	if !k.HasRange() {
		return k.Scenario
	}
	return fmt.Sprintf("%s %d MiB", k.Scenario, k.RangeBytes/spec.MiB)
}

// ParseFilename extracts concurrency, range size and timestamp from an
// artifact filename. The scenario is not part of the filename and is left
// empty.
func ParseFilename(name string) (RunKey, error) {
	m := filenameRe.FindStringSubmatch(name)
	if m == nil {
		return RunKey{}, fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	concurrency, err := strconv.Atoi(m[1])
	if err != nil {
		return RunKey{}, fmt.Errorf("%w: %q: %v", ErrInvalidFilename, name, err)
	}
	key := RunKey{Concurrency: concurrency}
	if m[2] != "" {
		key.RangeBytes, err = strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return RunKey{}, fmt.Errorf("%w: %q: %v", ErrInvalidFilename, name, err)
		}
	}
	key.Timestamp = strings.TrimSuffix(name[len(m[0]):], spec.ArtifactExtension)
	return key, nil
}

// Less orders keys by concurrency, then range size. Keys without a range
// size sort before keys with one at equal concurrency.
func (k RunKey) Less(o RunKey) bool {
	if k.Concurrency != o.Concurrency {
		return k.Concurrency < o.Concurrency
	}
	if k.HasRange() != o.HasRange() {
		return !k.HasRange()
	}
	return k.RangeBytes < o.RangeBytes
}
