package persistence_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/m-lab/fetchbench/internal/persistence"
	"github.com/m-lab/fetchbench/pkg/fetchbench/model"
	"github.com/m-lab/go/testingx"
)

func testArtifact(scenario string, rangeBytes int64) *model.RunArtifact {
	return &model.RunArtifact{
		RunID: "fake-uuid",
		Key: model.RunKey{
			Scenario:    scenario,
			Concurrency: 10,
			RangeBytes:  rangeBytes,
			Timestamp:   "2026-10-17T10:00:00.000Z",
		},
		PrimaryURL: "http://primary/",
		StartTime:  time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2026, 10, 17, 10, 1, 0, 0, time.UTC),
		Metrics: map[string]model.Metric{
			"success_primary": {Type: "rate", Contains: "default", Values: map[string]float64{"rate": 1}},
		},
	}
}

func TestWriteDataFile(t *testing.T) {
	dir := t.TempDir()
	testingx.Must(t, os.Mkdir(filepath.Join(dir, "range-requests"), 0o755), "cannot create scenario dir")

	artifact := testArtifact("range-requests", 10485760)
	df, err := persistence.WriteDataFile(dir, artifact)
	if err != nil {
		t.Fatalf("cannot write datafile: %v", err)
	}

	want := filepath.Join(dir, "range-requests", "10vu_10485760B_2026-10-17T10:00:00.000Z.json")
	if df.Path != want {
		t.Errorf("invalid output path: %s, want %s", df.Path, want)
	}
	if df.Prefix != dir || df.Scenario != "range-requests" {
		t.Errorf("invalid field values in DataFile: %+v", df)
	}
	content, err := os.ReadFile(df.Path)
	testingx.Must(t, err, "cannot read datafile")
	if df.Size != len(content) {
		t.Errorf("invalid Size: %d (should be %d)", df.Size, len(content))
	}

	got, err := persistence.ReadDataFile(df.Path)
	testingx.Must(t, err, "cannot read back datafile")
	if diff := cmp.Diff(artifact, got); diff != "" {
		t.Errorf("ReadDataFile() mismatch (-want +got):\n%s", diff)
	}

	t.Run("existing file is not overwritten", func(t *testing.T) {
		_, err := persistence.WriteDataFile(dir, artifact)
		if !errors.Is(err, fs.ErrExist) {
			t.Errorf("WriteDataFile() error = %v, want ErrExist", err)
		}
	})
}

func TestWriteDataFile_MissingDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := persistence.WriteDataFile(dir, testArtifact("full-fetch", 0))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("WriteDataFile() error = %v, want ErrNotExist", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "full-fetch")); err == nil {
		t.Errorf("WriteDataFile() must not create the scenario directory")
	}
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2026, 10, 17, 12, 30, 45, 123456789, time.FixedZone("X", 3600))
	if got := persistence.Timestamp("", ts); got != "2026-10-17T11:30:45.123Z" {
		t.Errorf("Timestamp() = %s", got)
	}
	if got := persistence.Timestamp("fixed", ts); got != "fixed" {
		t.Errorf("Timestamp() with override = %s", got)
	}
}
