// Package persistence writes run artifacts to disk.
package persistence

import (
	"encoding/json"
	"os"
	"path"
	"time"

	"github.com/m-lab/fetchbench/pkg/fetchbench/model"
	"github.com/m-lab/fetchbench/pkg/fetchbench/spec"
)

// DataFile describes a written run artifact.
type DataFile struct {
	// Prefix is the output directory the artifact was written under.
	Prefix string
	// Scenario is the name of the subdirectory holding the artifact.
	Scenario string
	// Path is the full path of the artifact.
	Path string
	// Size is the number of bytes written.
	Size int
}

// Timestamp returns override if set, otherwise t formatted in UTC with
// millisecond precision.
func Timestamp(override string, t time.Time) string {
	if override != "" {
		return override
	}
	return t.UTC().Format(spec.TimestampFormat)
}

// ArtifactPath returns <outDir>/<scenario>/<key filename>.
func ArtifactPath(outDir string, key model.RunKey) string {
	return path.Join(outDir, key.Scenario, key.Filename())
}

// WriteDataFile writes artifact as indented JSON to the path derived from
// its key. The scenario directory must already exist; an existing file is
// never overwritten.
func WriteDataFile(outDir string, artifact *model.RunArtifact) (*DataFile, error) {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return nil, err
	}
	filepath := ArtifactPath(outDir, artifact.Key)
	fp, err := os.OpenFile(filepath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	n, err := fp.Write(data)
	if err != nil {
		fp.Close()
		return nil, err
	}
	if err := fp.Close(); err != nil {
		return nil, err
	}
	return &DataFile{
		Prefix:   outDir,
		Scenario: artifact.Key.Scenario,
		Path:     filepath,
		Size:     n,
	}, nil
}

// ReadDataFile reads a run artifact written by WriteDataFile.
func ReadDataFile(filepath string) (*model.RunArtifact, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	artifact := &model.RunArtifact{}
	if err := json.Unmarshal(data, artifact); err != nil {
		return nil, err
	}
	return artifact, nil
}
