// Package report turns a directory of run artifacts into a CSV report.
//
// The input root holds one subdirectory per scenario and, in each, one
// artifact per run. Scenarios are visited in lexical order. Within a
// scenario, artifacts are ordered by concurrency, then by range size, with
// range-less artifacts first at equal concurrency and the filename as final
// tie-breaker. The output therefore depends only on names and contents, not
// on directory listing order.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/m-lab/fetchbench/pkg/fetchbench/model"
)

// File is one run artifact and the key parsed from its filename.
type File struct {
	Path string
	Key  model.RunKey
}

// Scenario is a scenario directory and its artifacts in report order.
type Scenario struct {
	Name  string
	Files []File
}

// Locate lists the scenarios under root and sorts their artifacts. It fails
// on the first filename that does not encode a concurrency level.
func Locate(root string) ([]Scenario, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var scenarios []Scenario
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		files, err := locateFiles(filepath.Join(root, e.Name()), e.Name())
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, Scenario{Name: e.Name(), Files: files})
	}
	return scenarios, nil
}

func locateFiles(dir, scenario string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := []File{}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		key, err := model.ParseFilename(e.Name())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		key.Scenario = scenario
		files = append(files, File{Path: p, Key: key})
	}
	SortFiles(files)
	return files, nil
}

// SortFiles sorts files in report order.
func SortFiles(files []File) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.Key.Less(b.Key) {
			return true
		}
		if b.Key.Less(a.Key) {
			return false
		}
		return filepath.Base(a.Path) < filepath.Base(b.Path)
	})
}
