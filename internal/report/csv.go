package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/gocarina/gocsv"
	"github.com/m-lab/fetchbench/internal/persistence"
	"github.com/m-lab/fetchbench/pkg/fetchbench/model"
)

// WriteCSV writes the header followed by rows, one per line. Fields are not
// escaped beyond what encoding/csv does, so scenario names should not
// contain commas.
func WriteCSV(w io.Writer, rows []model.ReportRow) error {
	return gocsv.Marshal(rows, w)
}

// Collect reads every artifact under root and returns their rows in report
// order.
func Collect(root string) ([]model.ReportRow, error) {
	scenarios, err := Locate(root)
	if err != nil {
		return nil, err
	}
	rows := []model.ReportRow{}
	for _, s := range scenarios {
		for _, f := range s.Files {
			log.Debug("reading artifact", "scenario", s.Name, "path", f.Path)
			artifact, err := persistence.ReadDataFile(f.Path)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Path, err)
			}
			projected, err := Project(f, artifact)
			if err != nil {
				return nil, err
			}
			rows = append(rows, projected...)
		}
	}
	return rows, nil
}

// Aggregate writes the CSV report of every artifact under root to w.
func Aggregate(root string, w io.Writer) error {
	rows, err := Collect(root)
	if err != nil {
		return err
	}
	return WriteCSV(w, rows)
}
