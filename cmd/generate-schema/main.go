package main

import (
	"flag"
	"os"

	"github.com/m-lab/fetchbench/pkg/fetchbench/model"
	"github.com/m-lab/go/cloud/bqx"
	"github.com/m-lab/go/rtx"

	"cloud.google.com/go/bigquery"
)

var reportSchema string

func init() {
	flag.StringVar(&reportSchema, "report", "/var/spool/datatypes/fetchbench_report.json", "filename to write the report row schema")
}

func main() {
	flag.Parse()
	// Generate and save the schema of report rows for autoloading.
	sch, err := bigquery.InferSchema(model.ReportRow{})
	rtx.Must(err, "failed to generate report schema")
	sch = bqx.RemoveRequired(sch)
	b, err := sch.ToJSONFields()
	rtx.Must(err, "failed to marshal report schema")
	err = os.WriteFile(reportSchema, b, 0o644)
	rtx.Must(err, "failed to write report schema")
}
