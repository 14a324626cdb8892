// Command json2csv aggregates the run artifacts under an output directory
// into a single CSV report.
//
// Usage: json2csv [-out <artifact root>] [<report path>]
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/m-lab/fetchbench/internal/report"
	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/rtx"
)

const defaultReportPath = "results/results.csv"

var (
	flagOut   = flag.String("out", "out", "Directory holding one subdirectory of run artifacts per scenario")
	flagDebug = flag.Bool("debug", false, "Enable debug logging")
)

func run(root, reportPath string) error {
	var buf bytes.Buffer
	if err := report.Aggregate(root, &buf); err != nil {
		return err
	}
	return os.WriteFile(reportPath, buf.Bytes(), 0o644)
}

func main() {
	flag.Parse()
	rtx.Must(flagx.ArgsFromEnv(flag.CommandLine), "failed to read flags from the environment")

	log.SetReportTimestamp(true)
	if *flagDebug {
		log.SetLevel(log.DebugLevel)
	}

	reportPath := defaultReportPath
	if flag.NArg() > 0 {
		reportPath = flag.Arg(0)
	}

	if err := run(*flagOut, reportPath); err != nil {
		log.Error("Failed to aggregate results", "root", *flagOut, "err", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote stats CSV to %s\n", reportPath)
}
