// Command fetchbench runs one paired-fetch comparison between a primary and
// an optional reference endpoint and writes the run artifact to disk.
//
// Every flag can also be set through the environment, e.g.
// SIMULTANEOUS_DOWNLOADS=10 for -simultaneous-downloads.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/m-lab/fetchbench/internal/catalog"
	"github.com/m-lab/fetchbench/internal/persistence"
	"github.com/m-lab/fetchbench/pkg/client"
	"github.com/m-lab/fetchbench/pkg/fetchbench/model"
	"github.com/m-lab/fetchbench/pkg/fetchbench/spec"
	"github.com/m-lab/fetchbench/pkg/version"
	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"
)

const clientName = "fetchbench"

var (
	flagConcurrency    = flag.Int("simultaneous-downloads", 1, "Number of concurrent workers")
	flagPrimaryURL     = flag.String("primary-fetch-url", "", "URL prefix of the primary endpoint")
	flagReferenceURL   = flag.String("reference-fetch-url", "", "URL prefix of the reference endpoint (optional)")
	flagRangeSize      = flag.Int64("range-size", 0, "Size in bytes of each ranged request, 0 fetches whole objects")
	flagTestName       = flag.String("test-name", "", "Scenario name; defaults to range-requests or full-fetch")
	flagOutDir         = flag.String("out-dir", "out", "Directory holding one subdirectory per scenario")
	flagFileTime       = flag.String("file-time-str", "", "Timestamp used in the artifact filename instead of the current time")
	flagCatalog        = flag.String("catalog", "catalog.txt", "Newline-separated list of content identifiers")
	flagMaxContentSize = flag.Int64("max-content-size", spec.DefaultMaxContentSize, "Upper bound for random range offsets")
	flagIterations     = flag.Int("iterations", client.DefaultIterations, "Paired fetches per worker")
	flagDelay          = flag.Duration("delay", 0, "Delay between each worker start")
	flagTimeout        = flag.Duration("timeout", 0, "Run timeout; defaults to one hour per worker")
	flagMetrics        = flag.Bool("metrics", false, "Serve Prometheus metrics while running")
	flagDebug          = flag.Bool("debug", false, "Enable debug output")
)

func scenario() string {
	if *flagTestName != "" {
		return *flagTestName
	}
	if *flagRangeSize > 0 {
		return spec.RangeScenario
	}
	return spec.FullFetchScenario
}

func main() {
	flag.Parse()
	rtx.Must(flagx.ArgsFromEnv(flag.CommandLine), "failed to read flags from the environment")

	log.SetReportTimestamp(true)
	if *flagDebug {
		log.SetLevel(log.DebugLevel)
	}

	if *flagMetrics {
		promSrv := prometheusx.MustServeMetrics()
		defer promSrv.Close()
	}

	cat, err := catalog.Load(*flagCatalog)
	rtx.Must(err, "failed to load the content catalog")
	log.Info("Loaded content catalog", "path", *flagCatalog, "size", cat.Len())

	cl := client.New(clientName, version.Version, client.Config{
		RunConfig: model.RunConfig{
			Key: model.RunKey{
				Scenario:    scenario(),
				Concurrency: *flagConcurrency,
				RangeBytes:  *flagRangeSize,
				Timestamp:   *flagFileTime,
			},
			PrimaryURL:     *flagPrimaryURL,
			ReferenceURL:   *flagReferenceURL,
			MaxContentSize: *flagMaxContentSize,
			Timeout:        *flagTimeout,
		},
		Catalog:    cat,
		Iterations: *flagIterations,
		Delay:      *flagDelay,
		Emitter:    client.HumanReadable{Debug: *flagDebug},
	})

	start := time.Now()
	artifact, err := cl.Run(context.Background())
	rtx.Must(err, "invalid run configuration")
	log.Info("Run completed", "scenario", artifact.Key.Scenario, "elapsed", time.Since(start))

	df, err := persistence.WriteDataFile(*flagOutDir, artifact)
	if err != nil {
		log.Error("Failed to write the run artifact", "path",
			persistence.ArtifactPath(*flagOutDir, artifact.Key), "err", err)
		os.Exit(1)
	}
	log.Info("Wrote run artifact", "path", df.Path, "size", df.Size)
}
