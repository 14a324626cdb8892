package client

import (
	"time"

	"github.com/m-lab/fetchbench/internal/catalog"
	"github.com/m-lab/fetchbench/pkg/fetchbench/model"
)

// Config is the configuration for a Client.
type Config struct {
	model.RunConfig

	// Catalog is the list of content identifiers workers pick from.
	Catalog *catalog.Catalog

	// Iterations is the number of paired fetches each worker performs. If
	// zero, each worker performs one.
	Iterations int

	// Delay is the delay between each worker start.
	Delay time.Duration

	// Emitter is the interface used to emit progress and the summary of the
	// run. It can be overridden to provide a custom output.
	Emitter Emitter
}
