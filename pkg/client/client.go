package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-lab/fetchbench/internal/fetcher"
	"github.com/m-lab/fetchbench/internal/persistence"
	"github.com/m-lab/fetchbench/internal/tracker"
	"github.com/m-lab/fetchbench/pkg/fetchbench/model"
	"github.com/m-lab/fetchbench/pkg/fetchbench/spec"
	"github.com/m-lab/fetchbench/pkg/version"
	"github.com/m-lab/go/prometheusx"
)

const (
	// DefaultIterations is the default number of paired fetches per worker.
	DefaultIterations = 1

	// outcomesPerWorker sizes the aggregator intake.
	outcomesPerWorker = 4

	libraryName = "fetchbench"
)

var (
	// ErrNoCatalog is returned if the client has no content to fetch.
	ErrNoCatalog = errors.New("no content catalog configured")
	// ErrNoPrimary is returned if the primary URL is empty.
	ErrNoPrimary = errors.New("no primary URL configured")
	// ErrInvalidConcurrency is returned if fewer than one worker is requested.
	ErrInvalidConcurrency = errors.New("concurrency must be at least 1")
	// ErrRangeTooLarge is returned if the range size exceeds the maximum
	// content size.
	ErrRangeTooLarge = errors.New("range size exceeds the maximum content size")

	libraryVersion = version.Version
)

// Client runs a comparison between a primary and an optional reference
// endpoint.
type Client struct {
	// ClientName is the name of the client sent as part of the user-agent.
	ClientName string
	// ClientVersion is the version of the client sent as part of the
	// user-agent.
	ClientVersion string

	config Config
}

// makeUserAgent creates the user agent string.
func makeUserAgent(clientName, clientVersion string) string {
	return clientName + "/" + clientVersion + " " + libraryName + "/" + libraryVersion
}

// New returns a new Client with the provided client name, version and
// config. Zero-valued optional fields of config are replaced by their
// defaults. It panics if clientName or clientVersion are empty.
func New(clientName, clientVersion string, config Config) *Client {
	if clientName == "" || clientVersion == "" {
		panic("client name and version must be non-empty")
	}
	if config.Iterations <= 0 {
		config.Iterations = DefaultIterations
	}
	if config.MaxContentSize <= 0 {
		config.MaxContentSize = spec.DefaultMaxContentSize
	}
	if config.Timeout <= 0 {
		config.Timeout = time.Duration(max(config.Key.Concurrency, 1)) * spec.TimeoutPerWorker
	}
	if config.Emitter == nil {
		config.Emitter = HumanReadable{}
	}
	return &Client{
		ClientName:    clientName,
		ClientVersion: clientVersion,
		config:        config,
	}
}

// recorder forwards outcomes to the Emitter and the Aggregator.
type recorder struct {
	agg     *tracker.Aggregator
	emitter Emitter
}

func (r *recorder) Record(o model.Outcome) {
	r.emitter.OnOutcome(o)
	if o.Err != nil {
		r.emitter.OnError(o.Err)
	}
	r.agg.Record(o)
}

func (r *recorder) RecordDelta(primary, reference model.Outcome) {
	r.agg.RecordDelta(primary, reference)
}

// Run starts one worker per concurrency level, waits for every worker to
// complete its iterations or for the timeout to expire, and returns the
// resulting artifact. Fetch failures are part of the results and never
// cause Run to fail.
func (c *Client) Run(ctx context.Context) (*model.RunArtifact, error) {
	switch {
	case c.config.Catalog == nil:
		return nil, ErrNoCatalog
	case c.config.PrimaryURL == "":
		return nil, ErrNoPrimary
	case c.config.Key.Concurrency < 1:
		return nil, ErrInvalidConcurrency
	case c.config.Key.RangeBytes > c.config.MaxContentSize:
		return nil, fmt.Errorf("%w: %d > %d", ErrRangeTooLarge, c.config.Key.RangeBytes, c.config.MaxContentSize)
	}

	emitter := c.config.Emitter
	start := time.Now()
	key := c.config.Key
	key.Timestamp = persistence.Timestamp(key.Timestamp, start)

	fc := fetcher.Config{
		PrimaryURL:     c.config.PrimaryURL,
		ReferenceURL:   c.config.ReferenceURL,
		RangeBytes:     key.RangeBytes,
		MaxContentSize: c.config.MaxContentSize,
		Concurrency:    key.Concurrency,
		Timeout:        c.config.Timeout,
		UserAgent:      makeUserAgent(c.ClientName, c.ClientVersion),
	}
	rec := &recorder{
		agg:     tracker.NewAggregator(outcomesPerWorker*key.Concurrency, fc.Endpoints()...),
		emitter: emitter,
	}
	f := fetcher.New(fc, rec)

	runCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	emitter.OnStart(key, f.Endpoints())

	wg := &sync.WaitGroup{}
	seed := start.UnixNano()
	for i := 0; i < key.Concurrency; i++ {
		workerID := i
		// Each worker owns its random source: *rand.Rand is not safe for
		// concurrent use.
		rnd := rand.New(rand.NewSource(seed + int64(workerID)))
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.runWorker(runCtx, workerID, f, rnd)
		}()

		if c.config.Delay > 0 && i < key.Concurrency-1 {
			select {
			case <-runCtx.Done():
			case <-time.After(c.config.Delay):
			}
		}
	}
	wg.Wait()

	artifact := &model.RunArtifact{
		GitShortCommit: prometheusx.GitShortCommit,
		Version:        c.ClientVersion,
		RunID:          uuid.NewString(),
		Key:            key,
		PrimaryURL:     c.config.PrimaryURL,
		ReferenceURL:   c.config.ReferenceURL,
		StartTime:      start.UTC(),
		Metrics:        rec.agg.Snapshot(),
	}
	artifact.EndTime = time.Now().UTC()
	emitter.OnSummary(artifact)
	return artifact, nil
}

func (c *Client) runWorker(ctx context.Context, workerID int, f *fetcher.Fetcher, rnd *rand.Rand) {
	for i := 0; i < c.config.Iterations; i++ {
		if ctx.Err() != nil {
			c.config.Emitter.OnDebug(fmt.Sprintf("worker #%d stopped after %d iterations: %v",
				workerID, i, ctx.Err()))
			return
		}
		id := c.config.Catalog.Random(rnd)
		c.config.Emitter.OnDebug(fmt.Sprintf("worker #%d - iteration %d, content %s", workerID, i, id))
		f.RunPair(ctx, id, rnd)
	}
}
