// Package fetcher implements the paired fetch: the same content identifier
// is requested from the primary and, when configured, the reference
// endpoint in random order.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/http/httptrace"
	"strconv"
	"sync"
	"time"

	"github.com/m-lab/fetchbench/pkg/fetchbench/model"
	"github.com/m-lab/fetchbench/pkg/fetchbench/spec"
)

const (
	dialTimeout         = 30 * time.Second
	keepAliveInterval   = 30 * time.Second
	tlsHandshakeTimeout = 30 * time.Second
	idleConnTimeout     = 90 * time.Second
)

// Recorder receives outcomes. It must be safe for concurrent use.
type Recorder interface {
	Record(o model.Outcome)
	RecordDelta(primary, reference model.Outcome)
}

// Config is the configuration of a Fetcher.
type Config struct {
	// PrimaryURL is the URL prefix of the primary endpoint.
	PrimaryURL string
	// ReferenceURL is the URL prefix of the reference endpoint. If empty,
	// only the primary endpoint is fetched.
	ReferenceURL string
	// RangeBytes is the size of each ranged request. Zero disables ranges.
	RangeBytes int64
	// MaxContentSize bounds the random range offsets.
	MaxContentSize int64
	// Concurrency sizes the connection pool.
	Concurrency int
	// Timeout bounds each request.
	Timeout time.Duration
	// UserAgent is sent with every request.
	UserAgent string
}

// Fetcher executes paired fetches. It is safe for concurrent use as long as
// each caller passes its own random source.
type Fetcher struct {
	config   Config
	client   *http.Client
	recorder Recorder
}

// New returns a Fetcher using a client whose connection pool is sized for
// the configured concurrency.
func New(config Config, recorder Recorder) *Fetcher {
	if config.MaxContentSize <= 0 {
		config.MaxContentSize = spec.DefaultMaxContentSize
	}
	conns := config.Concurrency
	if conns <= 0 {
		conns = 1
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        2 * conns,
		MaxIdleConnsPerHost: conns,
		IdleConnTimeout:     idleConnTimeout,
		ForceAttemptHTTP2:   true,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: keepAliveInterval,
		}).DialContext,
		TLSHandshakeTimeout: tlsHandshakeTimeout,
		// Compression would make Content-Length differ from the bytes the
		// endpoint actually served.
		DisableCompression: true,
	}
	return &Fetcher{
		config:   config,
		client:   &http.Client{Transport: transport, Timeout: config.Timeout},
		recorder: recorder,
	}
}

// Endpoints returns the endpoints a Fetcher built from c will request.
func (c Config) Endpoints() []spec.Endpoint {
	if c.ReferenceURL == "" {
		return []spec.Endpoint{spec.EndpointPrimary}
	}
	return []spec.Endpoint{spec.EndpointPrimary, spec.EndpointReference}
}

// Endpoints returns the endpoints this Fetcher will request.
func (f *Fetcher) Endpoints() []spec.Endpoint {
	return f.config.Endpoints()
}

// RunPair fetches id from both endpoints in an order decided by a fair coin
// flip, so neither side systematically benefits from warm caches or reused
// connections. Every outcome is sent to the Recorder.
func (f *Fetcher) RunPair(ctx context.Context, id model.ContentID, rnd *rand.Rand) {
	if f.config.ReferenceURL == "" {
		f.recorder.Record(f.Fetch(ctx, spec.EndpointPrimary, f.config.PrimaryURL+string(id), rnd))
		return
	}

	var primary, reference model.Outcome
	if rnd.Intn(2) == 0 {
		primary = f.Fetch(ctx, spec.EndpointPrimary, f.config.PrimaryURL+string(id), rnd)
		reference = f.Fetch(ctx, spec.EndpointReference, f.config.ReferenceURL+string(id), rnd)
	} else {
		reference = f.Fetch(ctx, spec.EndpointReference, f.config.ReferenceURL+string(id), rnd)
		primary = f.Fetch(ctx, spec.EndpointPrimary, f.config.PrimaryURL+string(id), rnd)
	}
	f.recorder.Record(primary)
	f.recorder.Record(reference)
	f.recorder.RecordDelta(primary, reference)
}

// Fetch performs a single GET of url, reading and discarding the body.
// Transport failures are returned as an Outcome with Status 0 and Err set.
func (f *Fetcher) Fetch(ctx context.Context, ep spec.Endpoint, url string, rnd *rand.Rand) model.Outcome {
	out := model.Outcome{Endpoint: ep, ContentLength: -1}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		out.Err = err
		return out
	}
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}
	if f.config.RangeBytes > 0 {
		req.Header.Set("Range", RangeHeader(RangeOffset(rnd, f.config.RangeBytes, f.config.MaxContentSize), f.config.RangeBytes))
	}

	tm := &timings{}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), tm.trace()))

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		out.Duration = time.Since(start)
		out.Err = err
		return out
	}
	defer resp.Body.Close()

	out.Status = resp.StatusCode
	out.BytesRead, err = io.Copy(io.Discard, resp.Body)
	out.Duration, out.TTFB = tm.since(start, time.Now())
	if err != nil {
		// The body was cut short: count it as a transport failure.
		out.Status = 0
		out.Err = fmt.Errorf("reading body of %s: %w", url, err)
		return out
	}
	if n, ok := ParseContentLength(resp.Header); ok {
		out.ContentLength = n
	}
	return out
}

// timings records the connection-relative instants of one request. Trace
// hooks may run on transport goroutines, hence the lock.
type timings struct {
	mu           sync.Mutex
	gotConn      time.Time
	wroteRequest time.Time
	firstByte    time.Time
}

func (t *timings) mark(p *time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	*p = time.Now()
}

func (t *timings) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		GotConn:              func(httptrace.GotConnInfo) { t.mark(&t.gotConn) },
		WroteRequest:         func(httptrace.WroteRequestInfo) { t.mark(&t.wroteRequest) },
		GotFirstResponseByte: func() { t.mark(&t.firstByte) },
	}
}

// since returns the request duration, measured from the moment a
// connection was ready, and the time from the end of the request write to
// the first response byte. Connection setup (DNS, dial, TLS) is excluded
// from both. start is used when a hook did not fire.
func (t *timings) since(start, end time.Time) (duration, ttfb time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	connected := start
	if !t.gotConn.IsZero() {
		connected = t.gotConn
	}
	duration = end.Sub(connected)
	if t.firstByte.IsZero() {
		return duration, 0
	}
	wrote := connected
	if !t.wroteRequest.IsZero() && !t.wroteRequest.After(t.firstByte) {
		wrote = t.wroteRequest
	}
	return duration, t.firstByte.Sub(wrote)
}

// ParseContentLength returns the value of the Content-Length header. ok is
// false when the header is missing or is not a non-negative integer.
func ParseContentLength(h http.Header) (int64, bool) {
	v := h.Get("Content-Length")
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// RangeOffset returns a random start offset o for a range of size
// rangeBytes such that 0 <= o and o+rangeBytes <= maxContentSize. Callers
// must ensure rangeBytes <= maxContentSize; otherwise it returns 0.
func RangeOffset(rnd *rand.Rand, rangeBytes, maxContentSize int64) int64 {
	span := maxContentSize - rangeBytes
	if span <= 0 {
		return 0
	}
	return rnd.Int63n(span + 1)
}

// RangeHeader formats a single-range Range header value.
func RangeHeader(offset, size int64) string {
	return fmt.Sprintf("bytes=%d-%d", offset, offset+size-1)
}
