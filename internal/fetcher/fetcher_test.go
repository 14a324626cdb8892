package fetcher

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/m-lab/fetchbench/pkg/fetchbench/model"
	"github.com/m-lab/fetchbench/pkg/fetchbench/spec"
)

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []model.Outcome
	deltas   int
}

func (r *fakeRecorder) Record(o model.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *fakeRecorder) RecordDelta(primary, reference model.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deltas++
}

// orderServer records the sequence of endpoints hit, identified by the
// first path segment.
type orderServer struct {
	mu     sync.Mutex
	order  []string
	ranges []string
}

func (s *orderServer) handler(body []byte) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.order = append(s.order, req.URL.Path)
		s.ranges = append(s.ranges, req.Header.Get("Range"))
		s.mu.Unlock()
		rw.Header().Set("Content-Length", strconv.Itoa(len(body)))
		rw.Write(body)
	})
}

func TestFetcher_RunPair(t *testing.T) {
	body := make([]byte, 4096)
	s := &orderServer{}
	srv := httptest.NewServer(s.handler(body))
	defer srv.Close()

	t.Run("primary only", func(t *testing.T) {
		rec := &fakeRecorder{}
		f := New(Config{PrimaryURL: srv.URL + "/primary/", Concurrency: 1, Timeout: 5 * time.Second}, rec)
		f.RunPair(context.Background(), "piece", rand.New(rand.NewSource(1)))

		if len(rec.outcomes) != 1 || rec.deltas != 0 {
			t.Fatalf("got %d outcomes and %d deltas, want 1 and 0", len(rec.outcomes), rec.deltas)
		}
		o := rec.outcomes[0]
		if o.Endpoint != spec.EndpointPrimary || o.Status != 200 {
			t.Errorf("unexpected outcome: %+v", o)
		}
		if o.ContentLength != 4096 || o.BytesRead != 4096 {
			t.Errorf("ContentLength = %d, BytesRead = %d, want 4096", o.ContentLength, o.BytesRead)
		}
		if o.TTFB <= 0 || o.TTFB > o.Duration {
			t.Errorf("TTFB = %v should be in (0, %v]", o.TTFB, o.Duration)
		}
		if got := f.Endpoints(); len(got) != 1 {
			t.Errorf("Endpoints() = %v", got)
		}
	})

	t.Run("both endpoints in random order", func(t *testing.T) {
		s.order = nil
		rec := &fakeRecorder{}
		f := New(Config{
			PrimaryURL:   srv.URL + "/primary/",
			ReferenceURL: srv.URL + "/reference/",
			Concurrency:  1,
			Timeout:      5 * time.Second,
		}, rec)
		rnd := rand.New(rand.NewSource(42))
		const pairs = 100
		for i := 0; i < pairs; i++ {
			f.RunPair(context.Background(), "piece", rnd)
		}
		if len(rec.outcomes) != 2*pairs || rec.deltas != pairs {
			t.Fatalf("got %d outcomes and %d deltas", len(rec.outcomes), rec.deltas)
		}
		primaryFirst := 0
		for i := 0; i < len(s.order); i += 2 {
			if s.order[i] == "/primary/piece" {
				primaryFirst++
			}
			if s.order[i] == s.order[i+1] {
				t.Fatalf("pair %d fetched the same endpoint twice", i/2)
			}
		}
		if primaryFirst < 25 || primaryFirst > 75 {
			t.Errorf("primary fetched first in %d/%d pairs", primaryFirst, pairs)
		}
		// Outcomes are always recorded primary first.
		for i := 0; i < len(rec.outcomes); i += 2 {
			if rec.outcomes[i].Endpoint != spec.EndpointPrimary ||
				rec.outcomes[i+1].Endpoint != spec.EndpointReference {
				t.Fatalf("unexpected record order at %d", i)
			}
		}
	})

	t.Run("range header", func(t *testing.T) {
		s.ranges = nil
		rec := &fakeRecorder{}
		f := New(Config{
			PrimaryURL:     srv.URL + "/primary/",
			RangeBytes:     100,
			MaxContentSize: 1000,
			Concurrency:    1,
			Timeout:        5 * time.Second,
		}, rec)
		rnd := rand.New(rand.NewSource(7))
		for i := 0; i < 20; i++ {
			f.RunPair(context.Background(), "piece", rnd)
		}
		re := regexp.MustCompile(`^bytes=(\d+)-(\d+)$`)
		for _, r := range s.ranges {
			m := re.FindStringSubmatch(r)
			if m == nil {
				t.Fatalf("invalid Range header %q", r)
			}
			start, _ := strconv.ParseInt(m[1], 10, 64)
			end, _ := strconv.ParseInt(m[2], 10, 64)
			if end-start+1 != 100 || end >= 1000 {
				t.Errorf("range %q out of bounds", r)
			}
		}
	})
}

func TestFetcher_Fetch(t *testing.T) {
	t.Run("transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		f := New(Config{Timeout: time.Second}, &fakeRecorder{})
		o := f.Fetch(context.Background(), spec.EndpointPrimary, url+"/x", rand.New(rand.NewSource(1)))
		if o.Err == nil || o.Status != 0 || o.Responded() {
			t.Errorf("expected transport failure, got %+v", o)
		}
		if _, ok := o.MegabytesPerSecond(); ok {
			t.Errorf("throughput must not be computed for a failed fetch")
		}
	})

	t.Run("no content length", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			// Flushing before writing forces a chunked response.
			rw.WriteHeader(http.StatusOK)
			rw.(http.Flusher).Flush()
			fmt.Fprint(rw, "hello world")
		}))
		defer srv.Close()

		f := New(Config{Timeout: time.Second}, &fakeRecorder{})
		o := f.Fetch(context.Background(), spec.EndpointPrimary, srv.URL, rand.New(rand.NewSource(1)))
		if o.Err != nil || o.Status != 200 {
			t.Fatalf("unexpected outcome %+v", o)
		}
		if o.ContentLength != -1 || o.BytesRead != 11 {
			t.Errorf("ContentLength = %d, BytesRead = %d", o.ContentLength, o.BytesRead)
		}
	})

	t.Run("connection setup is not timed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			fmt.Fprint(rw, "hello world")
		}))
		defer srv.Close()

		const dialDelay = 300 * time.Millisecond
		f := New(Config{Timeout: 5 * time.Second}, &fakeRecorder{})
		transport := f.client.Transport.(*http.Transport)
		dial := transport.DialContext
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			time.Sleep(dialDelay)
			return dial(ctx, network, addr)
		}

		start := time.Now()
		o := f.Fetch(context.Background(), spec.EndpointPrimary, srv.URL, rand.New(rand.NewSource(1)))
		elapsed := time.Since(start)
		if o.Err != nil || o.Status != 200 {
			t.Fatalf("unexpected outcome %+v", o)
		}
		if elapsed < dialDelay {
			t.Fatalf("fetch took %s, dial delay was not applied", elapsed)
		}
		if o.TTFB >= dialDelay/2 || o.Duration >= dialDelay/2 {
			t.Errorf("TTFB = %s, Duration = %s: connection setup was timed", o.TTFB, o.Duration)
		}
		if o.TTFB > o.Duration {
			t.Errorf("TTFB %s > Duration %s", o.TTFB, o.Duration)
		}
	})

	t.Run("error status", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()
		f := New(Config{Timeout: time.Second}, &fakeRecorder{})
		o := f.Fetch(context.Background(), spec.EndpointReference, srv.URL, rand.New(rand.NewSource(1)))
		if !o.Responded() || o.Success() || o.Status != 404 {
			t.Errorf("unexpected outcome %+v", o)
		}
	})
}

func TestParseContentLength(t *testing.T) {
	tests := map[string]struct {
		value  string
		want   int64
		wantOK bool
	}{
		"missing":  {value: ""},
		"valid":    {value: "1024", want: 1024, wantOK: true},
		"zero":     {value: "0", want: 0, wantOK: true},
		"negative": {value: "-5"},
		"garbage":  {value: "abc"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set("Content-Length", tt.value)
			}
			got, ok := ParseContentLength(h)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseContentLength(%q) = %d, %v", tt.value, got, ok)
			}
		})
	}
}

func TestRangeOffset(t *testing.T) {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	for _, c := range []struct{ r, m int64 }{
		{1, 2}, {100, 1000}, {10 << 20, spec.DefaultMaxContentSize}, {5, 5},
	} {
		for i := 0; i < 1000; i++ {
			o := RangeOffset(rnd, c.r, c.m)
			if o < 0 {
				t.Fatalf("RangeOffset(%d, %d) = %d < 0", c.r, c.m, o)
			}
			if o+c.r > c.m {
				t.Fatalf("RangeOffset(%d, %d) = %d exceeds bound", c.r, c.m, o)
			}
		}
	}
	if got := RangeHeader(10, 5); got != "bytes=10-14" {
		t.Errorf("RangeHeader() = %s", got)
	}
}
