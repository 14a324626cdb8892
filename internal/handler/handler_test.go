package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-lab/fetchbench/internal/handler"
	"github.com/m-lab/go/rtx"
)

func TestNew(t *testing.T) {
	h := handler.New(10)
	if h == nil {
		t.Errorf("New returned nil")
	}
}

func get(t *testing.T, url, rangeHeader string) (*http.Response, []byte) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	rtx.Must(err, "cannot create request")
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	resp, err := http.DefaultClient.Do(req)
	rtx.Must(err, "request failed")
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	rtx.Must(err, "cannot read body")
	return resp, body
}

func TestHandler_ServeHTTP(t *testing.T) {
	server := httptest.NewServer(handler.New(1000))
	defer server.Close()

	t.Run("full object", func(t *testing.T) {
		resp, body := get(t, server.URL+"/object", "")
		if resp.StatusCode != http.StatusOK || len(body) != 1000 {
			t.Fatalf("status %d, %d bytes", resp.StatusCode, len(body))
		}
		if resp.Header.Get("Content-Length") != "1000" {
			t.Errorf("Content-Length = %q", resp.Header.Get("Content-Length"))
		}
		if body[252] != 1 {
			t.Errorf("body[252] = %d, want 1", body[252])
		}
	})

	t.Run("range", func(t *testing.T) {
		resp, body := get(t, server.URL+"/object", "bytes=500-509")
		if resp.StatusCode != http.StatusPartialContent || len(body) != 10 {
			t.Fatalf("status %d, %d bytes", resp.StatusCode, len(body))
		}
		if body[0] != byte(500%251) {
			t.Errorf("body[0] = %d", body[0])
		}
	})

	t.Run("unsatisfiable range", func(t *testing.T) {
		resp, _ := get(t, server.URL+"/object", "bytes=2000-2009")
		if resp.StatusCode != http.StatusRequestedRangeNotSatisfiable {
			t.Errorf("status %d", resp.StatusCode)
		}
	})

	t.Run("missing identifier", func(t *testing.T) {
		resp, _ := get(t, server.URL+"/", "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status %d", resp.StatusCode)
		}
	})
}
