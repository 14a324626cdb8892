// Package handler implements a synthetic origin: every content identifier
// maps to a deterministic object of a fixed size, served with Range support.
// It lets the harness be exercised without a real storage backend.
package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fetchbench_origin_requests_total",
		Help: "Requests served by the synthetic origin by status code.",
	},
	[]string{"code"},
)

// Handler serves synthetic objects.
type Handler struct {
	objectSize int64
	modTime    time.Time
}

// New returns a Handler serving objects of objectSize bytes.
func New(objectSize int64) *Handler {
	return &Handler{
		objectSize: objectSize,
		modTime:    time.Now(),
	}
}

// ServeHTTP serves the object named by the request path. Range requests
// beyond the object size get 416 Range Not Satisfiable.
func (h *Handler) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	id := strings.TrimPrefix(req.URL.Path, "/")
	if id == "" || (req.Method != http.MethodGet && req.Method != http.MethodHead) {
		log.Debug("Rejected request", "method", req.Method, "path", req.URL.Path, "remote", req.RemoteAddr)
		writeBadRequest(rw)
		requestsTotal.WithLabelValues(strconv.Itoa(http.StatusBadRequest)).Inc()
		return
	}
	sw := &statusWriter{ResponseWriter: rw, code: http.StatusOK}
	content := io.NewSectionReader(pattern{}, 0, h.objectSize)
	http.ServeContent(sw, req, id, h.modTime, content)
	requestsTotal.WithLabelValues(strconv.Itoa(sw.code)).Inc()
}

// writeBadRequest sends a Bad Request response to the client using writer.
func writeBadRequest(writer http.ResponseWriter) {
	writer.Header().Set("Connection", "Close")
	writer.WriteHeader(http.StatusBadRequest)
}

// pattern is an infinite io.ReaderAt whose byte at offset o is o%251.
type pattern struct{}

func (pattern) ReadAt(p []byte, off int64) (int, error) {
	for i := range p {
		p[i] = byte((off + int64(i)) % 251)
	}
	return len(p), nil
}

// statusWriter records the status code written through it.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
