package model

import (
	"time"

	"github.com/m-lab/fetchbench/pkg/fetchbench/spec"
)

// ContentID names one fetchable item. It is appended to the endpoint URL
// prefix to build the request URL.
type ContentID string

// Outcome is the result of a single fetch. It is consumed by the trackers
// and not retained.
type Outcome struct {
	// Endpoint is the side this fetch targeted.
	Endpoint spec.Endpoint
	// Duration is the time from sending the request until the body was
	// fully read (or the transport failed).
	Duration time.Duration
	// TTFB is the time from sending the request to the first response byte.
	TTFB time.Duration
	// Status is the HTTP status code, or 0 on transport failure.
	Status int
	// ContentLength is the value of the Content-Length header, or -1 when
	// missing or unparseable.
	ContentLength int64
	// BytesRead is the number of body bytes actually received.
	BytesRead int64
	// Err is the transport error, if any.
	Err error
}

// Success reports whether the status is in [200,300).
func (o Outcome) Success() bool {
	return o.Status >= 200 && o.Status < 300
}

// Responded reports whether an HTTP response was received.
func (o Outcome) Responded() bool {
	return o.Err == nil && o.Status != 0
}

// MegabytesPerSecond returns the content length in MiB divided by the
// duration in seconds. ok is false when the content length is unknown or
// the duration is not positive.
func (o Outcome) MegabytesPerSecond() (float64, bool) {
	if o.ContentLength < 0 || o.Duration <= 0 {
		return 0, false
	}
	megabytes := float64(o.ContentLength) / spec.MiB
	seconds := Milliseconds(o.Duration) / 1000
	return megabytes / seconds, true
}

// Milliseconds converts d to fractional milliseconds.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
