package model

import "time"

// RunConfig holds the parameters of one run.
type RunConfig struct {
	// Key identifies the run. An empty Timestamp is filled in when the run
	// starts.
	Key RunKey

	// PrimaryURL is the URL prefix content identifiers are appended to.
	PrimaryURL string
	// ReferenceURL is the URL prefix of the endpoint compared against. If
	// empty, only the primary endpoint is fetched.
	ReferenceURL string

	// MaxContentSize bounds the random range offsets. Zero means
	// spec.DefaultMaxContentSize.
	MaxContentSize int64

	// Timeout bounds the whole run and each request within it.
	Timeout time.Duration
}
