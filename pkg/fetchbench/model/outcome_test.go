package model

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestOutcome_MegabytesPerSecond(t *testing.T) {
	tests := []struct {
		name   string
		o      Outcome
		want   float64
		wantOK bool
	}{
		{
			name:   "one MiB in one second",
			o:      Outcome{ContentLength: 1048576, Duration: time.Second},
			want:   1,
			wantOK: true,
		},
		{
			name:   "ten MiB in 500ms",
			o:      Outcome{ContentLength: 10 * 1048576, Duration: 500 * time.Millisecond},
			want:   20,
			wantOK: true,
		},
		{
			name:   "zero length",
			o:      Outcome{ContentLength: 0, Duration: time.Second},
			want:   0,
			wantOK: true,
		},
		{
			name: "unknown length",
			o:    Outcome{ContentLength: -1, Duration: time.Second},
		},
		{
			name: "zero duration",
			o:    Outcome{ContentLength: 10},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.o.MegabytesPerSecond()
			if ok != tt.wantOK {
				t.Fatalf("MegabytesPerSecond() ok = %v, want %v", ok, tt.wantOK)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MegabytesPerSecond() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestOutcome_Success(t *testing.T) {
	for status, want := range map[int]bool{
		0: false, 199: false, 200: true, 206: true, 299: true, 300: false, 404: false,
	} {
		if got := (Outcome{Status: status}).Success(); got != want {
			t.Errorf("Success() for status %d = %v, want %v", status, got, want)
		}
	}
	o := Outcome{Status: 0, Err: errors.New("connection refused")}
	if o.Responded() {
		t.Errorf("Responded() = true for a transport failure")
	}
}
