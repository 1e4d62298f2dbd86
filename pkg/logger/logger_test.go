package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"  DEBUG ", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestInit_Singleton(t *testing.T) {
	var buf bytes.Buffer
	log := Init(Options{Level: "debug", Output: &buf})

	log.Debug().Msg("first message")
	if !strings.Contains(buf.String(), "first message") {
		t.Fatalf("expected log output in buffer, got %q", buf.String())
	}

	// A second Init must not rebuild the logger: output keeps flowing to
	// the writer supplied on the first call.
	var other bytes.Buffer
	again := Init(Options{Level: "error", Output: &other})
	again.Debug().Msg("second message")

	if other.Len() != 0 {
		t.Fatalf("second Init rebuilt the logger: %q", other.String())
	}
	if !strings.Contains(buf.String(), "second message") {
		t.Fatalf("expected second message in original buffer, got %q", buf.String())
	}
}
