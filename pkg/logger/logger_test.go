package logger_test

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/tallyhq/tally/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		raw     string
		want    logger.Level
		wantErr bool
	}{
		{"trace", logger.LevelTrace, false},
		{"debug", logger.LevelDebug, false},
		{"info", logger.LevelInfo, false},
		{"", logger.LevelInfo, false},
		{"WARN", logger.LevelWarn, false},
		{"warning", logger.LevelWarn, false},
		{"error", logger.LevelError, false},
		{"shout", logger.LevelInfo, true},
	}
	for _, tc := range cases {
		got, err := logger.ParseLevel(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseLevel(%q): expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseLevel(%q)=%v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestLevelGate(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetFlags(0)
	logger.SetLevel(logger.LevelWarn)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
		logger.SetFlags(log.LstdFlags)
		logger.SetLevel(logger.LevelInfo)
	})

	logger.Debugf("hidden %d", 1)
	logger.Infof("hidden %d", 2)
	logger.Warnf("visible %d", 3)
	logger.Errorf("visible %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("suppressed levels leaked: %q", out)
	}
	if !strings.Contains(out, "[WARN] visible 3") || !strings.Contains(out, "[ERROR] visible 4") {
		t.Fatalf("expected warn and error lines, got %q", out)
	}

	if logger.Enabled(logger.LevelInfo) {
		t.Fatal("info should be disabled at warn threshold")
	}
	if !logger.Enabled(logger.LevelError) {
		t.Fatal("error should be enabled at warn threshold")
	}
}
