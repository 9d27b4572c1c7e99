package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/maxatome/go-testdeep/td"
)

func TestParseLevel(t *testing.T) {
	td.Cmp(t, ParseLevel("DEBUG"), slog.LevelDebug)
	td.Cmp(t, ParseLevel("warning"), slog.LevelWarn)
	td.Cmp(t, ParseLevel("error"), slog.LevelError)
	td.Cmp(t, ParseLevel(""), slog.LevelInfo)
}

func TestNewWithWriterFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")
	l.Info("hidden")
	l.Warn("shown", "k", "v")

	td.Cmp(t, buf.String(), td.All(
		td.Contains("shown"),
		td.Contains("k=v"),
		td.Not(td.Contains("hidden")),
	))
}
