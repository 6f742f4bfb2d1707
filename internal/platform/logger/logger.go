package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Development gets human
// readable text; everything else emits JSON for log pipelines.
func New(env string) *slog.Logger {
	if env == "development" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
