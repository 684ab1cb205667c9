package logging

import (
	"log/slog"
	"os"
)

// Setup installs a JSON logger on stdout as the slog default and returns its
// handler so it can be combined with others. Debug records are kept outside
// production.
func Setup(env string) slog.Handler {
	level := slog.LevelInfo
	if env == "development" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return handler
}
