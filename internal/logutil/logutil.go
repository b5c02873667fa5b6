// Package logutil builds the slog loggers used by the interpreter and CLI.
package logutil

import (
	"io"
	"log/slog"
	"path/filepath"
)

// LevelTrace is below Debug; per-instruction dispatch is logged at this level.
const LevelTrace slog.Level = slog.LevelDebug - 4

// NewLogger returns a text logger writing to w at the given level. Source
// locations are added at Debug and below.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				if l, ok := attr.Value.Any().(slog.Level); ok && l <= LevelTrace {
					attr.Value = slog.StringValue("TRACE")
				}
			case slog.SourceKey:
				if source, ok := attr.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return attr
		},
	}))
}
