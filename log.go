package topomux

import (
	"io"
	"log/slog"
)

// pkgLogger serves every Joiner and IcnRoutes whose Log is nil.
// It discards everything until a program installs its own
var pkgLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// SetLogger replaces the package logger.  nil restores the discarding one
func SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	pkgLogger = logger
}

// Logger returns the logger currently installed for the package
func Logger() *slog.Logger {
	return pkgLogger
}
