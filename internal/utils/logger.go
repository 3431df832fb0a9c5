package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logMu  sync.RWMutex
	logger *slog.Logger
)

// ConfigureLogger installs the shared logger. format is "json" or "text".
func ConfigureLogger(format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	l := slog.New(h)
	logMu.Lock()
	logger = l
	logMu.Unlock()
	return l
}

// Logger returns the shared logger, creating a text logger on first use.
func Logger() *slog.Logger {
	logMu.RLock()
	l := logger
	logMu.RUnlock()
	if l != nil {
		return l
	}
	return ConfigureLogger("text", os.Stdout)
}

// LogEvent prints standardized log line with module/action/request_id.
// Avoid logging sensitive payload; message should be summarized.
func LogEvent(requestID, module, action, message string) {
	Logger().Info(message,
		"module", strings.ToUpper(module),
		"action", action,
		"request_id", strings.TrimSpace(requestID),
	)
}

// LogError is LogEvent at error level with the error attached.
func LogError(requestID, module, action string, err error) {
	if err == nil {
		return
	}
	Logger().Error(err.Error(),
		"module", strings.ToUpper(module),
		"action", action,
		"request_id", strings.TrimSpace(requestID),
	)
}
