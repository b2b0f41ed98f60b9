// internal/infra/logger/logger.go
package logger

import (
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"seller_escalation_bot/internal/infra/config"
)

// Log is the global logger instance
var Log = logrus.New()

// RequestIDHeader is echoed back on every HTTP response.
const RequestIDHeader = "X-Request-ID"

// Init initializes the global logger based on application configuration.
func Init(cfg *config.AppConfig) {
	configure(Log, os.Stdout, cfg.LogLevel, cfg.IsProduction())

	Log.Info("Logger initialized successfully.")
	Log.Debugf("Log level set to: %s", Log.GetLevel().String())
	Log.Debugf("Log format set for environment: %s", cfg.Environment)
}

func configure(l *logrus.Logger, out io.Writer, levelName string, jsonFormat bool) {
	l.SetOutput(out)

	level, err := logrus.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		l.Warnf("Invalid log level '%s', defaulting to 'info'. Error: %v", levelName, err)
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if jsonFormat {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00", // ISO8601
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

// WithRequest attaches request metadata to an entry.
// The request ID comes from the X-Request-ID header or is generated.
func WithRequest(base *logrus.Entry, r *http.Request) *logrus.Entry {
	reqID := r.Header.Get(RequestIDHeader)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	return base.WithFields(logrus.Fields{
		"req_id":    reqID,
		"method":    r.Method,
		"path":      r.URL.Path,
		"remote_ip": r.RemoteAddr,
	})
}

// Discard returns an entry that writes nowhere. Used by tests.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
