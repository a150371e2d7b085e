// Package logger holds the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const redacted = "[REDACTED]"

// secretFields are field names whose values never reach the log output.
var secretFields = map[string]bool{
	"api_key":       true,
	"apikey":        true,
	"authorization": true,
	"token":         true,
}

var Logger *logrus.Logger

func init() {
	Logger = logrus.New()
	Logger.SetOutput(os.Stdout)
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	Logger.AddHook(redactHook{})
	SetLevel(os.Getenv("LOG_LEVEL"))
}

// SetLevel applies a textual level such as "debug" or "warn". Unknown or
// empty values select info.
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	Logger.SetLevel(parsed)
}

// SetOutput redirects log output; the CLI sends it to stderr.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// ForComponent returns an entry tagged with the emitting package.
func ForComponent(name string) *logrus.Entry {
	return Logger.WithField("component", name)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

func WithError(err error) *logrus.Entry {
	return Logger.WithError(err)
}

func Info(msg string) {
	Logger.Info(msg)
}

// redactHook masks credential fields so an upstream URL or header logged
// by mistake does not leak keys.
type redactHook struct{}

func (redactHook) Levels() []logrus.Level { return logrus.AllLevels }

func (redactHook) Fire(entry *logrus.Entry) error {
	for key, value := range entry.Data {
		if secretFields[strings.ToLower(key)] {
			if s, ok := value.(string); ok && s == "" {
				continue
			}
			entry.Data[key] = redacted
		}
	}
	return nil
}
