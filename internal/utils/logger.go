package utils

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger = logrus.New()

// appNameHook tags every entry with the service name: as an "app" field for
// JSON output, as a message prefix for text output.
type appNameHook struct {
	appName string
	asField bool
}

func (h *appNameHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *appNameHook) Fire(entry *logrus.Entry) error {
	if h.asField {
		entry.Data["app"] = h.appName
		return nil
	}
	entry.Message = "[" + h.appName + "] " + entry.Message
	return nil
}

// InitLogger configures Logger from LOG_LEVEL (default info) and
// LOG_FORMAT ("text" or "json", default text).
func InitLogger(appName string) {
	configureLogger(Logger, os.Stdout, appName, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

func configureLogger(l *logrus.Logger, out io.Writer, appName, levelStr, format string) {
	l.SetOutput(out)

	levelStr = strings.ToLower(levelStr)
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		l.Warnf("Invalid LOG_LEVEL '%s', defaulting to INFO", levelStr)
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	asJSON := strings.EqualFold(format, "json")
	if asJSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	l.ReplaceHooks(make(logrus.LevelHooks))
	l.AddHook(&appNameHook{appName: appName, asField: asJSON})
}
