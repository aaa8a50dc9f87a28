package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// New builds the process logger. Production uses JSON output, everything else text.
func New(env, level string) *log.Logger {
	return NewWithWriter(os.Stdout, env, level)
}

func NewWithWriter(w io.Writer, env, level string) *log.Logger {
	logger := log.New()
	logger.SetOutput(w)
	if env == "production" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// Component returns an entry tagged with the component name.
func Component(logger log.FieldLogger, name string) log.FieldLogger {
	if logger == nil {
		discard := log.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	return logger.WithField("component", name)
}
