package eremore

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// NewLogger builds a logrus logger writing to w. level is a logrus level name
// ("debug", "info", ...). jsonFormat selects the JSON formatter, otherwise a
// text formatter with full timestamps is used.
func NewLogger(w io.Writer, level string, jsonFormat bool) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)
	if jsonFormat {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return logger, nil
}

// discardLogger is used when a component was built without a logger.
func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// measure runs fn and logs how long it took at debug level.
func measure(log logrus.FieldLogger, fn func() error) error {
	start := time.Now()
	err := fn()
	log.WithField("elapsed", time.Since(start)).Debug("Elapsed time")
	return err
}
