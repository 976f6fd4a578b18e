package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/sirupsen/logrus"
)

type logrusAdapter struct {
	entry *logrus.Entry
}

// NewWatermillLogger adapts a logrus logger to watermill's logger interface.
func NewWatermillLogger(log logrus.FieldLogger) watermill.LoggerAdapter {
	return logrusAdapter{entry: log.WithField("component", "watermill")}
}

func (l logrusAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.entry.WithFields(logrus.Fields(fields)).WithError(err).Error(msg)
}

func (l logrusAdapter) Info(msg string, fields watermill.LogFields) {
	l.entry.WithFields(logrus.Fields(fields)).Info(msg)
}

func (l logrusAdapter) Debug(msg string, fields watermill.LogFields) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (l logrusAdapter) Trace(msg string, fields watermill.LogFields) {
	l.entry.WithFields(logrus.Fields(fields)).Trace(msg)
}

func (l logrusAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return logrusAdapter{entry: l.entry.WithFields(logrus.Fields(fields))}
}
