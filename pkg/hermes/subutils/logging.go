package subutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tsarna/hermes/pkg/hermes/bus"
	"github.com/tsarna/hermes/pkg/hermes/topic"
)

// LoggingSubscriber logs every call, then forwards it to the wrapped
// subscriber if there is one. Events on hermes topics are logged with their
// decoded family and site.
type LoggingSubscriber struct {
	wrapped  bus.Subscriber
	logger   *zap.Logger
	logLevel zapcore.Level
	name     string
}

func NewLoggingSubscriber(wrapped bus.Subscriber, logger *zap.Logger, logLevel zapcore.Level) *LoggingSubscriber {
	return NewNamedLoggingSubscriber(wrapped, logger, logLevel, "LoggingSubscriber")
}

func NewNamedLoggingSubscriber(wrapped bus.Subscriber, logger *zap.Logger, logLevel zapcore.Level, name string) *LoggingSubscriber {
	return &LoggingSubscriber{
		wrapped:  wrapped,
		logger:   logger,
		logLevel: logLevel,
		name:     name,
	}
}

func (l *LoggingSubscriber) OnSubscribe(ctx context.Context, topic string) error {
	l.logger.Log(l.logLevel, "OnSubscribe called",
		zap.String("subscriber", l.name),
		zap.String("topic", topic),
	)

	if l.wrapped != nil {
		return l.wrapped.OnSubscribe(ctx, topic)
	}
	return nil
}

func (l *LoggingSubscriber) OnUnsubscribe(ctx context.Context, topic string) error {
	l.logger.Log(l.logLevel, "OnUnsubscribe called",
		zap.String("subscriber", l.name),
		zap.String("topic", topic),
	)

	if l.wrapped != nil {
		return l.wrapped.OnUnsubscribe(ctx, topic)
	}
	return nil
}

func (l *LoggingSubscriber) OnEvent(ctx context.Context, path string, message any, fields map[string]string) error {
	if ce := l.logger.Check(l.logLevel, "OnEvent called"); ce != nil {
		logFields := []zap.Field{
			zap.String("subscriber", l.name),
			zap.String("topic", path),
			zap.String("message", describe(message)),
		}
		if len(fields) > 0 {
			logFields = append(logFields, zap.Any("extractedFields", fields))
		}
		if t, ok := topic.Decode(path); ok {
			logFields = append(logFields, zap.Stringer("family", t.Family()))
			if site := topic.SiteOf(t); site != "" {
				logFields = append(logFields, zap.String("site", site))
			}
		} else {
			logFields = append(logFields, zap.Bool("unrecognized", true))
		}
		ce.Write(logFields...)
	}

	if l.wrapped != nil {
		return l.wrapped.OnEvent(ctx, path, message, fields)
	}
	return nil
}

func describe(message any) string {
	switch v := message.(type) {
	case string:
		return v
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(v))
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%v", v)
	}
}
