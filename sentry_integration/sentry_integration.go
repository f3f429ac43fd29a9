package sentry_integration

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/initia-labs/transfervolume/config"
)

const flushTimeout = 2 * time.Second

// Init configures the global hub. A nil config leaves Sentry disabled and every
// capture below becomes a no-op.
func Init(cfg *config.SentryConfig, release string) error {
	if cfg == nil {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		SampleRate:       cfg.SampleRate,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
		Environment:      cfg.Environment,
		Release:          release,
	})
}

func Flush() {
	sentry.Flush(flushTimeout)
}

func CaptureCurrentHubException(err error, level sentry.Level) {
	CaptureException(sentry.CurrentHub(), err, level)
}

func CaptureException(hub *sentry.Hub, err error, level sentry.Level) {
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		hub.CaptureException(err)
	})
}

func StartSentryTransaction(ctx context.Context, operation, description string) (*sentry.Span, context.Context) {
	transaction := sentry.StartTransaction(ctx, operation)
	transaction.Description = description
	return transaction, transaction.Context()
}

func StartSentrySpan(ctx context.Context, operation, description string) (*sentry.Span, context.Context) {
	span := sentry.StartSpan(ctx, operation)
	span.Description = description
	return span, span.Context()
}
