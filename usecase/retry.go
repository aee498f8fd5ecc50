package usecase

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultMaxAttempts = 3

// SleepFunc suspends between retry attempts. Tests inject a recording
// implementation; production code uses sleepContext.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// withRetry runs op up to attempts times, backing off 2^attempt seconds
// after each transient failure. Non-transient failures propagate
// immediately; after the last attempt the last error propagates. This is
// the sole retry point for outbound calls.
func withRetry(ctx context.Context, attempts int, sleep SleepFunc, logger *zap.Logger, op func() error) error {
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	if sleep == nil {
		sleep = sleepContext
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if !transient(err) || attempt == attempts {
			return err
		}
		backoff := time.Duration(1<<uint(attempt)) * time.Second
		logger.Warn("Transient failure, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		if sleepErr := sleep(ctx, backoff); sleepErr != nil {
			return err
		}
	}
	return err
}

// transient reports whether err is a network/transport-class failure worth
// retrying. Auth, validation, and quota errors are not.
func transient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code >= http.StatusInternalServerError
	}
	return false
}
