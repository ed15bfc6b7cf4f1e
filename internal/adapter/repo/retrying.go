package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/rs/zerolog"

	"inksynth/internal/domain"
)

// RetryConfig tunes RetryingDirectory.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// DefaultRetryConfig retries three times starting at 100ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: 100 * time.Millisecond, Multiplier: 2.0}
}

// RetryingDirectory retries transient failures of the wrapped directory
// with exponential backoff. Missing users and cancelled contexts are
// returned at once.
type RetryingDirectory struct {
	next   domain.UserDirectory
	logger zerolog.Logger
	get    retry.Retry[*domain.User]
	update retry.Retry[struct{}]
}

// NewRetryingDirectory decorates next.
func NewRetryingDirectory(next domain.UserDirectory, cfg RetryConfig, logger zerolog.Logger) *RetryingDirectory {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
	nonRetryable := []error{domain.ErrNotFound, context.Canceled, context.DeadlineExceeded}

	return &RetryingDirectory{
		next:   next,
		logger: logger,
		get: retry.New[*domain.User](retry.Config{
			MaxAttempts:        cfg.MaxAttempts,
			InitialDelay:       cfg.InitialDelay,
			BackoffPolicy:      retry.BackoffExponential,
			Multiplier:         cfg.Multiplier,
			NonRetryableErrors: nonRetryable,
		}),
		update: retry.New[struct{}](retry.Config{
			MaxAttempts:        cfg.MaxAttempts,
			InitialDelay:       cfg.InitialDelay,
			BackoffPolicy:      retry.BackoffExponential,
			Multiplier:         cfg.Multiplier,
			NonRetryableErrors: nonRetryable,
		}),
	}
}

// GetUser reads through the wrapped directory.
func (d *RetryingDirectory) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var (
		attempt int
		last    error
	)
	u, err := d.get.Do(ctx, func(ctx context.Context) (*domain.User, error) {
		attempt++
		u, err := d.next.GetUser(ctx, id)
		if err != nil {
			last = err
			d.logAttempt(err, attempt, "read")
		}
		return u, err
	})
	if err != nil {
		return nil, lastError(last, err)
	}
	return u, nil
}

// UpdatePublicMetadata writes through the wrapped directory. The write
// replaces the whole blob, so repeating it is safe.
func (d *RetryingDirectory) UpdatePublicMetadata(ctx context.Context, id string, metadata json.RawMessage) error {
	var (
		attempt int
		last    error
	)
	_, err := d.update.Do(ctx, func(ctx context.Context) (struct{}, error) {
		attempt++
		err := d.next.UpdatePublicMetadata(ctx, id, metadata)
		if err != nil {
			last = err
			d.logAttempt(err, attempt, "write")
		}
		return struct{}{}, err
	})
	if err != nil {
		return lastError(last, err)
	}
	return nil
}

func (d *RetryingDirectory) logAttempt(err error, attempt int, op string) {
	d.logger.Warn().Err(err).Int("attempt", attempt).Str("op", op).Msg("user directory call failed")
}

// lastError prefers the error of the final attempt over the retry wrapper.
func lastError(last, wrapped error) error {
	if last != nil {
		return last
	}
	return wrapped
}

var _ domain.UserDirectory = (*RetryingDirectory)(nil)
