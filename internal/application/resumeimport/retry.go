package resumeimport

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

var ErrAttemptTimeout = errors.New("operation timed out")

// DefaultRetryablePatterns classify transient infrastructure failures.
var DefaultRetryablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)network`),
	regexp.MustCompile(`(?i)timeout|timed out`),
	regexp.MustCompile(`(?i)ECONNRESET|connection reset`),
	regexp.MustCompile(`(?i)ETIMEDOUT`),
	regexp.MustCompile(`(?i)connection refused`),
	regexp.MustCompile(`(?i)fetch failed`),
	regexp.MustCompile(`(?i)rate limit`),
	regexp.MustCompile(`\b429\b`),
	regexp.MustCompile(`\b502\b`),
	regexp.MustCompile(`\b503\b`),
	regexp.MustCompile(`\b504\b`),
}

type RetryOptions struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	// AttemptTimeout bounds every single attempt when positive.
	AttemptTimeout    time.Duration
	RetryablePatterns []*regexp.Regexp
}

func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 2,
		RetryablePatterns: DefaultRetryablePatterns,
	}
}

func (o RetryOptions) withDefaults() RetryOptions {
	d := DefaultRetryOptions()
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = d.InitialDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = d.MaxDelay
	}
	if o.BackoffMultiplier < 1 {
		o.BackoffMultiplier = d.BackoffMultiplier
	}
	if len(o.RetryablePatterns) == 0 {
		o.RetryablePatterns = d.RetryablePatterns
	}
	return o
}

// RetryAttempt describes a failed attempt that is about to be retried.
type RetryAttempt struct {
	Operation  string
	Attempt    int
	MaxRetries int
	Delay      time.Duration
	Err        error
}

type RetryObserver func(ctx context.Context, attempt RetryAttempt)

// RetryExecutor runs fallible calls with classification-aware exponential backoff.
type RetryExecutor struct {
	opts  RetryOptions
	sleep func(ctx context.Context, d time.Duration) bool
	log   logrus.FieldLogger
}

func NewRetryExecutor(opts RetryOptions, log logrus.FieldLogger) *RetryExecutor {
	return &RetryExecutor{
		opts:  opts.withDefaults(),
		sleep: sleepWithContext,
		log:   log,
	}
}

// WithSleeper replaces the backoff sleep, mainly for tests.
func (r *RetryExecutor) WithSleeper(sleep func(ctx context.Context, d time.Duration) bool) *RetryExecutor {
	clone := *r
	clone.sleep = sleep
	return &clone
}

func (r *RetryExecutor) Options() RetryOptions {
	return r.opts
}

// IsRetryable reports whether err is a transient failure worth another attempt.
func (r *RetryExecutor) IsRetryable(err error) bool {
	return classifyRetryable(err, r.opts.RetryablePatterns)
}

func classifyRetryable(err error, patterns []*regexp.Regexp) bool {
	if err == nil {
		return false
	}
	if domain.IsExtractionError(err) {
		return false
	}
	if errors.Is(err, domain.ErrDuplicateContent) ||
		errors.Is(err, domain.ErrEmptyFile) ||
		errors.Is(err, domain.ErrFileTooLarge) ||
		errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrAttemptTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, domain.ErrUpstreamUnavailable) {
		return true
	}
	msg := err.Error()
	for _, p := range patterns {
		if p.MatchString(msg) {
			return true
		}
	}
	return false
}

// Execute calls fn until it succeeds, fails with a non-retryable error, or
// runs out of retries. The last error is returned unchanged. onRetry, when
// set, is told about every attempt that will be retried.
func (r *RetryExecutor) Execute(ctx context.Context, operation string, fn func(ctx context.Context) error, onRetry RetryObserver) error {
	_, err := Retry(ctx, r, operation, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, onRetry)
	return err
}

// Retry is Execute for calls that produce a value. The value comes back only
// from the attempt whose result is returned: an attempt abandoned on its
// timeout may keep running, but whatever it produces is dropped.
func Retry[T any](ctx context.Context, r *RetryExecutor, operation string, fn func(ctx context.Context) (T, error), onRetry RetryObserver) (T, error) {
	delay := r.opts.InitialDelay

	for attempt := 0; ; attempt++ {
		value, err := runAttempt(ctx, r.opts.AttemptTimeout, fn)
		if err == nil {
			return value, nil
		}

		var zero T
		if ctx.Err() != nil {
			return zero, err
		}
		if attempt >= r.opts.MaxRetries || !r.IsRetryable(err) {
			return zero, err
		}

		wait := min(delay, r.opts.MaxDelay)
		r.log.WithFields(logrus.Fields{
			"operation": operation,
			"attempt":   attempt + 1,
			"max":       r.opts.MaxRetries,
			"delay_ms":  wait.Milliseconds(),
		}).WithError(err).Warn("retrying operation")

		if onRetry != nil {
			onRetry(ctx, RetryAttempt{
				Operation:  operation,
				Attempt:    attempt + 1,
				MaxRetries: r.opts.MaxRetries,
				Delay:      wait,
				Err:        err,
			})
		}

		if !r.sleep(ctx, wait) {
			return zero, fmt.Errorf("%s: %w", operation, ctx.Err())
		}
		delay = time.Duration(float64(delay) * r.opts.BackoffMultiplier)
		if delay > r.opts.MaxDelay {
			delay = r.opts.MaxDelay
		}
	}
}

type attemptResult[T any] struct {
	value T
	err   error
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan attemptResult[T], 1)
	go func() {
		value, err := fn(attemptCtx)
		done <- attemptResult[T]{value: value, err: err}
	}()

	var zero T
	select {
	case res := <-done:
		return res.value, res.err
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, fmt.Errorf("%w after %s", ErrAttemptTimeout, timeout)
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
