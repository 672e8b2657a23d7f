package extract

import (
	"context"
	"math/rand"
	"time"

	"github.com/vietddude/extractor/internal/core/domain"
	"github.com/vietddude/extractor/internal/core/errcode"
)

// Backoff selects the delay curve between retries.
type Backoff string

const (
	BackoffExponential Backoff = "exponential"
	BackoffLinear      Backoff = "linear"
	BackoffNone        Backoff = "none"
)

// RetryOptions controls WithRetry.
type RetryOptions struct {
	MaxRetries      int           // retries after the first attempt; default 2
	BaseDelay       time.Duration // default 1s
	Backoff         Backoff       // default exponential
	RetryWithCookie bool          // allow escalation to a credentialed attempt
	HasCookie       bool          // a credential is configured for this request
}

// DefaultRetryOptions matches the orchestrator defaults.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:      2,
		BaseDelay:       time.Second,
		Backoff:         BackoffExponential,
		RetryWithCookie: true,
	}
}

// AttemptFunc is one externally supplied extraction call. useCookie tells
// the function to attach the selected credential.
type AttemptFunc func(ctx context.Context, useCookie bool) *domain.ExtractionResult

// jitterMax is added to every backoff delay to spread retries out.
const jitterMax = 500 * time.Millisecond

// WithRetry runs attempt with bounded retries and credential escalation.
//
// The first call always runs without a credential. Retryable failures
// (timeouts, network errors, platform API errors) are retried up to
// MaxRetries. Cookie-recoverable failures are retried once with
// useCookie=true, but only when a credential is configured. Everything else
// is terminal. The last failure is returned unchanged; a panic inside
// attempt is converted to a terminal UNKNOWN failure.
func WithRetry(ctx context.Context, attempt AttemptFunc, opts RetryOptions) *domain.ExtractionResult {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.Backoff == "" {
		opts.Backoff = BackoffExponential
	}

	useCookie := false
	var last *domain.ExtractionResult

	for attemptNo := 0; ; attemptNo++ {
		res := runAttempt(ctx, attempt, useCookie)
		if res.Success {
			return res
		}
		last = res

		code := res.ErrorCode
		if code == "" {
			code = errcode.Detect(res.Error)
			res.ErrorCode = code
		}

		if attemptNo >= opts.MaxRetries {
			return last
		}

		switch {
		case errcode.Retryable(code):
			// retried as-is
		case errcode.RetryWithCookie(code) && opts.RetryWithCookie && opts.HasCookie && !useCookie:
			useCookie = true
		default:
			return last
		}

		delay := backoffDelay(opts, attemptNo) + time.Duration(rand.Int63n(int64(jitterMax)))
		select {
		case <-ctx.Done():
			return last
		case <-time.After(delay):
		}
	}
}

// runAttempt isolates the panic recovery so a broken extractor surfaces as
// a structured UNKNOWN failure instead of crossing the orchestrator.
func runAttempt(ctx context.Context, attempt AttemptFunc, useCookie bool) (res *domain.ExtractionResult) {
	defer func() {
		if r := recover(); r != nil {
			res = domain.Failure(errcode.Unknown, "")
		}
	}()

	res = attempt(ctx, useCookie)
	if res == nil {
		res = domain.Failure(errcode.Unknown, "")
	}
	return res
}

func backoffDelay(opts RetryOptions, attemptNo int) time.Duration {
	switch opts.Backoff {
	case BackoffNone:
		return 0
	case BackoffLinear:
		return opts.BaseDelay * time.Duration(attemptNo+1)
	default:
		return opts.BaseDelay << uint(attemptNo)
	}
}
