package service

import "errors"

// ErrRateLimited means no permit was available for this admission attempt.
// It is the only transient failure in the pipeline; store errors are never
// retried.
var ErrRateLimited = errors.New("rate limit exceeded")

// IsRateLimited reports whether err is (or wraps) the admission failure.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
