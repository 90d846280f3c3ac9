package httpclient

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"
)

// ResponseTooLargeError reports that the response body exceeded the limit.
type ResponseTooLargeError struct {
	Limit int64
}

func (e ResponseTooLargeError) Error() string {
	return fmt.Sprintf("response body exceeded limit of %d bytes", e.Limit)
}

// IsResponseTooLarge reports whether the error indicates a response limit violation.
func IsResponseTooLarge(err error) bool {
	var limitErr ResponseTooLargeError
	return errors.As(err, &limitErr)
}

// ReadAllWithLimit reads the body up to limit bytes. limit <= 0 reads everything.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	lr := &io.LimitedReader{R: r, N: limit + 1}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ResponseTooLargeError{Limit: limit}
	}
	return data, nil
}

type rateLimitedRoundTripper struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

// WrapTransportWithRateLimit paces outgoing requests to rps with the given
// burst. A non-positive rps returns base unchanged. Waiting honours the
// request context, so a cancelled request never reaches the backend.
func WrapTransportWithRateLimit(base http.RoundTripper, rps float64, burst int) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if rps <= 0 {
		return base
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimitedRoundTripper{
		base:    base,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (t *rateLimitedRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return t.base.RoundTrip(req)
}
