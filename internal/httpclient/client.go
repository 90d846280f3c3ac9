package httpclient

import (
	"net/http"
	"time"

	"summit/internal/logging"
)

// New builds an HTTP client with the given timeout. Requests are logged at
// debug level with their latency.
func New(timeout time.Duration, logger logging.Logger) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &loggingRoundTripper{
			base:   http.DefaultTransport,
			logger: logging.OrNop(logger),
		},
	}
}

type loggingRoundTripper struct {
	base   http.RoundTripper
	logger logging.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	started := time.Now()
	resp, err := t.base.RoundTrip(req)
	logger := logging.FromContext(req.Context(), t.logger)
	if err != nil {
		logger.Debug("%s %s failed after %s: %v", req.Method, req.URL.Path, time.Since(started), err)
		return nil, err
	}
	logger.Debug("%s %s -> %d in %s", req.Method, req.URL.Path, resp.StatusCode, time.Since(started))
	return resp, nil
}
