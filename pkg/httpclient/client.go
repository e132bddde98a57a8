package httpclient

import (
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// Client is the subset of *http.Client used for outbound calls, so tests can
// substitute a fake
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewStandardClient returns an *http.Client with the given timeout
// (10s if timeout is not positive)
func NewStandardClient(timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
