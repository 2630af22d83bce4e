package apod

import (
	"net"
	"net/http"
	"time"
)

// UserAgentTransport wraps an http.RoundTripper and adds a User-Agent header.
type UserAgentTransport struct {
	http.RoundTripper
	UserAgent string
}

// RoundTrip executes a single HTTP transaction, adding the User-Agent header.
func (t *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set("User-Agent", t.UserAgent)
	next := t.RoundTripper
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(clonedReq)
}

// NewHTTPClient returns a client with explicit timeouts at every stage so a stalled
// server cannot hang a scan. timeout bounds a whole request, body included.
func NewHTTPClient(timeout time.Duration, userAgent string) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   HTTPClientDialerTimeout,
			KeepAlive: HTTPClientKeepAlive,
		}).DialContext,
		ResponseHeaderTimeout: HTTPClientResponseHeaderTimeout,
		TLSHandshakeTimeout:   HTTPClientTLSHandshakeTimeout,
	}

	var rt http.RoundTripper = transport
	if userAgent != "" {
		rt = &UserAgentTransport{RoundTripper: transport, UserAgent: userAgent}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: rt,
	}
}
