// Package httpclient builds the HTTP clients the extraction sources share.
package httpclient

import (
	"net/http"
	"time"
)

// Browser-like request headers. Upstreams are quicker to flag requests that
// arrive with Go's default User-Agent.
const (
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	AcceptLanguage = "en-US,en;q=0.9"
)

type headerTransport struct {
	base    http.RoundTripper
	referer string
	origin  string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", UserAgent)
	}
	clone.Header.Set("Accept-Language", AcceptLanguage)
	if t.referer != "" {
		clone.Header.Set("Referer", t.referer)
	}
	if t.origin != "" {
		clone.Header.Set("Origin", t.origin)
	}
	return t.base.RoundTrip(clone)
}

// New returns a client with the given overall timeout.
func New(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// NewBrowser returns a client whose transport injects browser-like headers
// (User-Agent, Accept-Language, and optionally Referer/Origin) on every
// request.
func NewBrowser(timeout time.Duration, referer, origin string) *http.Client {
	base, ok := http.DefaultTransport.(*http.Transport)
	var rt http.RoundTripper = http.DefaultTransport
	if ok {
		rt = base.Clone()
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &headerTransport{
			base:    rt,
			referer: referer,
			origin:  origin,
		},
	}
}
