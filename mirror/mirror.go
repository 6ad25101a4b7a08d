// Package mirror iterates over equivalent instances of a third-party API.
// Mirrors are independently unreliable; a failure on one is expected and
// never escalates past this layer.
package mirror

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Operation performs the per-endpoint request against one mirror base URL.
type Operation func(ctx context.Context, endpoint string) (*http.Response, error)

// Body size guard against a mirror streaming garbage instead of JSON.
const maxBodyBytes = 8 << 20

// First tries each endpoint in declared order and returns the body of the
// first response that transported, has a 2xx status, and is not an HTML
// error page substituted for JSON. Exhaustion returns ok=false, never an
// error: absence of a working mirror is a recoverable condition here.
func First(ctx context.Context, log logrus.FieldLogger, endpoints []string, op Operation) ([]byte, string, bool) {
	for _, endpoint := range endpoints {
		if ctx.Err() != nil {
			return nil, "", false
		}

		body, ok := attempt(ctx, log, endpoint, op)
		if ok {
			return body, endpoint, true
		}
	}
	return nil, "", false
}

func attempt(ctx context.Context, log logrus.FieldLogger, endpoint string, op Operation) ([]byte, bool) {
	resp, err := op(ctx, endpoint)
	if err != nil {
		log.WithFields(logrus.Fields{
			"mirror": endpoint,
			"error":  err,
		}).Debug("Mirror request failed")
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithFields(logrus.Fields{
			"mirror": endpoint,
			"status": resp.StatusCode,
		}).Debug("Mirror rejected request")
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.WithFields(logrus.Fields{
			"mirror": endpoint,
			"error":  err,
		}).Debug("Mirror body read failed")
		return nil, false
	}

	// Some dead mirrors answer 200 with an HTML landing page where JSON is
	// expected. Classify that as a failed mirror, not a parse candidate.
	if LooksLikeMarkup(body) {
		log.WithField("mirror", endpoint).Debug("Mirror returned markup instead of JSON")
		return nil, false
	}

	return body, true
}

// LooksLikeMarkup reports whether a body begins with a markup delimiter
// after leading whitespace.
func LooksLikeMarkup(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '<'
}
