package client

import (
	"log/slog"
	"net/http"
	"time"
)

const userAgent = "athena/1.0"

// CreateHTTPClient initializes the HTTP client used to reach the document store.
// Every outgoing request carries JSON content negotiation headers and is logged at debug level.
func CreateHTTPClient(log *slog.Logger, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &jsonTransport{log: log, next: http.DefaultTransport},
		CheckRedirect: func(req *http.Request, _ []*http.Request) error {
			log.Debug("Redirected to URL", "URL", req.URL)

			return nil
		},
	}
}

type jsonTransport struct {
	log  *slog.Logger
	next http.RoundTripper
}

func (t *jsonTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrip must not modify the caller's request.
	req = req.Clone(req.Context())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	startTime := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.log.Debug("Document store request failed", "method", req.Method, "URL", req.URL, "error", err)
		return nil, err
	}

	t.log.Debug("Document store request",
		"method", req.Method,
		"URL", req.URL,
		"status", resp.StatusCode,
		"duration", time.Since(startTime),
	)

	return resp, nil
}
