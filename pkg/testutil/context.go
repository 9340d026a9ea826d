package testutil

import (
	"net/http"

	"idverify/pkg/requestcontext"
)

// WithSubject simulates the auth middleware for an authenticated client.
func WithSubject(req *http.Request, subject string) *http.Request {
	return req.WithContext(requestcontext.WithSubject(req.Context(), subject))
}

// WithRequestID simulates the request ID middleware.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
