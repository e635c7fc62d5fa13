package testutil

import (
	"context"
	"net/http"

	"blocktrust/internal/platform/middleware"
	id "blocktrust/pkg/domain"
)

// WithAccount adds an authenticated account address to the request context,
// simulating what the auth middleware does for authenticated requests.
// Invalid addresses are silently ignored.
func WithAccount(req *http.Request, account string) *http.Request {
	parsed, err := id.ParseAccount(account)
	if err != nil {
		return req
	}
	ctx := context.WithValue(req.Context(), middleware.ContextKeyAccount, parsed.String())
	return req.WithContext(ctx)
}

// WithAdmin marks the request context as carrying an admin token, on top of
// the authenticated account.
func WithAdmin(req *http.Request, account string) *http.Request {
	req = WithAccount(req, account)
	ctx := context.WithValue(req.Context(), middleware.ContextKeyAdmin, true)
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
