package middleware

import (
	"net/http"

	"dataportal/pkg/requestcontext"
)

// Identity lifts the upstream-authenticated subject headers into request
// context for logging and audit correlation.
//
// The upstream shell (IAP, OAuth proxy) authenticates the caller and
// forwards X-Subject-Email / X-Subject-Role. Handlers never authorize off
// these values implicitly: every mutating operation names its actor as an
// explicit parameter, and the service layer validates that parameter.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if subject := r.Header.Get("X-Subject-Email"); subject != "" {
			ctx = requestcontext.WithSubject(ctx, subject)
		}
		if role := r.Header.Get("X-Subject-Role"); role != "" {
			ctx = requestcontext.WithRole(ctx, role)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
