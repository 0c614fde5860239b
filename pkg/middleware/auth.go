package middleware

import (
	"context"
	"net/http"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContributorKey is the context key for the resolved contributor identity
	ContributorKey ContextKey = "contributor"
)

// Contributor is the requesting identity resolved by the gateway. An empty
// ID means the request is anonymous.
type Contributor struct {
	ID    string
	Email string
}

// ContributorCtx resolves the contributor identity forwarded by the API
// gateway (which owns authentication) and stores it in the request context.
// Anonymous requests pass through: visibility rules handle them downstream.
func ContributorCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Contributor-Id")
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		contributor := Contributor{
			ID:    id,
			Email: r.Header.Get("X-Contributor-Email"),
		}
		ctx := context.WithValue(r.Context(), ContributorKey, contributor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetContributor extracts the contributor identity from the request context
func GetContributor(ctx context.Context) (Contributor, bool) {
	contributor, ok := ctx.Value(ContributorKey).(Contributor)
	return contributor, ok && contributor.ID != ""
}
