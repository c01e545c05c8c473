package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/accountledger/internal/domain"
	"github.com/iho/accountledger/internal/infrastructure/auth"
	"github.com/iho/accountledger/internal/infrastructure/logger"
	"github.com/iho/accountledger/internal/infrastructure/metrics"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// ActorContextKey is the context key for the acting user
	ActorContextKey ContextKey = "actor"
)

// Headers read by HeaderActor when token auth is disabled.
const (
	ActorIDHeader   = "X-Actor-ID"
	ActorNameHeader = "X-Actor-Name"
	ActorRoleHeader = "X-Actor-Role"
)

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, ActorContextKey, actor)
}

// ActorFromContext extracts the acting user from context
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(ActorContextKey).(domain.Actor)
	return actor, ok
}

func withActorLogger(r *http.Request, actor domain.Actor) context.Context {
	ctx := WithActor(r.Context(), actor)
	return logger.WithContext(ctx, *zerolog.Ctx(ctx), "", actor.ID)
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// AuthMiddleware requires a valid bearer token on every request.
func AuthMiddleware(jwtManager *auth.JWTManager, m *metrics.Metrics) func(http.Handler) http.Handler {
	fail := func(w http.ResponseWriter, reason, message string) {
		if m != nil {
			m.AuthFailures.WithLabelValues(reason).Inc()
		}
		unauthorized(w, message)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				fail(w, "missing_header", "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				fail(w, "bad_header", "invalid authorization header format")
				return
			}

			claims, err := jwtManager.Verify(parts[1])
			if err != nil {
				reason := "invalid_token"
				if errors.Is(err, domain.ErrExpiredToken) {
					reason = "expired_token"
				}
				fail(w, reason, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(withActorLogger(r, claims.Actor())))
		})
	}
}

// HeaderActor trusts the actor headers set by an upstream gateway. Requests
// without an actor id get fallback, which may be the zero Actor.
func HeaderActor(fallback domain.Actor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := fallback

			if id := strings.TrimSpace(r.Header.Get(ActorIDHeader)); id != "" {
				actor = domain.Actor{
					ID:   id,
					Name: r.Header.Get(ActorNameHeader),
					Role: domain.Role(strings.ToLower(r.Header.Get(ActorRoleHeader))),
				}
			}

			if actor.ID == "" {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withActorLogger(r, actor)))
		})
	}
}
