package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/menu/internal/identity"
	"github.com/fjod/go_cart/menu/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	TerminalHeader  = "X-Terminal-ID"
	RequestIDHeader = "X-Request-ID"
)

// RequestLogger echoes the request id and stores a request scoped logger in
// the context. It must run after chi's middleware.RequestID.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	base = logger.OrNop(base)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := middleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set(RequestIDHeader, requestID)
			}

			log := base.With(zap.String("request_id", requestID))
			if terminal := r.Header.Get(TerminalHeader); terminal != "" {
				log = log.With(zap.String("terminal", terminal))
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), log)))

			log.Debug("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

// Authenticator resolves bearer tokens issued at login.
type Authenticator interface {
	Login(email, password string) (identity.Session, error)
	Logout(token string)
	Resolve(token string) (identity.Actor, error)
}

// IdentityMiddleware attaches the signed-in staff member to the context.
// Anonymous requests pass through; identity only personalizes orders.
func IdentityMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" || auth == nil {
				next.ServeHTTP(w, r)
				return
			}
			actor, err := auth.Resolve(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := identity.WithActor(r.Context(), actor)
			ctx = logger.WithContext(ctx, logger.FromContext(ctx, nil).With(zap.String("actor", actor.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func withTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), d)
}
