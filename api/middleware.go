package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"cinebase/internal/auth"
	"cinebase/services/sessions"
)

// SessionCookieName is the cookie carrying the session token for browser
// clients.
const SessionCookieName = "session_token"

var (
	GetAccountID = auth.GetAccountID
	IsAdmin      = auth.IsAdmin
)

// AccountAuthMiddleware validates session tokens and rejects requests without
// one. Tokens can arrive via Authorization header, session cookie, or ?token=
// query param.
func AccountAuthMiddleware(sessionsSvc *sessions.Service) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Always allow OPTIONS for CORS
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if sessionsSvc == nil {
				writeAuthError(w, http.StatusInternalServerError, "session service unavailable")
				return
			}

			session, err := sessionsSvc.Validate(token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}

			next.ServeHTTP(w, r.WithContext(sessionContext(r.Context(), session.AccountID, session.IsAdmin, session)))
		})
	}
}

// OptionalAuthMiddleware injects account context when a valid token is
// present but never rejects the request. Guest-accessible surfaces use it so
// signed-in callers are still identified.
func OptionalAuthMiddleware(sessionsSvc *sessions.Service) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" || sessionsSvc == nil {
				next.ServeHTTP(w, r)
				return
			}

			session, err := sessionsSvc.Validate(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(sessionContext(r.Context(), session.AccountID, session.IsAdmin, session)))
		})
	}
}

// AdminOnlyMiddleware only allows admin accounts through.
func AdminOnlyMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if !IsAdmin(r) {
				writeAuthError(w, http.StatusForbidden, "admin account required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func sessionContext(ctx context.Context, accountID string, isAdmin bool, session any) context.Context {
	ctx = context.WithValue(ctx, auth.ContextKeyAccountID, accountID)
	ctx = context.WithValue(ctx, auth.ContextKeyIsAdmin, isAdmin)
	return context.WithValue(ctx, auth.ContextKeySession, session)
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// extractToken extracts the session token from the request.
// Priority: Authorization header > session cookie > ?token= query param.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if token := strings.TrimSpace(cookie.Value); token != "" {
			return token
		}
	}

	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token
	}

	return ""
}
