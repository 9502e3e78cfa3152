package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"cinebase/api"
	"cinebase/services/accounts"
	"cinebase/services/sessions"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	accounts *accounts.Service
	sessions *sessions.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(accountsSvc *accounts.Service, sessionsSvc *sessions.Service) *AuthHandler {
	return &AuthHandler{
		accounts: accountsSvc,
		sessions: sessionsSvc,
	}
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginResponse represents the login response.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	IsAdmin   bool   `json:"isAdmin"`
}

// AccountResponse represents account info response.
type AccountResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"isAdmin"`
}

// Register creates a new account and opens a session for it.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.accounts.Register(req.Email, req.Name, req.Password)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, accounts.ErrEmailRequired), errors.Is(err, accounts.ErrPasswordRequired):
			status = http.StatusBadRequest
		case errors.Is(err, accounts.ErrEmailExists):
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}

	h.openSession(w, r, account.ID, account.Email, account.Name, account.IsAdmin, http.StatusCreated)
}

// Login authenticates a user and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.accounts.Authenticate(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.openSession(w, r, account.ID, account.Email, account.Name, account.IsAdmin, http.StatusOK)
}

func (h *AuthHandler) openSession(w http.ResponseWriter, r *http.Request, accountID, email, name string, isAdmin bool, status int) {
	userAgent := r.Header.Get("User-Agent")
	ipAddress := getClientIPAddress(r)

	session, err := h.sessions.Create(accountID, isAdmin, userAgent, ipAddress)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     api.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	resp := LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
		AccountID: accountID,
		Email:     email,
		Name:      name,
		IsAdmin:   isAdmin,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Logout invalidates the current session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := extractSessionToken(r)
	if token == "" {
		writeError(w, http.StatusBadRequest, "no session token")
		return
	}

	if err := h.sessions.Revoke(token); err != nil {
		// An already-expired session is fine to "log out" of.
		if !errors.Is(err, sessions.ErrSessionNotFound) {
			writeError(w, http.StatusInternalServerError, "failed to revoke session")
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     api.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "logged out"})
}

// Me returns the current authenticated account info.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token := extractSessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	session, err := h.sessions.Validate(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired session")
		return
	}

	account, ok := h.accounts.Get(session.AccountID)
	if !ok {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	resp := AccountResponse{
		ID:      account.ID,
		Email:   account.Email,
		Name:    account.Name,
		IsAdmin: account.IsAdmin,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Refresh extends the session expiration.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := extractSessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	session, err := h.sessions.Refresh(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired session")
		return
	}

	account, ok := h.accounts.Get(session.AccountID)
	if !ok {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	resp := LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
		AccountID: account.ID,
		Email:     account.Email,
		Name:      account.Name,
		IsAdmin:   account.IsAdmin,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ChangePassword updates the signed-in account's password after verifying
// the current one.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	token := extractSessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	session, err := h.sessions.Validate(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired session")
		return
	}

	account, ok := h.accounts.Get(session.AccountID)
	if !ok {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.accounts.Authenticate(account.Email, req.CurrentPassword); err != nil {
		writeError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	if err := h.accounts.UpdatePassword(account.ID, req.NewPassword); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, accounts.ErrPasswordRequired) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "password updated"})
}

// extractSessionToken pulls the session token from the Authorization header
// or the session cookie.
func extractSessionToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	if cookie, err := r.Cookie(api.SessionCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}

	return ""
}

// getClientIPAddress returns the remote address, honoring X-Forwarded-For
// when a proxy set it.
func getClientIPAddress(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
