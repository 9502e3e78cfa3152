package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"cinebase/models"
	"cinebase/services/accounts"
	"cinebase/services/sessions"
)

type accountService interface {
	List() []models.Account
	Delete(id string) error
}

var _ accountService = (*accounts.Service)(nil)

type sessionRevoker interface {
	RevokeAllForAccount(accountID string) int
}

var _ sessionRevoker = (*sessions.Service)(nil)

// AccountsHandler serves the admin user-management surface.
type AccountsHandler struct {
	Accounts accountService
	Sessions sessionRevoker
}

func NewAccountsHandler(accountsSvc accountService, sessionsSvc sessionRevoker) *AccountsHandler {
	return &AccountsHandler{Accounts: accountsSvc, Sessions: sessionsSvc}
}

// List returns every registered account, admin first. Admin only.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	all := h.Accounts.List()

	out := make([]AccountResponse, 0, len(all))
	for _, account := range all {
		out = append(out, AccountResponse{
			ID:      account.ID,
			Email:   account.Email,
			Name:    account.Name,
			IsAdmin: account.IsAdmin,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// Delete removes an account and revokes all of its sessions so the removed
// user is signed out everywhere. Admin only; the admin account is protected.
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.Accounts.Delete(id); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, accounts.ErrAccountNotFound):
			status = http.StatusNotFound
		case errors.Is(err, accounts.ErrCannotDeleteAdmin):
			status = http.StatusForbidden
		}
		writeError(w, status, err.Error())
		return
	}

	revoked := h.Sessions.RevokeAllForAccount(id)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":          "deleted",
		"revokedSessions": revoked,
	})
}
