package models

import "time"

// AdminAccountID is the fixed ID of the bootstrapped admin account.
const AdminAccountID = "admin"

// Account is a registered user. Admin accounts can manage the catalog and
// moderate any review; regular accounts own their favorites and reviews.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"` // bcrypt hash, excluded from API responses
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AccountStorage is the on-disk representation. Unlike Account it carries the
// password hash.
type AccountStorage struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"passwordHash"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ToStorage converts an Account for persistence.
func (a Account) ToStorage() AccountStorage {
	return AccountStorage{
		ID:           a.ID,
		Email:        a.Email,
		Name:         a.Name,
		PasswordHash: a.PasswordHash,
		IsAdmin:      a.IsAdmin,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// ToAccount converts a stored record back to an Account.
func (s AccountStorage) ToAccount() Account {
	return Account{
		ID:           s.ID,
		Email:        s.Email,
		Name:         s.Name,
		PasswordHash: s.PasswordHash,
		IsAdmin:      s.IsAdmin,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}
