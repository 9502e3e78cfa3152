package accounts

import (
	"errors"
	"testing"

	"cinebase/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(t.TempDir(), "admin@example.com", "admin-pass")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestAdminBootstrap(t *testing.T) {
	svc := newTestService(t)

	admin, ok := svc.Get(models.AdminAccountID)
	if !ok {
		t.Fatal("expected bootstrapped admin account")
	}
	if !admin.IsAdmin {
		t.Error("bootstrapped account should be admin")
	}
	if admin.Email != "admin@example.com" {
		t.Errorf("admin email = %q", admin.Email)
	}

	if _, err := svc.Authenticate("admin@example.com", "admin-pass"); err != nil {
		t.Errorf("admin authenticate: %v", err)
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService(t)

	account, err := svc.Register("user@example.com", "사용자", "hunter22")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if account.IsAdmin {
		t.Error("registered account should not be admin")
	}
	if account.PasswordHash == "hunter22" {
		t.Error("password must be hashed")
	}

	got, err := svc.Authenticate("User@Example.COM", "hunter22")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != account.ID {
		t.Errorf("authenticated wrong account: %s", got.ID)
	}

	if _, err := svc.Authenticate("user@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Register("user@example.com", "", "pw123456"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register("USER@example.com", "", "pw123456"); !errors.Is(err, ErrEmailExists) {
		t.Errorf("got %v, want ErrEmailExists", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Register("  ", "", "pw"); !errors.Is(err, ErrEmailRequired) {
		t.Errorf("got %v, want ErrEmailRequired", err)
	}
	if _, err := svc.Register("user@example.com", "", " "); !errors.Is(err, ErrPasswordRequired) {
		t.Errorf("got %v, want ErrPasswordRequired", err)
	}
}

func TestDeleteProtectsAdmin(t *testing.T) {
	svc := newTestService(t)

	account, err := svc.Register("user@example.com", "", "pw123456")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.Delete(models.AdminAccountID); !errors.Is(err, ErrCannotDeleteAdmin) {
		t.Errorf("got %v, want ErrCannotDeleteAdmin", err)
	}
	if err := svc.Delete(account.ID); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if svc.Exists(account.ID) {
		t.Error("account should be gone")
	}
}

func TestPersistenceAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	first, err := NewService(dir, "admin@example.com", "admin-pass")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	account, err := first.Register("user@example.com", "사용자", "hunter22")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	second, err := NewService(dir, "admin@example.com", "admin-pass")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	got, ok := second.Get(account.ID)
	if !ok {
		t.Fatal("account lost across restart")
	}
	if got.Email != "user@example.com" || got.Name != "사용자" {
		t.Errorf("unexpected account: %+v", got)
	}
	if _, err := second.Authenticate("user@example.com", "hunter22"); err != nil {
		t.Errorf("authenticate after reload: %v", err)
	}

	// The bootstrap must not mint a second admin on reload.
	admins := 0
	for _, a := range second.List() {
		if a.IsAdmin {
			admins++
		}
	}
	if admins != 1 {
		t.Errorf("admin count = %d, want 1", admins)
	}
}
