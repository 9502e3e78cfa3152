package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cinebase/services/accounts"
	"cinebase/services/sessions"
)

func newAuthHandlerForTest(t *testing.T) *AuthHandler {
	t.Helper()

	accountsSvc, err := accounts.NewService(t.TempDir(), "admin@example.com", "admin-pass")
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	sessionsSvc, err := sessions.NewService("", time.Hour)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	t.Cleanup(sessionsSvc.Close)

	return NewAuthHandler(accountsSvc, sessionsSvc)
}

func TestLoginHandler(t *testing.T) {
	h := newAuthHandlerForTest(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email": "admin@example.com", "password": "admin-pass"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected session token")
	}
	if !resp.IsAdmin {
		t.Error("admin login should carry the admin flag")
	}

	cookies := rec.Result().Cookies()
	found := false
	for _, c := range cookies {
		if c.Name == "session_token" && c.Value == resp.Token {
			found = true
			if !c.HttpOnly {
				t.Error("session cookie should be HttpOnly")
			}
		}
	}
	if !found {
		t.Error("session cookie not set")
	}
}

func TestLoginHandlerBadCredentials(t *testing.T) {
	h := newAuthHandlerForTest(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email": "admin@example.com", "password": "wrong"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRegisterThenMe(t *testing.T) {
	h := newAuthHandlerForTest(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email": "user@example.com", "name": "사용자", "password": "hunter22"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}

	var login LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&login); err != nil {
		t.Fatalf("decode: %v", err)
	}

	meReq := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	meReq.Header.Set("Authorization", "Bearer "+login.Token)
	meRec := httptest.NewRecorder()
	h.Me(meRec, meReq)

	if meRec.Code != http.StatusOK {
		t.Fatalf("me status = %d: %s", meRec.Code, meRec.Body.String())
	}
	var me AccountResponse
	if err := json.NewDecoder(meRec.Body).Decode(&me); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if me.Email != "user@example.com" || me.IsAdmin {
		t.Errorf("unexpected account: %+v", me)
	}
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	h := newAuthHandlerForTest(t)

	body := `{"email": "user@example.com", "password": "hunter22"}`
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first register: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Errorf("second register: status = %d, want 409", rec.Code)
	}
}

func TestChangePassword(t *testing.T) {
	h := newAuthHandlerForTest(t)

	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email": "user@example.com", "password": "hunter22"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}
	var login LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&login); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Wrong current password is rejected.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/password",
		strings.NewReader(`{"currentPassword": "wrong", "newPassword": "newpass99"}`))
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	h.ChangePassword(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong current password: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/auth/password",
		strings.NewReader(`{"currentPassword": "hunter22", "newPassword": "newpass99"}`))
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	h.ChangePassword(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("change password: status = %d: %s", rec.Code, rec.Body.String())
	}

	// Only the new password logs in.
	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email": "user@example.com", "password": "hunter22"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("old password: status = %d, want 401", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email": "user@example.com", "password": "newpass99"}`)))
	if rec.Code != http.StatusOK {
		t.Errorf("new password: status = %d, want 200", rec.Code)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	h := newAuthHandlerForTest(t)

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email": "admin@example.com", "password": "admin-pass"}`)))
	var login LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&login); err != nil {
		t.Fatalf("decode: %v", err)
	}

	outReq := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	outReq.Header.Set("Authorization", "Bearer "+login.Token)
	outRec := httptest.NewRecorder()
	h.Logout(outRec, outReq)
	if outRec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", outRec.Code)
	}

	meReq := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	meReq.Header.Set("Authorization", "Bearer "+login.Token)
	meRec := httptest.NewRecorder()
	h.Me(meRec, meReq)
	if meRec.Code != http.StatusUnauthorized {
		t.Errorf("me after logout: status = %d, want 401", meRec.Code)
	}
}
