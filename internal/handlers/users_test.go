package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"recipedia/models"
)

func postJSON(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateUserEndpoint(t *testing.T) {
	withTestDatabase(t)

	w := httptest.NewRecorder()
	CreateUser(w, postJSON("/api/user/create", `{"email":"Chef@Example.COM","name":"Julia","password":"secret99"}`))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp profileResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Email != "chef@example.com" {
		t.Fatalf("response email = %q, want lowercased", resp.Email)
	}
	if strings.Contains(w.Body.String(), "secret99") || strings.Contains(w.Body.String(), "password") {
		t.Fatalf("password leaked in response: %s", w.Body.String())
	}

	var stored models.User
	if err := database.Where("email = ?", "chef@example.com").First(&stored).Error; err != nil {
		t.Fatalf("stored user not found: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret99")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if !stored.Active {
		t.Fatal("new accounts must start active")
	}
	if stored.Staff || stored.Superuser {
		t.Fatal("new accounts must not be staff or superuser")
	}
}

func TestCreateUserValidation(t *testing.T) {
	withTestDatabase(t)

	cases := []struct {
		name string
		body string
	}{
		{"empty email", `{"email":"","password":"secret99"}`},
		{"missing email", `{"password":"secret99"}`},
		{"malformed email", `{"email":"not-an-email","password":"secret99"}`},
		{"short password", `{"email":"chef@example.com","password":"pw"}`},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			CreateUser(w, postJSON("/api/user/create", tt.body))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}

	var count int64
	if err := database.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no users persisted, found %d", count)
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	withTestDatabase(t)
	seedUser(t, "chef@example.com", "secret99")

	w := httptest.NewRecorder()
	CreateUser(w, postJSON("/api/user/create", `{"email":"Chef@example.com","password":"other999"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %d", w.Code)
	}
}

func TestCreateUserMethodNotAllowed(t *testing.T) {
	withTestDatabase(t)

	w := httptest.NewRecorder()
	CreateUser(w, httptest.NewRequest(http.MethodGet, "/api/user/create", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestCreateTokenEndpoint(t *testing.T) {
	withTestDatabase(t)
	tm := withTestTokens(t)
	user := seedUser(t, "chef@example.com", "rightpass")

	w := httptest.NewRecorder()
	CreateToken(w, postJSON("/api/user/token", `{"email":"chef@example.com","password":"rightpass"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp tokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	userID, err := tm.Verify(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if userID != user.ID {
		t.Fatalf("token user = %d, want %d", userID, user.ID)
	}
}

func TestCreateTokenRejectsBadCredentials(t *testing.T) {
	withTestDatabase(t)
	withTestTokens(t)
	seedUser(t, "chef@example.com", "rightpass")

	cases := []struct {
		name string
		body string
	}{
		{"wrong password", `{"email":"chef@example.com","password":"wrongpass"}`},
		{"unknown email", `{"email":"nobody@example.com","password":"rightpass"}`},
	}

	var bodies []string
	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			CreateToken(w, postJSON("/api/user/token", tt.body))
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			bodies = append(bodies, w.Body.String())
		})
	}

	// an attacker must not learn whether the email exists
	if len(bodies) == 2 && bodies[0] != bodies[1] {
		t.Fatalf("failure responses differ: %q vs %q", bodies[0], bodies[1])
	}
}

func TestMeRead(t *testing.T) {
	withTestDatabase(t)
	user := seedUser(t, "chef@example.com", "rightpass")
	user.Name = "Julia"
	if err := database.Save(user).Error; err != nil {
		t.Fatalf("failed to update user: %v", err)
	}

	w := httptest.NewRecorder()
	Me(w, asUser(httptest.NewRequest(http.MethodGet, "/api/user/me", nil), user))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp profileResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Email != "chef@example.com" || resp.Name != "Julia" {
		t.Fatalf("unexpected profile: %+v", resp)
	}
}

func TestMePatchUpdatesNameAndPassword(t *testing.T) {
	withTestDatabase(t)
	user := seedUser(t, "chef@example.com", "rightpass")

	req := httptest.NewRequest(http.MethodPatch, "/api/user/me", strings.NewReader(`{"name":"New Name","password":"newpass9"}`))
	w := httptest.NewRecorder()
	Me(w, asUser(req, user))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var stored models.User
	if err := database.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.Name != "New Name" {
		t.Fatalf("name = %q, want %q", stored.Name, "New Name")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("newpass9")); err != nil {
		t.Fatalf("password was not rehashed: %v", err)
	}
}

func TestMePatchKeepsOmittedFields(t *testing.T) {
	withTestDatabase(t)
	user := seedUser(t, "chef@example.com", "rightpass")
	user.Name = "Julia"
	if err := database.Save(user).Error; err != nil {
		t.Fatalf("failed to update user: %v", err)
	}

	req := httptest.NewRequest(http.MethodPatch, "/api/user/me", strings.NewReader(`{"name":"Updated"}`))
	w := httptest.NewRecorder()
	Me(w, asUser(req, user))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var stored models.User
	if err := database.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("rightpass")); err != nil {
		t.Fatal("password must be untouched when omitted from PATCH")
	}
}

func TestMePatchRejectsShortPassword(t *testing.T) {
	withTestDatabase(t)
	user := seedUser(t, "chef@example.com", "rightpass")

	req := httptest.NewRequest(http.MethodPatch, "/api/user/me", strings.NewReader(`{"password":"pw"}`))
	w := httptest.NewRecorder()
	Me(w, asUser(req, user))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestMePostDisallowed(t *testing.T) {
	withTestDatabase(t)
	user := seedUser(t, "chef@example.com", "rightpass")

	w := httptest.NewRecorder()
	Me(w, asUser(postJSON("/api/user/me", `{}`), user))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for POST /me, got %d", w.Code)
	}
}
