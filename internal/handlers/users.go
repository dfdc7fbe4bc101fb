package handlers

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	applog "recipedia/internal/log"
	"recipedia/models"
)

// minPasswordLength mirrors the account policy enforced at registration and
// on password change.
const minPasswordLength = 5

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type profileResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type profileUpdateRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

// CreateUser registers a new account. The email is normalized to lower case
// and the password is stored only as a bcrypt hash.
func CreateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "registration not available")
		return
	}

	var payload registerRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	fields := map[string]string{}
	if !models.ValidEmail(payload.Email) {
		fields["email"] = "a valid email address is required"
	}
	if len(payload.Password) < minPasswordLength {
		fields["password"] = "password must be at least 5 characters"
	}
	if len(fields) > 0 {
		applog.Debug(r.Context(), "registration rejected", "fields", len(fields))
		writeValidationError(w, fields)
		return
	}

	if _, err := findUserByEmail(r.Context(), payload.Email); err == nil {
		writeValidationError(w, map[string]string{"email": "a user with this email already exists"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		applog.Error(r.Context(), "failed to check existing account", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to register account")
		return
	}

	user, err := createUser(r.Context(), payload.Email, payload.Name, payload.Password)
	if err != nil {
		applog.Error(r.Context(), "failed to create account", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to register account")
		return
	}

	applog.Info(r.Context(), "account registered", "user", user.ID)
	writeJSON(w, http.StatusCreated, profileResponse{Email: user.Email, Name: user.Name})
}

// CreateToken exchanges valid credentials for a bearer token. The failure
// response never reveals whether the email exists.
func CreateToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil || tokens == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "authentication not available")
		return
	}

	var payload tokenRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		applog.Error(r.Context(), "failed to authenticate", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to sign in")
		return
	}
	if user == nil {
		writeJSONError(w, http.StatusUnauthorized, "unable to authenticate with provided credentials")
		return
	}

	signed, err := tokens.Issue(user.ID)
	if err != nil {
		applog.Error(r.Context(), "failed to issue token", "error", err, "user", user.ID)
		writeJSONError(w, http.StatusInternalServerError, "unable to sign in")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: signed})
}

// Me serves the authenticated caller's own profile. GET reads it, PATCH
// applies a partial update; POST is explicitly disallowed.
func Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, profileResponse{Email: user.Email, Name: user.Name})
	case http.MethodPatch:
		updateProfile(w, r, user)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func updateProfile(w http.ResponseWriter, r *http.Request, user *models.User) {
	var payload profileUpdateRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	updates := map[string]any{}
	if payload.Name != nil {
		updates["name"] = strings.TrimSpace(*payload.Name)
	}
	if payload.Password != nil {
		if len(*payload.Password) < minPasswordLength {
			writeValidationError(w, map[string]string{"password": "password must be at least 5 characters"})
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*payload.Password), bcrypt.DefaultCost)
		if err != nil {
			applog.Error(r.Context(), "failed to hash password", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "unable to update profile")
			return
		}
		updates["password_hash"] = string(hashed)
	}

	if len(updates) > 0 {
		if err := database.WithContext(r.Context()).Model(user).Updates(updates).Error; err != nil {
			applog.Error(r.Context(), "failed to update profile", "error", err, "user", user.ID)
			writeJSONError(w, http.StatusInternalServerError, "unable to update profile")
			return
		}
		if err := database.WithContext(r.Context()).First(user, user.ID).Error; err != nil {
			applog.Error(r.Context(), "failed to reload profile", "error", err, "user", user.ID)
			writeJSONError(w, http.StatusInternalServerError, "unable to update profile")
			return
		}
	}

	writeJSON(w, http.StatusOK, profileResponse{Email: user.Email, Name: user.Name})
}
