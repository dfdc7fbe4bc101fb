package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	applog "recipedia/internal/log"
	"recipedia/internal/storage"
	"recipedia/internal/token"
	"recipedia/models"
)

var (
	database *gorm.DB
	tokens   *token.Manager
	images   storage.Store
)

type contextKey string

const userContextKey contextKey = "recipedia:user"

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(db *gorm.DB, tm *token.Manager, st storage.Store) {
	database = db
	tokens = tm
	images = st
}

func createUser(ctx context.Context, email, name, password string) (*models.User, error) {
	if database == nil {
		return nil, gorm.ErrInvalidDB
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        models.NormalizeEmail(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hashed),
		Active:       true,
	}

	if err := database.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

func findUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if database == nil {
		return nil, gorm.ErrInvalidDB
	}

	user := &models.User{}
	err := database.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(user).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

// authenticate verifies credentials and returns the matching active user, or
// nil when the email is unknown, the password does not match, or the account
// is deactivated. Callers map nil to an authentication failure; the three
// cases are deliberately indistinguishable.
func authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := findUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if !user.Active {
		return nil, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil
	}

	return user, nil
}

// RequireAuthentication resolves the bearer token and loads the calling user
// before handing off to the wrapped handler. Requests without a valid token
// are rejected with 401.
func RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if database == nil || tokens == nil {
			applog.Error(r.Context(), "authentication dependencies unavailable")
			writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}

		raw := bearerToken(r)
		if raw == "" {
			writeJSONError(w, http.StatusUnauthorized, "authentication credentials were not provided")
			return
		}

		userID, err := tokens.Verify(raw)
		if err != nil {
			applog.Debug(r.Context(), "bearer token rejected", "error", err)
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		user := &models.User{}
		if err := database.WithContext(r.Context()).First(user, userID).Error; err != nil {
			applog.Debug(r.Context(), "token user not found", "user", userID, "error", err)
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if !user.Active {
			writeJSONError(w, http.StatusUnauthorized, "account is deactivated")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, value, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(value)
}

// currentUser returns the authenticated caller placed on the request context
// by RequireAuthentication.
func currentUser(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	return user, ok && user != nil
}
