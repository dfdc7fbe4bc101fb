package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"recipedia/internal/storage"
	"recipedia/internal/token"
	"recipedia/models"
)

var testDBCounter atomic.Int64

// withTestDatabase swaps the package database for a fresh in-memory sqlite
// instance with the full schema migrated.
func withTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	original := database

	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Tag{}, &models.Ingredient{}, &models.Recipe{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	database = db
	t.Cleanup(func() {
		database = original
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func withTestTokens(t *testing.T) *token.Manager {
	t.Helper()
	original := tokens

	tm, err := token.NewManager("handlers-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to build token manager: %v", err)
	}

	tokens = tm
	t.Cleanup(func() { tokens = original })
	return tm
}

func withTestImages(t *testing.T) storage.Store {
	t.Helper()
	original := images

	store, err := storage.NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("failed to build disk store: %v", err)
	}

	images = store
	t.Cleanup(func() { images = original })
	return store
}

func seedUser(t *testing.T, email, password string) *models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:        models.NormalizeEmail(email),
		PasswordHash: string(hashed),
		Active:       true,
	}
	if err := database.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedTag(t *testing.T, owner *models.User, name string) *models.Tag {
	t.Helper()

	tag := &models.Tag{Name: name, OwnerID: owner.ID}
	if err := database.Create(tag).Error; err != nil {
		t.Fatalf("failed to seed tag: %v", err)
	}
	return tag
}

func seedIngredient(t *testing.T, owner *models.User, name string) *models.Ingredient {
	t.Helper()

	ingredient := &models.Ingredient{Name: name, OwnerID: owner.ID}
	if err := database.Create(ingredient).Error; err != nil {
		t.Fatalf("failed to seed ingredient: %v", err)
	}
	return ingredient
}

func seedRecipe(t *testing.T, owner *models.User, title string, tags []models.Tag, ingredients []models.Ingredient) *models.Recipe {
	t.Helper()

	recipe := &models.Recipe{
		OwnerID:     owner.ID,
		Title:       title,
		TimeMinutes: 20,
		Price:       9.50,
		Tags:        tags,
		Ingredients: ingredients,
	}
	if err := database.Create(recipe).Error; err != nil {
		t.Fatalf("failed to seed recipe: %v", err)
	}
	return recipe
}

// asUser attaches an authenticated caller to the request the way
// RequireAuthentication would.
func asUser(r *http.Request, user *models.User) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	return r.WithContext(ctx)
}
