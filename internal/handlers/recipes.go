package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	applog "recipedia/internal/log"
	"recipedia/internal/storage"
	"recipedia/models"
)

const maxImageUploadBytes = 10 << 20

// errUnknownRelation marks a tag or ingredient id that does not resolve to a
// row owned by the caller. Cross-owner ids resolve the same as absent ones.
var errUnknownRelation = errors.New("unknown relation id")

type recipeSummaryResponse struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	TimeMinutes int     `json:"time_minutes"`
	Price       float64 `json:"price"`
	Link        string  `json:"link,omitempty"`
	Image       string  `json:"image,omitempty"`
	Tags        []uint  `json:"tags"`
	Ingredients []uint  `json:"ingredients"`
}

type recipeDetailResponse struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	TimeMinutes int                `json:"time_minutes"`
	Price       float64            `json:"price"`
	Link        string             `json:"link,omitempty"`
	Image       string             `json:"image,omitempty"`
	Tags        []taxonomyResponse `json:"tags"`
	Ingredients []taxonomyResponse `json:"ingredients"`
}

type recipeImageResponse struct {
	ID    uint   `json:"id"`
	Image string `json:"image"`
}

type recipeCreateRequest struct {
	Title       string   `json:"title"`
	TimeMinutes *int     `json:"time_minutes"`
	Price       *float64 `json:"price"`
	Link        string   `json:"link"`
	Tags        []uint   `json:"tags"`
	Ingredients []uint   `json:"ingredients"`
}

// recipePatchRequest distinguishes omitted fields from zero values so a
// partial update leaves untouched what the caller did not send.
type recipePatchRequest struct {
	Title       *string  `json:"title"`
	TimeMinutes *int     `json:"time_minutes"`
	Price       *float64 `json:"price"`
	Link        *string  `json:"link"`
	Tags        *[]uint  `json:"tags"`
	Ingredients *[]uint  `json:"ingredients"`
}

// RecipeCollection lists and creates the caller's recipes.
func RecipeCollection(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		listRecipes(w, r, user.ID)
	case http.MethodPost:
		createRecipe(w, r, user.ID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// RecipeResource dispatches detail, update, and image upload requests for a
// single recipe identified by its path segment.
func RecipeResource(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/recipe/recipes"), "/")
	if path == "" {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}

	segments := strings.Split(path, "/")
	idValue, err := strconv.ParseUint(segments[0], 10, 64)
	if err != nil {
		applog.Debug(r.Context(), "invalid recipe identifier", "identifier", segments[0])
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	recipeID := uint(idValue)

	if len(segments) > 1 {
		if segments[1] == "upload-image" && len(segments) == 2 {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			uploadRecipeImage(w, r, recipeID, user.ID)
			return
		}
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		showRecipe(w, r, recipeID, user.ID)
	case http.MethodPut:
		replaceRecipe(w, r, recipeID, user.ID)
	case http.MethodPatch:
		patchRecipe(w, r, recipeID, user.ID)
	case http.MethodDelete:
		deleteRecipe(w, r, recipeID, user.ID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// listRecipes returns the owner's recipes in id order. The tags and
// ingredients query params each hold a comma-separated id list; a recipe
// matches a dimension when it references any listed id, and both dimensions
// must match when both are present.
func listRecipes(w http.ResponseWriter, r *http.Request, ownerID uint) {
	ctx := r.Context()

	query := database.WithContext(ctx).
		Model(&models.Recipe{}).
		Preload("Tags").
		Preload("Ingredients").
		Where("recipes.owner_id = ?", ownerID).
		Order("recipes.id")

	if raw := r.URL.Query().Get("tags"); raw != "" {
		tagIDs, err := parseIDList(raw)
		if err != nil {
			writeValidationError(w, map[string]string{"tags": "must be a comma-separated list of ids"})
			return
		}
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Where("recipe_tags.tag_id IN ?", tagIDs).
			Distinct("recipes.*")
	}

	if raw := r.URL.Query().Get("ingredients"); raw != "" {
		ingredientIDs, err := parseIDList(raw)
		if err != nil {
			writeValidationError(w, map[string]string{"ingredients": "must be a comma-separated list of ids"})
			return
		}
		query = query.
			Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = recipes.id").
			Where("recipe_ingredients.ingredient_id IN ?", ingredientIDs).
			Distinct("recipes.*")
	}

	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		applog.Error(ctx, "failed to list recipes", "error", err, "owner", ownerID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load recipes")
		return
	}

	responses := make([]recipeSummaryResponse, 0, len(recipes))
	for _, recipe := range recipes {
		responses = append(responses, projectRecipeSummary(recipe))
	}
	writeJSON(w, http.StatusOK, responses)
}

func createRecipe(w http.ResponseWriter, r *http.Request, ownerID uint) {
	ctx := r.Context()

	var payload recipeCreateRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	title := strings.TrimSpace(payload.Title)
	fields := map[string]string{}
	if title == "" {
		fields["title"] = "title must not be empty"
	}
	if payload.TimeMinutes == nil {
		fields["time_minutes"] = "time_minutes is required"
	}
	if payload.Price == nil {
		fields["price"] = "price is required"
	}
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	recipe := models.Recipe{
		OwnerID:     ownerID,
		Title:       title,
		TimeMinutes: *payload.TimeMinutes,
		Price:       *payload.Price,
		Link:        strings.TrimSpace(payload.Link),
	}

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, ownerID, payload.Tags)
		if err != nil {
			return err
		}
		ingredients, err := resolveIngredients(tx, ownerID, payload.Ingredients)
		if err != nil {
			return err
		}

		recipe.Tags = tags
		recipe.Ingredients = ingredients
		return tx.Create(&recipe).Error
	})
	if err != nil {
		if errors.Is(err, errUnknownRelation) {
			writeValidationError(w, map[string]string{"relations": err.Error()})
			return
		}
		applog.Error(ctx, "failed to create recipe", "error", err, "owner", ownerID)
		writeJSONError(w, http.StatusInternalServerError, "unable to create recipe")
		return
	}

	created, err := loadOwnedRecipe(ctx, recipe.ID, ownerID)
	if err != nil {
		applog.Error(ctx, "failed to reload created recipe", "error", err, "id", recipe.ID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load created recipe")
		return
	}

	applog.Info(ctx, "recipe created", "id", created.ID, "owner", ownerID)
	writeJSON(w, http.StatusCreated, projectRecipeDetail(*created))
}

func showRecipe(w http.ResponseWriter, r *http.Request, recipeID, ownerID uint) {
	ctx := r.Context()

	recipe, err := loadOwnedRecipe(ctx, recipeID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		applog.Error(ctx, "failed to load recipe", "error", err, "id", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load recipe")
		return
	}

	writeJSON(w, http.StatusOK, projectRecipeDetail(*recipe))
}

// replaceRecipe is the full-update path: every scalar field is required and
// an omitted relation list clears the association entirely.
func replaceRecipe(w http.ResponseWriter, r *http.Request, recipeID, ownerID uint) {
	ctx := r.Context()

	var payload recipeCreateRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	title := strings.TrimSpace(payload.Title)
	fields := map[string]string{}
	if title == "" {
		fields["title"] = "title must not be empty"
	}
	if payload.TimeMinutes == nil {
		fields["time_minutes"] = "time_minutes is required"
	}
	if payload.Price == nil {
		fields["price"] = "price is required"
	}
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	recipe, err := loadOwnedRecipe(ctx, recipeID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		applog.Error(ctx, "failed to load recipe for update", "error", err, "id", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load recipe")
		return
	}

	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, ownerID, payload.Tags)
		if err != nil {
			return err
		}
		ingredients, err := resolveIngredients(tx, ownerID, payload.Ingredients)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"title":        title,
			"time_minutes": *payload.TimeMinutes,
			"price":        *payload.Price,
			"link":         strings.TrimSpace(payload.Link),
		}
		if err := tx.Model(recipe).Updates(updates).Error; err != nil {
			return err
		}
		if err := replaceTagSet(tx, recipe, tags); err != nil {
			return err
		}
		return replaceIngredientSet(tx, recipe, ingredients)
	})
	if err != nil {
		if errors.Is(err, errUnknownRelation) {
			writeValidationError(w, map[string]string{"relations": err.Error()})
			return
		}
		applog.Error(ctx, "failed to update recipe", "error", err, "id", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update recipe")
		return
	}

	respondWithRecipe(ctx, w, recipeID, ownerID)
}

// patchRecipe is the partial-update path: only supplied fields change, and a
// supplied relation list replaces the whole set rather than merging into it.
func patchRecipe(w http.ResponseWriter, r *http.Request, recipeID, ownerID uint) {
	ctx := r.Context()

	var payload recipePatchRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	if payload.Title != nil && strings.TrimSpace(*payload.Title) == "" {
		writeValidationError(w, map[string]string{"title": "title must not be empty"})
		return
	}

	recipe, err := loadOwnedRecipe(ctx, recipeID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		applog.Error(ctx, "failed to load recipe for patch", "error", err, "id", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load recipe")
		return
	}

	updates := map[string]any{}
	if payload.Title != nil {
		updates["title"] = strings.TrimSpace(*payload.Title)
	}
	if payload.TimeMinutes != nil {
		updates["time_minutes"] = *payload.TimeMinutes
	}
	if payload.Price != nil {
		updates["price"] = *payload.Price
	}
	if payload.Link != nil {
		updates["link"] = strings.TrimSpace(*payload.Link)
	}

	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(recipe).Updates(updates).Error; err != nil {
				return err
			}
		}
		if payload.Tags != nil {
			tags, err := resolveTags(tx, ownerID, *payload.Tags)
			if err != nil {
				return err
			}
			if err := replaceTagSet(tx, recipe, tags); err != nil {
				return err
			}
		}
		if payload.Ingredients != nil {
			ingredients, err := resolveIngredients(tx, ownerID, *payload.Ingredients)
			if err != nil {
				return err
			}
			if err := replaceIngredientSet(tx, recipe, ingredients); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errUnknownRelation) {
			writeValidationError(w, map[string]string{"relations": err.Error()})
			return
		}
		applog.Error(ctx, "failed to patch recipe", "error", err, "id", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update recipe")
		return
	}

	respondWithRecipe(ctx, w, recipeID, ownerID)
}

// deleteRecipe removes the caller's recipe along with its relation rows. A
// stored image object is cleaned up best effort after the row is gone.
func deleteRecipe(w http.ResponseWriter, r *http.Request, recipeID, ownerID uint) {
	ctx := r.Context()

	recipe, err := loadOwnedRecipe(ctx, recipeID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		applog.Error(ctx, "failed to load recipe for delete", "error", err, "id", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load recipe")
		return
	}

	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Ingredients").Clear(); err != nil {
			return err
		}
		return tx.Delete(recipe).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to delete recipe", "error", err, "id", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete recipe")
		return
	}

	if recipe.Image != "" && images != nil {
		if err := images.Remove(ctx, recipe.Image); err != nil {
			applog.Warn(ctx, "failed to remove deleted recipe image", "error", err, "key", recipe.Image)
		}
	}

	applog.Info(ctx, "recipe deleted", "id", recipeID, "owner", ownerID)
	w.WriteHeader(http.StatusNoContent)
}

func uploadRecipeImage(w http.ResponseWriter, r *http.Request, recipeID, ownerID uint) {
	ctx := r.Context()

	if images == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "image uploads not available")
		return
	}

	recipe, err := loadOwnedRecipe(ctx, recipeID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		applog.Error(ctx, "failed to load recipe for image upload", "error", err, "id", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load recipe")
		return
	}

	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		applog.Debug(ctx, "invalid multipart upload", "error", err)
		writeValidationError(w, map[string]string{"image": "a multipart image upload is required"})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeValidationError(w, map[string]string{"image": "an image file is required"})
		return
	}
	defer file.Close()

	key, err := images.Save(ctx, header.Filename, file)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) {
			writeValidationError(w, map[string]string{"image": "unsupported image file type"})
			return
		}
		applog.Error(ctx, "failed to store recipe image", "error", err, "id", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to store image")
		return
	}

	previous := recipe.Image
	if err := database.WithContext(ctx).Model(recipe).Update("image", key).Error; err != nil {
		applog.Error(ctx, "failed to attach recipe image", "error", err, "id", recipeID)
		if cleanupErr := images.Remove(ctx, key); cleanupErr != nil {
			applog.Warn(ctx, "failed to remove orphaned image", "error", cleanupErr, "key", key)
		}
		writeJSONError(w, http.StatusInternalServerError, "unable to attach image")
		return
	}

	if previous != "" {
		if err := images.Remove(ctx, previous); err != nil {
			applog.Warn(ctx, "failed to remove replaced image", "error", err, "key", previous)
		}
	}

	applog.Info(ctx, "recipe image attached", "id", recipeID, "key", key)
	writeJSON(w, http.StatusOK, recipeImageResponse{ID: recipe.ID, Image: key})
}

// loadOwnedRecipe fetches a recipe with its relations, scoped to the owner.
// A recipe belonging to someone else surfaces as gorm.ErrRecordNotFound.
func loadOwnedRecipe(ctx context.Context, recipeID, ownerID uint) (*models.Recipe, error) {
	recipe := &models.Recipe{}
	err := database.WithContext(ctx).
		Preload("Tags").
		Preload("Ingredients").
		Where("recipes.id = ? AND recipes.owner_id = ?", recipeID, ownerID).
		First(recipe).Error
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

func respondWithRecipe(ctx context.Context, w http.ResponseWriter, recipeID, ownerID uint) {
	updated, err := loadOwnedRecipe(ctx, recipeID, ownerID)
	if err != nil {
		applog.Error(ctx, "failed to reload recipe", "error", err, "id", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load updated recipe")
		return
	}
	writeJSON(w, http.StatusOK, projectRecipeDetail(*updated))
}

// resolveTags maps tag ids onto the caller's own rows. Ids that are absent or
// owned by another user fail resolution.
func resolveTags(tx *gorm.DB, ownerID uint, ids []uint) ([]models.Tag, error) {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return nil, nil
	}

	var tags []models.Tag
	if err := tx.Where("id IN ? AND owner_id = ?", unique, ownerID).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(unique) {
		return nil, fmt.Errorf("%w: one or more tag ids do not exist", errUnknownRelation)
	}
	return tags, nil
}

func resolveIngredients(tx *gorm.DB, ownerID uint, ids []uint) ([]models.Ingredient, error) {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return nil, nil
	}

	var ingredients []models.Ingredient
	if err := tx.Where("id IN ? AND owner_id = ?", unique, ownerID).Find(&ingredients).Error; err != nil {
		return nil, err
	}
	if len(ingredients) != len(unique) {
		return nil, fmt.Errorf("%w: one or more ingredient ids do not exist", errUnknownRelation)
	}
	return ingredients, nil
}

// replaceTagSet swaps the recipe's tag association for the given set. An
// empty set clears the association.
func replaceTagSet(tx *gorm.DB, recipe *models.Recipe, tags []models.Tag) error {
	assoc := tx.Model(recipe).Association("Tags")
	if len(tags) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(tags)
}

func replaceIngredientSet(tx *gorm.DB, recipe *models.Recipe, ingredients []models.Ingredient) error {
	assoc := tx.Model(recipe).Association("Ingredients")
	if len(ingredients) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(ingredients)
}

func projectRecipeSummary(recipe models.Recipe) recipeSummaryResponse {
	tagIDs := make([]uint, 0, len(recipe.Tags))
	for _, tag := range recipe.Tags {
		tagIDs = append(tagIDs, tag.ID)
	}
	ingredientIDs := make([]uint, 0, len(recipe.Ingredients))
	for _, ingredient := range recipe.Ingredients {
		ingredientIDs = append(ingredientIDs, ingredient.ID)
	}

	return recipeSummaryResponse{
		ID:          recipe.ID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price,
		Link:        recipe.Link,
		Image:       recipe.Image,
		Tags:        tagIDs,
		Ingredients: ingredientIDs,
	}
}

func projectRecipeDetail(recipe models.Recipe) recipeDetailResponse {
	tags := make([]taxonomyResponse, 0, len(recipe.Tags))
	for _, tag := range recipe.Tags {
		tags = append(tags, taxonomyResponse{ID: tag.ID, Name: tag.Name})
	}
	ingredients := make([]taxonomyResponse, 0, len(recipe.Ingredients))
	for _, ingredient := range recipe.Ingredients {
		ingredients = append(ingredients, taxonomyResponse{ID: ingredient.ID, Name: ingredient.Name})
	}

	return recipeDetailResponse{
		ID:          recipe.ID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price,
		Link:        recipe.Link,
		Image:       recipe.Image,
		Tags:        tags,
		Ingredients: ingredients,
	}
}

func parseIDList(raw string) ([]uint, error) {
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, uint(value))
	}
	return ids, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	return unique
}
