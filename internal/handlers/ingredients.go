package handlers

import (
	"net/http"

	applog "recipedia/internal/log"
	"recipedia/models"
)

// IngredientCollection lists and creates the caller's ingredients. The
// contract mirrors TagCollection over a distinct entity.
func IngredientCollection(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		listIngredients(w, r, user.ID)
	case http.MethodPost:
		createIngredient(w, r, user.ID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listIngredients(w http.ResponseWriter, r *http.Request, ownerID uint) {
	ctx := r.Context()

	query := database.WithContext(ctx).
		Model(&models.Ingredient{}).
		Where("ingredients.owner_id = ?", ownerID).
		Order("ingredients.name DESC")
	if assignedOnly(r) {
		query = query.
			Joins("JOIN recipe_ingredients ON recipe_ingredients.ingredient_id = ingredients.id").
			Distinct("ingredients.*")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		applog.Error(ctx, "failed to list ingredients", "error", err, "owner", ownerID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredients")
		return
	}

	responses := make([]taxonomyResponse, 0, len(ingredients))
	for _, ingredient := range ingredients {
		responses = append(responses, taxonomyResponse{ID: ingredient.ID, Name: ingredient.Name})
	}
	writeJSON(w, http.StatusOK, responses)
}

func createIngredient(w http.ResponseWriter, r *http.Request, ownerID uint) {
	ctx := r.Context()

	var payload taxonomyCreateRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	name, ok := taxonomyName(payload)
	if !ok {
		writeValidationError(w, map[string]string{"name": "name must not be empty"})
		return
	}

	ingredient := models.Ingredient{Name: name, OwnerID: ownerID}
	if err := database.WithContext(ctx).Create(&ingredient).Error; err != nil {
		applog.Error(ctx, "failed to create ingredient", "error", err, "owner", ownerID)
		writeJSONError(w, http.StatusInternalServerError, "unable to create ingredient")
		return
	}

	writeJSON(w, http.StatusCreated, taxonomyResponse{ID: ingredient.ID, Name: ingredient.Name})
}
