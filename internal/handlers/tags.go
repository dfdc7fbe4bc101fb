package handlers

import (
	"net/http"

	applog "recipedia/internal/log"
	"recipedia/models"
)

// TagCollection lists and creates the caller's recipe tags.
func TagCollection(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		listTags(w, r, user.ID)
	case http.MethodPost:
		createTag(w, r, user.ID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// listTags returns the owner's tags ordered by name descending. With
// assigned_only set, only tags referenced by at least one recipe remain,
// each appearing once regardless of how many recipes use it.
func listTags(w http.ResponseWriter, r *http.Request, ownerID uint) {
	ctx := r.Context()

	query := database.WithContext(ctx).
		Model(&models.Tag{}).
		Where("tags.owner_id = ?", ownerID).
		Order("tags.name DESC")
	if assignedOnly(r) {
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.tag_id = tags.id").
			Distinct("tags.*")
	}

	var tags []models.Tag
	if err := query.Find(&tags).Error; err != nil {
		applog.Error(ctx, "failed to list tags", "error", err, "owner", ownerID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load tags")
		return
	}

	responses := make([]taxonomyResponse, 0, len(tags))
	for _, tag := range tags {
		responses = append(responses, taxonomyResponse{ID: tag.ID, Name: tag.Name})
	}
	writeJSON(w, http.StatusOK, responses)
}

func createTag(w http.ResponseWriter, r *http.Request, ownerID uint) {
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

	tag := models.Tag{Name: name, OwnerID: ownerID}
	if err := database.WithContext(ctx).Create(&tag).Error; err != nil {
		applog.Error(ctx, "failed to create tag", "error", err, "owner", ownerID)
		writeJSONError(w, http.StatusInternalServerError, "unable to create tag")
		return
	}

	writeJSON(w, http.StatusCreated, taxonomyResponse{ID: tag.ID, Name: tag.Name})
}
