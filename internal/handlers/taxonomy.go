package handlers

import (
	"net/http"
	"strconv"
	"strings"
)

type taxonomyResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type taxonomyCreateRequest struct {
	Name string `json:"name"`
}

// assignedOnly reads the assigned_only query flag. Any non-zero integer
// enables the filter; missing or malformed values leave it off.
func assignedOnly(r *http.Request) bool {
	value, err := strconv.Atoi(r.URL.Query().Get("assigned_only"))
	return err == nil && value != 0
}

// taxonomyName validates a create payload, returning the trimmed name.
func taxonomyName(payload taxonomyCreateRequest) (string, bool) {
	name := strings.TrimSpace(payload.Name)
	return name, name != ""
}
