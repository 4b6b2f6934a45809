package post

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Pressroom/internal/api/middleware"
	"Pressroom/internal/core/posts"
)

const updatedMessage = "the post has been updated"

// UpdateHandler handles post update requests
type UpdateHandler struct {
	service posts.Service
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(service posts.Service) *UpdateHandler {
	return &UpdateHandler{
		service: service,
	}
}

// UpdatePostOutput is the response of a successful update
type UpdatePostOutput struct {
	Post    *posts.Post `json:"post"`
	Message string      `json:"message"`
}

// HandleUpdate handles PUT /posts/{id}
//
// Only title, content, published and categories are read from the body.
// Fields left out keep their stored values; id and author cannot change.
func (h *UpdateHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var req posts.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if isBodyTooLarge(err) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "RequestTooLarge",
				"Request body too large (max 1MB)")
			return
		}
		writeError(w, r, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	post, err := h.service.UpdatePost(r.Context(), middleware.GetIdentity(r), chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, UpdatePostOutput{Message: updatedMessage, Post: post})
}
