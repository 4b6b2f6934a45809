package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Pressroom/internal/core/posts"
)

// GetHandler serves single posts
type GetHandler struct {
	service posts.Service
}

// NewGetHandler creates a new get handler
func NewGetHandler(service posts.Service) *GetHandler {
	return &GetHandler{
		service: service,
	}
}

// GetPostOutput carries the post, or null when no post has the id
type GetPostOutput struct {
	Post *posts.Post `json:"post"`
}

// HandleGet handles GET /posts/{id}
// A missing or non-numeric id is not an error: the response is {"post": null}.
func (h *GetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, GetPostOutput{Post: post})
}
