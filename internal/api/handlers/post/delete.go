package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Pressroom/internal/api/middleware"
	"Pressroom/internal/core/posts"
)

const deletedMessage = "the post has been deleted"

// DeleteHandler handles post deletion requests
type DeleteHandler struct {
	service posts.Service
}

// NewDeleteHandler creates a new handler for deleting posts
func NewDeleteHandler(service posts.Service) *DeleteHandler {
	return &DeleteHandler{
		service: service,
	}
}

// DeletePostOutput reports the deleted post and how many dependents went with it
type DeletePostOutput struct {
	Post     *posts.Post      `json:"post"`
	Message  string           `json:"message"`
	Likes    posts.BatchCount `json:"likes"`
	Comments posts.BatchCount `json:"comments"`
	Image    posts.BatchCount `json:"image"`
}

// HandleDelete handles DELETE /posts/{id}
//
// Response: {"message": "...", "post": {...}, "likes": {"count": n},
// "comments": {"count": n}, "image": {"count": n}}
func (h *DeleteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.DeletePost(r.Context(), middleware.GetIdentity(r), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, DeletePostOutput{
		Message:  deletedMessage,
		Post:     result.Post,
		Likes:    result.Likes,
		Comments: result.Comments,
		Image:    result.Images,
	})
}
