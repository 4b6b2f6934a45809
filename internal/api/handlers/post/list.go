package post

import (
	"net/http"

	"Pressroom/internal/api/middleware"
	"Pressroom/internal/core/posts"
)

// ListHandler serves the post listings
type ListHandler struct {
	service posts.Service
}

// NewListHandler creates a new list handler
func NewListHandler(service posts.Service) *ListHandler {
	return &ListHandler{
		service: service,
	}
}

// ListPostsOutput wraps every listing response
type ListPostsOutput struct {
	Posts interface{} `json:"posts"`
}

// HandleListPublished handles GET /posts
// Returns every published post with author, comments, likes and image.
func (h *ListHandler) HandleListPublished(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListPublished(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ListPostsOutput{Posts: list})
}

// HandleListAllUnpublished handles /posts/allunpublished for any method.
// Only administrators may see every draft.
func (h *ListHandler) HandleListAllUnpublished(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListAllUnpublished(r.Context(), middleware.GetIdentity(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ListPostsOutput{Posts: list})
}

// HandleListMyUnpublished handles /posts/unpublished for any method.
// Anonymous callers get an empty list.
func (h *ListHandler) HandleListMyUnpublished(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListMyUnpublished(r.Context(), middleware.GetIdentity(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ListPostsOutput{Posts: list})
}

// HandleListMyPublished handles GET /posts/published, the profile view of
// the caller's published posts
func (h *ListHandler) HandleListMyPublished(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListMyPublished(r.Context(), middleware.GetIdentity(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ListPostsOutput{Posts: list})
}
