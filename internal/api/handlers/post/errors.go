package post

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"Pressroom/internal/core/posts"
	"Pressroom/internal/core/users"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// partialFailureResponse reports both outcomes of a create-with-image whose
// rollback left a stored file behind
type partialFailureResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Create  string `json:"create"`
	Cleanup string `json:"cleanup"`
	Path    string `json:"path"`
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers already sent; nothing left to tell the client
		hlog.FromRequest(r).Error().Err(err).Msg("failed to encode response")
	}
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, r *http.Request, statusCode int, errorType, message string) {
	writeJSON(w, r, statusCode, errorResponse{
		Error:   errorType,
		Message: message,
	})
}

// handleServiceError maps service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var partial *posts.PartialFailureError

	// A partial failure wraps the create error, so it is matched first
	switch {
	case errors.As(err, &partial):
		hlog.FromRequest(r).Error().
			AnErr("create_error", partial.CreateErr).
			AnErr("cleanup_error", partial.CleanupErr).
			Str("path", partial.Path).
			Msg("post creation failed and upload was left behind")
		writeJSON(w, r, http.StatusInternalServerError, partialFailureResponse{
			Error:   "PartialFailure",
			Message: "The post was not created and the uploaded file could not be removed",
			Create:  "failed",
			Cleanup: "failed",
			Path:    partial.Path,
		})

	case errors.Is(err, users.ErrAuthRequired):
		writeError(w, r, http.StatusUnauthorized, "AuthRequired", "Authentication required")

	case errors.Is(err, posts.ErrNotAuthorized):
		writeError(w, r, http.StatusForbidden, "NotAuthorized",
			"You are not authorized to perform this action on the post")

	case posts.IsNotFound(err):
		writeError(w, r, http.StatusNotFound, "PostNotFound", "Post not found")

	case errors.Is(err, posts.ErrMissingImage):
		writeError(w, r, http.StatusBadRequest, "InvalidRequest", err.Error())

	case posts.IsValidationError(err):
		writeError(w, r, http.StatusBadRequest, "InvalidRequest", err.Error())

	default:
		// Don't leak internal error details to clients
		hlog.FromRequest(r).Error().Err(err).Msg("unexpected error in post handler")
		writeError(w, r, http.StatusInternalServerError, "InternalServerError",
			"An internal error occurred")
	}
}
