package post

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"Pressroom/internal/api/middleware"
	"Pressroom/internal/core/posts"
)

const (
	// maxJSONBodyBytes bounds the JSON create and update bodies
	maxJSONBodyBytes = 1 << 20

	// DefaultMaxUploadBytes bounds multipart create requests when no limit is configured
	DefaultMaxUploadBytes = 10 << 20

	// imageField is the only multipart file field accepted
	imageField = "image"

	createdMessage = "Created Post"
)

// CreateHandler handles post creation requests
type CreateHandler struct {
	service        posts.Service
	maxUploadBytes int64
}

// NewCreateHandler creates a new create handler.
// maxUploadBytes caps the whole multipart body; zero selects DefaultMaxUploadBytes.
func NewCreateHandler(service posts.Service, maxUploadBytes int64) *CreateHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &CreateHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

// CreatePostOutput is returned by both create endpoints; Image is only set
// by the upload variant
type CreatePostOutput struct {
	Post    *posts.Post  `json:"post"`
	Image   *posts.Image `json:"image,omitempty"`
	Message string       `json:"message"`
}

// HandleCreate handles POST /posts/create
//
// Request body: {"title": "...", "content": "...", "published": false, "categories": ["go"]}
// The author is always the caller; any author field in the body is ignored.
func (h *CreateHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var req posts.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if isBodyTooLarge(err) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "RequestTooLarge",
				"Request body too large (max 1MB)")
			return
		}
		writeError(w, r, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	post, err := h.service.CreatePost(r.Context(), middleware.GetIdentity(r), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, CreatePostOutput{Message: createdMessage, Post: post})
}

// HandleCreateWithImage handles POST /posts/create/image
//
// Multipart form: one file field "image" plus the text fields title,
// content, published ("true"/"false") and categories (repeatable or
// comma separated).
func (h *CreateHandler) HandleCreateWithImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		if isBodyTooLarge(err) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "RequestTooLarge",
				"Upload exceeds the size limit")
			return
		}
		writeError(w, r, http.StatusBadRequest, "InvalidRequest", "Invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	req, err := createRequestFromForm(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	file, header, err := r.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			handleServiceError(w, r, posts.ErrMissingImage)
			return
		}
		writeError(w, r, http.StatusBadRequest, "InvalidRequest", "Invalid image upload")
		return
	}
	defer file.Close()

	upload := posts.Upload{
		FieldName:    imageField,
		OriginalName: header.Filename,
		Encoding:     lo.Ternary(header.Header.Get("Content-Transfer-Encoding") != "", header.Header.Get("Content-Transfer-Encoding"), "7bit"),
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
	}

	post, image, err := h.service.CreatePostWithImage(r.Context(), middleware.GetIdentity(r), req, upload, file)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, CreatePostOutput{Message: createdMessage, Post: post, Image: image})
}

// createRequestFromForm reads the text fields of a multipart create request
func createRequestFromForm(r *http.Request) (posts.CreatePostRequest, error) {
	form := r.MultipartForm.Value

	req := posts.CreatePostRequest{
		Title: r.FormValue("title"),
	}
	if values, ok := form["content"]; ok && len(values) > 0 {
		req.Content = &values[0]
	}
	if raw := strings.TrimSpace(r.FormValue("published")); raw != "" {
		published, err := strconv.ParseBool(raw)
		if err != nil {
			return req, posts.NewValidationError("published", "must be true or false")
		}
		req.Published = published
	}
	req.Categories = lo.FlatMap(form["categories"], func(v string, _ int) []string {
		return strings.Split(v, ",")
	})
	return req, nil
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
