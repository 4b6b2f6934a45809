package posts

import (
	"context"
	"io"

	"Pressroom/internal/core/users"
)

// Service defines the business logic interface for posts.
// Every operation receives the caller identity explicitly; handlers read it
// from the request context and never rely on ambient state.
type Service interface {
	// ListPublished returns every published post with author, comments
	// (with authors), likes and image expanded
	ListPublished(ctx context.Context) ([]*Post, error)

	// GetPost looks a post up by its raw path id.
	// Ids that are not positive integers, and ids with no post, yield (nil, nil).
	GetPost(ctx context.Context, rawID string) (*Post, error)

	// ListAllUnpublished returns every unpublished post, with threaded comments.
	// Restricted to callers the Authorizer allows.
	ListAllUnpublished(ctx context.Context, viewer users.Identity) ([]*Post, error)

	// ListMyUnpublished returns the viewer's unpublished posts.
	// An anonymous viewer gets an empty list.
	ListMyUnpublished(ctx context.Context, viewer users.Identity) ([]*Post, error)

	// ListMyPublished returns the profile projection of the viewer's published posts
	ListMyPublished(ctx context.Context, viewer users.Identity) ([]*PostSummary, error)

	// CreatePost creates a post authored by the viewer
	CreatePost(ctx context.Context, viewer users.Identity, req CreatePostRequest) (*Post, error)

	// CreatePostWithImage stores the upload, then creates the post and its image
	// record in one transaction
	CreatePostWithImage(ctx context.Context, viewer users.Identity, req CreatePostRequest, upload Upload, file io.Reader) (*Post, *Image, error)

	// UpdatePost merges the supplied fields into an existing post
	UpdatePost(ctx context.Context, viewer users.Identity, rawID string, req UpdatePostRequest) (*Post, error)

	// DeletePost removes a post with its likes, comments and images
	DeletePost(ctx context.Context, viewer users.Identity, rawID string) (*DeleteResult, error)
}

// Repository defines the data access interface for posts
type Repository interface {
	// ListPublished returns posts with published = true and full expansions
	ListPublished(ctx context.Context) ([]*Post, error)

	// GetByID returns a post with full expansions, or ErrNotFound
	GetByID(ctx context.Context, id int64) (*Post, error)

	// GetAuthorID returns the author of a post without loading relations, or ErrNotFound
	GetAuthorID(ctx context.Context, id int64) (int64, error)

	// ListUnpublished returns posts with published = false.
	// A nil authorID lists every author and includes images.
	ListUnpublished(ctx context.Context, authorID *int64) ([]*Post, error)

	// ListPublishedByAuthor returns the author's published posts with only the
	// profile projection columns loaded
	ListPublishedByAuthor(ctx context.Context, authorID int64) ([]*Post, error)

	// Create inserts a post and links its categories
	Create(ctx context.Context, post *Post, categories []string) error

	// CreateWithImage inserts a post and its image in one transaction
	CreateWithImage(ctx context.Context, post *Post, categories []string, image *Image) error

	// Update applies the non-nil fields of req, or returns ErrNotFound
	Update(ctx context.Context, id int64, req UpdatePostRequest) (*Post, error)

	// DeleteCascade removes likes, comments, images and then the post in one
	// transaction, in that order
	DeleteCascade(ctx context.Context, id int64) (*DeleteResult, error)
}

// ImageStore persists uploaded image files
type ImageStore interface {
	// Save writes the file as <timestampMillis>_<originalName>
	Save(ctx context.Context, upload Upload, file io.Reader) (*StoredFile, error)

	// Remove deletes a previously stored file
	Remove(ctx context.Context, filename string) error
}

// EventPublisher announces committed post changes
type EventPublisher interface {
	Publish(ctx context.Context, event PostEvent) error
}

// Authorizer decides whether a caller may use the restricted operations
type Authorizer interface {
	// CanModify reports whether viewer may update or delete a post by authorID
	CanModify(viewer users.Identity, authorID int64) bool

	// CanListAllUnpublished reports whether viewer may see every draft
	CanListAllUnpublished(viewer users.Identity) bool
}
