package posts

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"Pressroom/internal/core/users"
)

type postService struct {
	repo       Repository
	images     ImageStore
	publisher  EventPublisher
	authorizer Authorizer
	now        func() time.Time
}

// NewPostService creates a new post service.
// publisher may be nil when post events are not wanted; authorizer defaults
// to OwnerOrAdmin when nil.
func NewPostService(repo Repository, images ImageStore, publisher EventPublisher, authorizer Authorizer) Service {
	if authorizer == nil {
		authorizer = NewOwnerOrAdmin()
	}
	return &postService{
		repo:       repo,
		images:     images,
		publisher:  publisher,
		authorizer: authorizer,
		now:        time.Now,
	}
}

// ParseID coerces a raw path id. Values that are not positive integers become
// 0, an id no row ever has, so a bad id behaves as a lookup miss.
func ParseID(raw string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

func (s *postService) ListPublished(ctx context.Context) ([]*Post, error) {
	list, err := s.repo.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list published posts: %w", err)
	}
	return orEmpty(list), nil
}

func (s *postService) GetPost(ctx context.Context, rawID string) (*Post, error) {
	id := ParseID(rawID)
	if id == 0 {
		return nil, nil
	}

	post, err := s.repo.GetByID(ctx, id)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post %d: %w", id, err)
	}
	return withEmptyRelations(post), nil
}

func (s *postService) ListAllUnpublished(ctx context.Context, viewer users.Identity) ([]*Post, error) {
	if viewer.IsAnonymous() {
		return nil, users.ErrAuthRequired
	}
	if !s.authorizer.CanListAllUnpublished(viewer) {
		zerolog.Ctx(ctx).Warn().Stringer("viewer", viewer).Msg("denied listing of all unpublished posts")
		return nil, ErrNotAuthorized
	}

	list, err := s.repo.ListUnpublished(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpublished posts: %w", err)
	}
	return orEmpty(list), nil
}

func (s *postService) ListMyUnpublished(ctx context.Context, viewer users.Identity) ([]*Post, error) {
	if viewer.IsAnonymous() {
		return []*Post{}, nil
	}

	authorID := viewer.UserID
	list, err := s.repo.ListUnpublished(ctx, &authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpublished posts of %d: %w", authorID, err)
	}
	return orEmpty(list), nil
}

func (s *postService) ListMyPublished(ctx context.Context, viewer users.Identity) ([]*PostSummary, error) {
	if viewer.IsAnonymous() {
		return []*PostSummary{}, nil
	}

	list, err := s.repo.ListPublishedByAuthor(ctx, viewer.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list published posts of %d: %w", viewer.UserID, err)
	}
	return lo.Map(list, func(p *Post, _ int) *PostSummary {
		return Summarize(p)
	}), nil
}

// Summarize reduces a post to the profile projection
func Summarize(p *Post) *PostSummary {
	return &PostSummary{
		Title:      p.Title,
		Categories: lo.Ternary(p.Categories == nil, []Category{}, p.Categories),
		Author:     p.Author,
		Comments:   lo.Ternary(p.Comments == nil, []Comment{}, p.Comments),
		Likes:      lo.Ternary(p.Likes == nil, []Like{}, p.Likes),
		Image:      p.Image,
	}
}

// CreatePost creates a post authored by the viewer
// Flow:
// 1. Require a signed-in viewer (the author)
// 2. Insert post and category links; the store enforces required fields
// 3. Publish post.created
func (s *postService) CreatePost(ctx context.Context, viewer users.Identity, req CreatePostRequest) (*Post, error) {
	if viewer.IsAnonymous() {
		return nil, users.ErrAuthRequired
	}

	post := newPost(viewer, req)
	if err := s.repo.Create(ctx, post, normalizeCategories(req.Categories)); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.publish(ctx, EventPostCreated, post, false)
	return post, nil
}

// CreatePostWithImage creates a post illustrated by an uploaded image
// Flow:
// 1. Store the file as <timestampMillis>_<originalName>
// 2. Insert post and image in one transaction
// 3. On failure remove the stored file; if that fails too report a PartialFailureError
// 4. Publish post.created
func (s *postService) CreatePostWithImage(ctx context.Context, viewer users.Identity, req CreatePostRequest, upload Upload, file io.Reader) (*Post, *Image, error) {
	if viewer.IsAnonymous() {
		return nil, nil, users.ErrAuthRequired
	}
	if file == nil || upload.OriginalName == "" {
		return nil, nil, ErrMissingImage
	}

	stored, err := s.images.Save(ctx, upload, file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to store image: %w", err)
	}

	post := newPost(viewer, req)
	image := &Image{
		FieldName:    upload.FieldName,
		OriginalName: upload.OriginalName,
		Encoding:     upload.Encoding,
		MimeType:     upload.MimeType,
		Destination:  stored.Destination,
		Filename:     stored.Filename,
		Path:         stored.Path,
		Size:         stored.Size,
		AuthorID:     viewer.UserID,
	}

	if err := s.repo.CreateWithImage(ctx, post, normalizeCategories(req.Categories), image); err != nil {
		createErr := fmt.Errorf("failed to create post with image: %w", err)
		if cleanupErr := s.images.Remove(ctx, stored.Filename); cleanupErr != nil {
			zerolog.Ctx(ctx).Error().Err(cleanupErr).Str("path", stored.Path).Msg("orphaned upload")
			return nil, nil, &PartialFailureError{CreateErr: createErr, CleanupErr: cleanupErr, Path: stored.Path}
		}
		return nil, nil, createErr
	}

	s.publish(ctx, EventPostCreated, post, true)
	return post, image, nil
}

func (s *postService) UpdatePost(ctx context.Context, viewer users.Identity, rawID string, req UpdatePostRequest) (*Post, error) {
	id, err := s.authorize(ctx, viewer, rawID)
	if err != nil {
		return nil, err
	}

	// Nothing to write; answer with the stored post and announce nothing
	if req.IsEmpty() {
		post, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to get post %d: %w", id, err)
		}
		return post, nil
	}

	if req.Categories != nil {
		normalized := normalizeCategories(*req.Categories)
		req.Categories = &normalized
	}

	post, err := s.repo.Update(ctx, id, req)
	if err != nil {
		if IsNotFound(err) || IsValidationError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update post %d: %w", id, err)
	}

	s.publish(ctx, EventPostUpdated, post, post.Image != nil)
	return post, nil
}

// DeletePost removes a post and everything that references it
// Flow:
// 1. Authorize against the stored author
// 2. Delete likes, comments, images, then the post, in one transaction
// 3. Remove stored image files (best effort, after commit)
// 4. Publish post.deleted
func (s *postService) DeletePost(ctx context.Context, viewer users.Identity, rawID string) (*DeleteResult, error) {
	id, err := s.authorize(ctx, viewer, rawID)
	if err != nil {
		return nil, err
	}

	result, err := s.repo.DeleteCascade(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete post %d: %w", id, err)
	}

	for _, img := range result.RemovedImages {
		if s.images == nil {
			break
		}
		if err := s.images.Remove(ctx, img.Filename); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", img.Path).Msg("failed to remove image file of deleted post")
		}
	}

	s.publish(ctx, EventPostDeleted, result.Post, len(result.RemovedImages) > 0)
	return result, nil
}

// authorize resolves the post id and checks the viewer may modify it.
// A missing post is reported as ErrNotFound before any permission check.
func (s *postService) authorize(ctx context.Context, viewer users.Identity, rawID string) (int64, error) {
	if viewer.IsAnonymous() {
		return 0, users.ErrAuthRequired
	}

	id := ParseID(rawID)
	if id == 0 {
		return 0, ErrNotFound
	}

	authorID, err := s.repo.GetAuthorID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to look up author of post %d: %w", id, err)
	}

	if !s.authorizer.CanModify(viewer, authorID) {
		zerolog.Ctx(ctx).Warn().
			Stringer("viewer", viewer).
			Int64("post_id", id).
			Int64("author_id", authorID).
			Msg("denied post modification")
		return 0, ErrNotAuthorized
	}
	return id, nil
}

func (s *postService) publish(ctx context.Context, eventType string, post *Post, hasImage bool) {
	if s.publisher == nil || post == nil {
		return
	}
	event := PostEvent{
		Type:       eventType,
		PostID:     post.ID,
		AuthorID:   post.AuthorID,
		HasImage:   hasImage,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", eventType).Int64("post_id", post.ID).Msg("failed to publish post event")
	}
}

func newPost(viewer users.Identity, req CreatePostRequest) *Post {
	return &Post{
		Title:     req.Title,
		Content:   req.Content,
		Published: req.Published,
		AuthorID:  viewer.UserID,
	}
}

func normalizeCategories(names []string) []string {
	trimmed := lo.Map(names, func(n string, _ int) string { return strings.TrimSpace(n) })
	return lo.Uniq(lo.Filter(trimmed, func(n string, _ int) bool { return n != "" }))
}

func orEmpty(list []*Post) []*Post {
	if list == nil {
		return []*Post{}
	}
	return lo.Map(list, func(p *Post, _ int) *Post { return withEmptyRelations(p) })
}

// withEmptyRelations makes missing dependents render as [] instead of null
func withEmptyRelations(p *Post) *Post {
	if p.Categories == nil {
		p.Categories = []Category{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	if p.Likes == nil {
		p.Likes = []Like{}
	}
	return p
}
