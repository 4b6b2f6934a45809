package post

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Pressroom/internal/api/middleware"
	"Pressroom/internal/core/posts"
	"Pressroom/internal/core/users"
)

// mockPostService implements posts.Service for testing
type mockPostService struct {
	listPublishedFunc       func(ctx context.Context) ([]*posts.Post, error)
	getPostFunc             func(ctx context.Context, rawID string) (*posts.Post, error)
	listAllUnpublishedFunc  func(ctx context.Context, viewer users.Identity) ([]*posts.Post, error)
	listMyUnpublishedFunc   func(ctx context.Context, viewer users.Identity) ([]*posts.Post, error)
	listMyPublishedFunc     func(ctx context.Context, viewer users.Identity) ([]*posts.PostSummary, error)
	createPostFunc          func(ctx context.Context, viewer users.Identity, req posts.CreatePostRequest) (*posts.Post, error)
	createPostWithImageFunc func(ctx context.Context, viewer users.Identity, req posts.CreatePostRequest, upload posts.Upload, file io.Reader) (*posts.Post, *posts.Image, error)
	updatePostFunc          func(ctx context.Context, viewer users.Identity, rawID string, req posts.UpdatePostRequest) (*posts.Post, error)
	deletePostFunc          func(ctx context.Context, viewer users.Identity, rawID string) (*posts.DeleteResult, error)
}

func (m *mockPostService) ListPublished(ctx context.Context) ([]*posts.Post, error) {
	if m.listPublishedFunc != nil {
		return m.listPublishedFunc(ctx)
	}
	return []*posts.Post{}, nil
}

func (m *mockPostService) GetPost(ctx context.Context, rawID string) (*posts.Post, error) {
	if m.getPostFunc != nil {
		return m.getPostFunc(ctx, rawID)
	}
	return nil, nil
}

func (m *mockPostService) ListAllUnpublished(ctx context.Context, viewer users.Identity) ([]*posts.Post, error) {
	if m.listAllUnpublishedFunc != nil {
		return m.listAllUnpublishedFunc(ctx, viewer)
	}
	return []*posts.Post{}, nil
}

func (m *mockPostService) ListMyUnpublished(ctx context.Context, viewer users.Identity) ([]*posts.Post, error) {
	if m.listMyUnpublishedFunc != nil {
		return m.listMyUnpublishedFunc(ctx, viewer)
	}
	return []*posts.Post{}, nil
}

func (m *mockPostService) ListMyPublished(ctx context.Context, viewer users.Identity) ([]*posts.PostSummary, error) {
	if m.listMyPublishedFunc != nil {
		return m.listMyPublishedFunc(ctx, viewer)
	}
	return []*posts.PostSummary{}, nil
}

func (m *mockPostService) CreatePost(ctx context.Context, viewer users.Identity, req posts.CreatePostRequest) (*posts.Post, error) {
	if m.createPostFunc != nil {
		return m.createPostFunc(ctx, viewer, req)
	}
	return &posts.Post{ID: 1, Title: req.Title, AuthorID: viewer.UserID}, nil
}

func (m *mockPostService) CreatePostWithImage(ctx context.Context, viewer users.Identity, req posts.CreatePostRequest, upload posts.Upload, file io.Reader) (*posts.Post, *posts.Image, error) {
	if m.createPostWithImageFunc != nil {
		return m.createPostWithImageFunc(ctx, viewer, req, upload, file)
	}
	return &posts.Post{ID: 1}, &posts.Image{ID: 1, PostID: 1}, nil
}

func (m *mockPostService) UpdatePost(ctx context.Context, viewer users.Identity, rawID string, req posts.UpdatePostRequest) (*posts.Post, error) {
	if m.updatePostFunc != nil {
		return m.updatePostFunc(ctx, viewer, rawID, req)
	}
	return &posts.Post{ID: 1}, nil
}

func (m *mockPostService) DeletePost(ctx context.Context, viewer users.Identity, rawID string) (*posts.DeleteResult, error) {
	if m.deletePostFunc != nil {
		return m.deletePostFunc(ctx, viewer, rawID)
	}
	return &posts.DeleteResult{Post: &posts.Post{ID: 1}}, nil
}

// withIdentity simulates the identity middleware
func withIdentity(r *http.Request, identity users.Identity) *http.Request {
	return r.WithContext(middleware.SetIdentity(r.Context(), identity))
}

// withURLParam simulates chi routing a {key} path parameter
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
