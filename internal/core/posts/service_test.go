package posts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Pressroom/internal/core/users"
)

type serviceFixture struct {
	repo      *memoryRepository
	images    *fakeImageStore
	publisher *recordingPublisher
	service   *postService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		repo:      newMemoryRepository(),
		images:    newFakeImageStore(),
		publisher: &recordingPublisher{},
	}
	f.service = NewPostService(f.repo, f.images, f.publisher, nil).(*postService)
	f.service.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

func (f *serviceFixture) create(t *testing.T, viewer users.Identity, title string, published bool) *Post {
	t.Helper()
	post, err := f.service.CreatePost(context.Background(), viewer, CreatePostRequest{Title: title, Published: published})
	require.NoError(t, err)
	return post
}

func ids(list []*Post) []int64 {
	return lo.Map(list, func(p *Post, _ int) int64 { return p.ID })
}

func TestParseID(t *testing.T) {
	tests := map[string]int64{
		"42":   42,
		" 7 ":  7,
		"0":    0,
		"-3":   0,
		"abc":  0,
		"":     0,
		"1.5":  0,
		"9e99": 0,
		"5.0":  0,
		"1e1":  0,
		"0x10": 0,
	}
	for raw, want := range tests {
		assert.Equal(t, want, ParseID(raw), "ParseID(%q)", raw)
	}
}

func TestCreatePost_AuthorComesFromIdentity(t *testing.T) {
	f := newServiceFixture()
	content := "hello"

	post, err := f.service.CreatePost(context.Background(), authorViewer, CreatePostRequest{
		Title:      "A",
		Content:    &content,
		Published:  true,
		Categories: []string{" go ", "news", "go", ""},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7), post.AuthorID)
	assert.Equal(t, "A", post.Title)
	assert.Equal(t, &content, post.Content)
	assert.True(t, post.Published)
	assert.Equal(t, []string{"go", "news"}, lo.Map(post.Categories, func(c Category, _ int) string { return c.Name }))
	assert.Equal(t, []string{EventPostCreated}, f.publisher.types())
	assert.Equal(t, int64(7), f.publisher.events[0].AuthorID)
}

func TestCreatePost_Errors(t *testing.T) {
	f := newServiceFixture()

	_, err := f.service.CreatePost(context.Background(), users.Anonymous, CreatePostRequest{Title: "A"})
	assert.ErrorIs(t, err, users.ErrAuthRequired)

	_, err = f.service.CreatePost(context.Background(), authorViewer, CreatePostRequest{})
	assert.True(t, IsValidationError(err))

	assert.Empty(t, f.publisher.events)
}

func TestCreatePost_PublishFailureDoesNotFail(t *testing.T) {
	f := newServiceFixture()
	f.publisher.err = errors.New("broker down")

	post, err := f.service.CreatePost(context.Background(), authorViewer, CreatePostRequest{Title: "A"})
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
}

func TestListPublished_OnlyPublished(t *testing.T) {
	f := newServiceFixture()
	draft := f.create(t, authorViewer, "draft", false)
	live := f.create(t, authorViewer, "live", true)
	other := f.create(t, otherViewer, "other", true)

	list, err := f.service.ListPublished(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{live.ID, other.ID}, ids(list))
	assert.NotContains(t, ids(list), draft.ID)
}

func TestListPublished_EmptyIsNotNil(t *testing.T) {
	f := newServiceFixture()
	f.repo.listPublishedFunc = func(ctx context.Context) ([]*Post, error) { return nil, nil }

	list, err := f.service.ListPublished(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestListings_DependentsAreNeverNil(t *testing.T) {
	f := newServiceFixture()
	live := f.create(t, authorViewer, "live", true)
	f.create(t, authorViewer, "draft", false)

	published, err := f.service.ListPublished(context.Background())
	require.NoError(t, err)
	drafts, err := f.service.ListMyUnpublished(context.Background(), authorViewer)
	require.NoError(t, err)
	got, err := f.service.GetPost(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, live.ID, got.ID)

	for _, p := range append(append(published, drafts...), got) {
		assert.NotNil(t, p.Categories, "post %d categories", p.ID)
		assert.NotNil(t, p.Comments, "post %d comments", p.ID)
		assert.NotNil(t, p.Likes, "post %d likes", p.ID)
		assert.Nil(t, p.Image)
	}
}

func TestListPublished_StoreError(t *testing.T) {
	f := newServiceFixture()
	f.repo.listPublishedFunc = func(ctx context.Context) ([]*Post, error) { return nil, errStoreDown }

	_, err := f.service.ListPublished(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
}

func TestGetPost(t *testing.T) {
	f := newServiceFixture()
	post := f.create(t, authorViewer, "A", true)
	ctx := context.Background()

	got, err := f.service.GetPost(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, post.ID, got.ID)

	for _, raw := range []string{"999", "abc", "0", "-1", ""} {
		got, err := f.service.GetPost(ctx, raw)
		assert.NoError(t, err, raw)
		assert.Nil(t, got, raw)
	}
}

func TestListAllUnpublished_AdminOnly(t *testing.T) {
	f := newServiceFixture()
	mine := f.create(t, authorViewer, "mine", false)
	theirs := f.create(t, otherViewer, "theirs", false)
	f.create(t, otherViewer, "live", true)
	ctx := context.Background()

	_, err := f.service.ListAllUnpublished(ctx, users.Anonymous)
	assert.ErrorIs(t, err, users.ErrAuthRequired)

	_, err = f.service.ListAllUnpublished(ctx, authorViewer)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	list, err := f.service.ListAllUnpublished(ctx, adminViewer)
	require.NoError(t, err)
	assert.Equal(t, []int64{mine.ID, theirs.ID}, ids(list))
}

func TestListMyUnpublished(t *testing.T) {
	f := newServiceFixture()
	mine := f.create(t, authorViewer, "mine", false)
	f.create(t, otherViewer, "theirs", false)
	f.create(t, authorViewer, "live", true)
	ctx := context.Background()

	list, err := f.service.ListMyUnpublished(ctx, authorViewer)
	require.NoError(t, err)
	assert.Equal(t, []int64{mine.ID}, ids(list))

	list, err = f.service.ListMyUnpublished(ctx, users.Anonymous)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestListMyPublished_Projection(t *testing.T) {
	f := newServiceFixture()
	f.create(t, authorViewer, "live", true)
	f.create(t, authorViewer, "draft", false)
	f.create(t, otherViewer, "theirs", true)
	ctx := context.Background()

	list, err := f.service.ListMyPublished(ctx, authorViewer)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "live", list[0].Title)
	assert.NotNil(t, list[0].Comments)
	assert.NotNil(t, list[0].Likes)

	list, err = f.service.ListMyPublished(ctx, users.Anonymous)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreatePostWithImage(t *testing.T) {
	f := newServiceFixture()
	upload := Upload{FieldName: "image", OriginalName: "cat.png", MimeType: "image/png", Encoding: "7bit"}

	post, image, err := f.service.CreatePostWithImage(context.Background(), authorViewer,
		CreatePostRequest{Title: "Cat"}, upload, strings.NewReader("png"))
	require.NoError(t, err)

	assert.Equal(t, post.ID, image.PostID)
	assert.Equal(t, int64(7), image.AuthorID)
	assert.Equal(t, "1700000000000_cat.png", image.Filename)
	assert.Equal(t, "cat.png", image.OriginalName)
	assert.Equal(t, "image/png", image.MimeType)
	assert.Equal(t, int64(3), image.Size)
	assert.Contains(t, f.images.files, "1700000000000_cat.png")

	require.Len(t, f.publisher.events, 1)
	assert.True(t, f.publisher.events[0].HasImage)

	got, err := f.service.GetPost(context.Background(), "1")
	require.NoError(t, err)
	require.NotNil(t, got.Image)
	assert.Equal(t, image.Filename, got.Image.Filename)
}

func TestCreatePostWithImage_Validation(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	_, _, err := f.service.CreatePostWithImage(ctx, users.Anonymous, CreatePostRequest{Title: "A"},
		Upload{OriginalName: "a.png"}, strings.NewReader("x"))
	assert.ErrorIs(t, err, users.ErrAuthRequired)

	_, _, err = f.service.CreatePostWithImage(ctx, authorViewer, CreatePostRequest{Title: "A"}, Upload{}, nil)
	assert.ErrorIs(t, err, ErrMissingImage)

	f.images.saveErr = errors.New("disk full")
	_, _, err = f.service.CreatePostWithImage(ctx, authorViewer, CreatePostRequest{Title: "A"},
		Upload{OriginalName: "a.png"}, strings.NewReader("x"))
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, f.repo.posts)
}

func TestCreatePostWithImage_RollbackRemovesFile(t *testing.T) {
	f := newServiceFixture()

	_, _, err := f.service.CreatePostWithImage(context.Background(), authorViewer,
		CreatePostRequest{}, Upload{OriginalName: "cat.png"}, strings.NewReader("png"))

	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.False(t, IsPartialFailure(err))
	assert.Equal(t, []string{"1700000000000_cat.png"}, f.images.removed)
	assert.Empty(t, f.images.files)
	assert.Empty(t, f.publisher.events)
}

func TestCreatePostWithImage_PartialFailure(t *testing.T) {
	f := newServiceFixture()
	f.repo.createWithImageFunc = func(ctx context.Context, post *Post, categories []string, image *Image) error {
		return errStoreDown
	}
	f.images.removeErr = errors.New("permission denied")

	_, _, err := f.service.CreatePostWithImage(context.Background(), authorViewer,
		CreatePostRequest{Title: "A"}, Upload{OriginalName: "cat.png"}, strings.NewReader("png"))

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.ErrorIs(t, partial.CreateErr, errStoreDown)
	assert.ErrorContains(t, partial.CleanupErr, "permission denied")
	assert.Equal(t, "image/1700000000000_cat.png", partial.Path)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestUpdatePost_MergesFields(t *testing.T) {
	f := newServiceFixture()
	content := "original"
	created, err := f.service.CreatePost(context.Background(), authorViewer, CreatePostRequest{
		Title: "A", Content: &content, Categories: []string{"go"},
	})
	require.NoError(t, err)

	newTitle := "B"
	updated, err := f.service.UpdatePost(context.Background(), authorViewer, "1", UpdatePostRequest{Title: &newTitle})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "B", updated.Title)
	require.NotNil(t, updated.Content)
	assert.Equal(t, "original", *updated.Content)
	assert.False(t, updated.Published)
	assert.Len(t, updated.Categories, 1)
	assert.Equal(t, int64(7), updated.AuthorID)
	assert.Equal(t, []string{EventPostCreated, EventPostUpdated}, f.publisher.types())
}

func TestUpdatePost_EmptyUpdateWritesNothing(t *testing.T) {
	f := newServiceFixture()
	post := f.create(t, authorViewer, "A", false)
	f.publisher.events = nil

	got, err := f.service.UpdatePost(context.Background(), authorViewer, "1", UpdatePostRequest{})
	require.NoError(t, err)

	assert.Equal(t, post.ID, got.ID)
	assert.Equal(t, "A", got.Title)
	assert.Zero(t, f.repo.updates)
	assert.Empty(t, f.publisher.events)

	_, err = f.service.UpdatePost(context.Background(), authorViewer, "99", UpdatePostRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePostRequest_IsEmpty(t *testing.T) {
	title := "B"
	none := []string{}

	assert.True(t, UpdatePostRequest{}.IsEmpty())
	assert.False(t, UpdatePostRequest{Title: &title}.IsEmpty())
	assert.False(t, UpdatePostRequest{Categories: &none}.IsEmpty(), "clearing categories is a change")
}

func TestUpdatePost_ReplacesCategories(t *testing.T) {
	f := newServiceFixture()
	_, err := f.service.CreatePost(context.Background(), authorViewer, CreatePostRequest{Title: "A", Categories: []string{"go"}})
	require.NoError(t, err)

	cats := []string{"rust", " rust ", "zig"}
	updated, err := f.service.UpdatePost(context.Background(), authorViewer, "1", UpdatePostRequest{Categories: &cats})
	require.NoError(t, err)
	assert.Equal(t, []string{"rust", "zig"}, lo.Map(updated.Categories, func(c Category, _ int) string { return c.Name }))
}

func TestUpdatePost_Authorization(t *testing.T) {
	published := true
	tests := []struct {
		viewer  users.Identity
		wantErr error
		name    string
		rawID   string
	}{
		{name: "owner", viewer: authorViewer, rawID: "1"},
		{name: "admin", viewer: adminViewer, rawID: "1"},
		{name: "other user", viewer: otherViewer, rawID: "1", wantErr: ErrNotAuthorized},
		{name: "anonymous", viewer: users.Anonymous, rawID: "1", wantErr: users.ErrAuthRequired},
		{name: "missing post", viewer: adminViewer, rawID: "99", wantErr: ErrNotFound},
		{name: "non-numeric id", viewer: authorViewer, rawID: "abc", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()
			f.create(t, authorViewer, "A", false)

			_, err := f.service.UpdatePost(context.Background(), tt.viewer, tt.rawID, UpdatePostRequest{Published: &published})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, f.repo.posts[1].Published)
				return
			}
			require.NoError(t, err)
			assert.True(t, f.repo.posts[1].Published)
		})
	}
}

func TestDeletePost_Cascade(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	post, _, err := f.service.CreatePostWithImage(ctx, authorViewer, CreatePostRequest{Title: "A"},
		Upload{OriginalName: "cat.png"}, strings.NewReader("png"))
	require.NoError(t, err)
	f.repo.likes[post.ID] = 3
	f.repo.comments[post.ID] = 2

	result, err := f.service.DeletePost(ctx, authorViewer, "1")
	require.NoError(t, err)

	assert.Equal(t, post.ID, result.Post.ID)
	assert.Equal(t, int64(3), result.Likes.Count)
	assert.Equal(t, int64(2), result.Comments.Count)
	assert.Equal(t, int64(1), result.Images.Count)
	assert.Equal(t, []string{"1700000000000_cat.png"}, f.images.removed)

	got, err := f.service.GetPost(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Equal(t, []string{EventPostCreated, EventPostDeleted}, f.publisher.types())
}

func TestDeletePost_FileRemovalFailureIsNotFatal(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	_, _, err := f.service.CreatePostWithImage(ctx, authorViewer, CreatePostRequest{Title: "A"},
		Upload{OriginalName: "cat.png"}, strings.NewReader("png"))
	require.NoError(t, err)
	f.images.removeErr = errors.New("permission denied")

	result, err := f.service.DeletePost(ctx, adminViewer, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Images.Count)
}

func TestDeletePost_Errors(t *testing.T) {
	f := newServiceFixture()
	f.create(t, authorViewer, "A", true)
	ctx := context.Background()

	_, err := f.service.DeletePost(ctx, otherViewer, "1")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.service.DeletePost(ctx, users.Anonymous, "1")
	assert.ErrorIs(t, err, users.ErrAuthRequired)

	_, err = f.service.DeletePost(ctx, authorViewer, "2")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Contains(t, f.repo.posts, int64(1))
}

func TestDraftThenPublishScenario(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	post := f.create(t, authorViewer, "A", false)

	drafts, err := f.service.ListMyUnpublished(ctx, authorViewer)
	require.NoError(t, err)
	assert.Contains(t, ids(drafts), post.ID)

	published, err := f.service.ListPublished(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids(published), post.ID)

	publish := true
	_, err = f.service.UpdatePost(ctx, authorViewer, "1", UpdatePostRequest{Published: &publish})
	require.NoError(t, err)

	published, err = f.service.ListPublished(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids(published), post.ID)

	drafts, err = f.service.ListMyUnpublished(ctx, authorViewer)
	require.NoError(t, err)
	assert.NotContains(t, ids(drafts), post.ID)
}

func TestOwnerOrAdmin(t *testing.T) {
	policy := NewOwnerOrAdmin()

	assert.True(t, policy.CanModify(authorViewer, 7))
	assert.False(t, policy.CanModify(otherViewer, 7))
	assert.True(t, policy.CanModify(adminViewer, 7))
	assert.False(t, policy.CanModify(users.Anonymous, 0))

	assert.True(t, policy.CanListAllUnpublished(adminViewer))
	assert.False(t, policy.CanListAllUnpublished(authorViewer))
	assert.False(t, policy.CanListAllUnpublished(users.Identity{Admin: true}))
}

func TestSummarize(t *testing.T) {
	summary := Summarize(&Post{ID: 1, Title: "T", Content: lo.ToPtr("hidden")})

	assert.Equal(t, "T", summary.Title)
	assert.Equal(t, []Category{}, summary.Categories)
	assert.Equal(t, []Comment{}, summary.Comments)
	assert.Equal(t, []Like{}, summary.Likes)
	assert.Nil(t, summary.Image)
}
