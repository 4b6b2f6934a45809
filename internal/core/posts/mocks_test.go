package posts

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"Pressroom/internal/core/users"
)

// memoryRepository implements Repository over maps. The *Func fields
// override single operations to inject failures.
type memoryRepository struct {
	createWithImageFunc func(ctx context.Context, post *Post, categories []string, image *Image) error
	listPublishedFunc   func(ctx context.Context) ([]*Post, error)

	posts    map[int64]*Post
	images   map[int64][]Image
	likes    map[int64]int64
	comments map[int64]int64
	nextID   int64
	updates  int
	mu       sync.Mutex
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		posts:    map[int64]*Post{},
		images:   map[int64][]Image{},
		likes:    map[int64]int64{},
		comments: map[int64]int64{},
	}
}

func (m *memoryRepository) sorted(keep func(*Post) bool) []*Post {
	var out []*Post
	for _, p := range m.posts {
		if keep(p) {
			cp := *p
			if imgs := m.images[p.ID]; len(imgs) > 0 {
				img := imgs[len(imgs)-1]
				cp.Image = &img
			}
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memoryRepository) ListPublished(ctx context.Context) ([]*Post, error) {
	if m.listPublishedFunc != nil {
		return m.listPublishedFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(p *Post) bool { return p.Published }), nil
}

func (m *memoryRepository) GetByID(ctx context.Context, id int64) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.sorted(func(p *Post) bool { return p.ID == id })
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

func (m *memoryRepository) GetAuthorID(ctx context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return 0, ErrNotFound
	}
	return p.AuthorID, nil
}

func (m *memoryRepository) ListUnpublished(ctx context.Context, authorID *int64) ([]*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(p *Post) bool {
		return !p.Published && (authorID == nil || p.AuthorID == *authorID)
	}), nil
}

func (m *memoryRepository) ListPublishedByAuthor(ctx context.Context, authorID int64) ([]*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(p *Post) bool { return p.Published && p.AuthorID == authorID }), nil
}

func (m *memoryRepository) insert(post *Post, categories []string) error {
	if post.Title == "" {
		return NewValidationError("title", "is required")
	}
	m.nextID++
	post.ID = m.nextID
	post.Categories = make([]Category, 0, len(categories))
	for i, name := range categories {
		post.Categories = append(post.Categories, Category{ID: int64(i + 1), Name: name})
	}
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *memoryRepository) Create(ctx context.Context, post *Post, categories []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(post, categories)
}

func (m *memoryRepository) CreateWithImage(ctx context.Context, post *Post, categories []string, image *Image) error {
	if m.createWithImageFunc != nil {
		return m.createWithImageFunc(ctx, post, categories, image)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.insert(post, categories); err != nil {
		return err
	}
	image.ID = post.ID
	image.PostID = post.ID
	m.images[post.ID] = append(m.images[post.ID], *image)
	return nil
}

func (m *memoryRepository) Update(ctx context.Context, id int64, req UpdatePostRequest) (*Post, error) {
	m.mu.Lock()
	m.updates++
	p, ok := m.posts[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Content != nil {
		p.Content = req.Content
	}
	if req.Published != nil {
		p.Published = *req.Published
	}
	if req.Categories != nil {
		p.Categories = []Category{}
		for i, name := range *req.Categories {
			p.Categories = append(p.Categories, Category{ID: int64(i + 1), Name: name})
		}
	}
	m.mu.Unlock()
	return m.GetByID(ctx, id)
}

func (m *memoryRepository) DeleteCascade(ctx context.Context, id int64) (*DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := &DeleteResult{
		Post:          p,
		Likes:         BatchCount{Count: m.likes[id]},
		Comments:      BatchCount{Count: m.comments[id]},
		Images:        BatchCount{Count: int64(len(m.images[id]))},
		RemovedImages: m.images[id],
	}
	delete(m.posts, id)
	delete(m.likes, id)
	delete(m.comments, id)
	delete(m.images, id)
	return result, nil
}

// fakeImageStore implements ImageStore in memory
type fakeImageStore struct {
	saveErr   error
	removeErr error
	files     map[string][]byte
	removed   []string
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{files: map[string][]byte{}}
}

func (f *fakeImageStore) Save(ctx context.Context, upload Upload, file io.Reader) (*StoredFile, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	name := "1700000000000_" + upload.OriginalName
	f.files[name] = data
	return &StoredFile{Destination: "image/", Filename: name, Path: "image/" + name, Size: int64(len(data))}, nil
}

func (f *fakeImageStore) Remove(ctx context.Context, filename string) error {
	f.removed = append(f.removed, filename)
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.files, filename)
	return nil
}

// recordingPublisher implements EventPublisher and keeps every event
type recordingPublisher struct {
	err    error
	events []PostEvent
}

func (r *recordingPublisher) Publish(ctx context.Context, event PostEvent) error {
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingPublisher) types() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

var errStoreDown = errors.New("store unavailable")

var (
	authorViewer = users.Identity{UserID: 7}
	otherViewer  = users.Identity{UserID: 8}
	adminViewer  = users.Identity{UserID: 1, Admin: true}
)
