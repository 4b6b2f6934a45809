package posts

import (
	"time"

	"Pressroom/internal/core/users"
)

// Post represents a blog post and the relations the listing views expand
type Post struct {
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	Content    *string     `json:"content"`
	Author     *users.User `json:"author" gorm:"foreignKey:AuthorID"`
	Image      *Image      `json:"image" gorm:"foreignKey:PostID"`
	Title      string      `json:"title"`
	Categories []Category  `json:"categories" gorm:"many2many:post_categories"`
	Comments   []Comment   `json:"comments" gorm:"foreignKey:PostID"`
	Likes      []Like      `json:"likes" gorm:"foreignKey:PostID"`
	ID         int64       `json:"id" gorm:"primaryKey"`
	AuthorID   int64       `json:"authorId"`
	Published  bool        `json:"published"`
}

// Category is a tag attached to posts through post_categories
type Category struct {
	Name string `json:"name"`
	ID   int64  `json:"id" gorm:"primaryKey"`
}

// Comment is a reply on a post. Replies to other comments carry ParentID and
// are exposed as ChildComments of their parent.
type Comment struct {
	CreatedAt     time.Time   `json:"createdAt"`
	ParentID      *int64      `json:"parentId"`
	Author        *users.User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Body          string      `json:"body"`
	ChildComments []Comment   `json:"childComments,omitempty" gorm:"foreignKey:ParentID"`
	ID            int64       `json:"id" gorm:"primaryKey"`
	PostID        int64       `json:"postId"`
	AuthorID      int64       `json:"authorId"`
}

// Like is a user's endorsement of a post
type Like struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        int64     `json:"id" gorm:"primaryKey"`
	PostID    int64     `json:"postId"`
	AuthorID  int64     `json:"authorId"`
}

// Image is the metadata of an uploaded file illustrating a post.
// Rows are only ever created alongside their post.
type Image struct {
	CreatedAt    time.Time `json:"createdAt"`
	FieldName    string    `json:"fieldname"`
	OriginalName string    `json:"originalname"`
	Encoding     string    `json:"encoding"`
	MimeType     string    `json:"mimetype"`
	Destination  string    `json:"destination"`
	Filename     string    `json:"filename"`
	Path         string    `json:"path"`
	ID           int64     `json:"id" gorm:"primaryKey"`
	PostID       int64     `json:"postId"`
	AuthorID     int64     `json:"authorId"`
	Size         int64     `json:"size"`
}

// PostSummary is the narrow projection shown on a profile page
type PostSummary struct {
	Author     *users.User `json:"author"`
	Image      *Image      `json:"image"`
	Title      string      `json:"title"`
	Categories []Category  `json:"categories"`
	Comments   []Comment   `json:"comments"`
	Likes      []Like      `json:"likes"`
}

// CreatePostRequest holds the fields a caller may set when creating a post.
// The author always comes from the caller identity.
type CreatePostRequest struct {
	Content    *string  `json:"content,omitempty"`
	Title      string   `json:"title"`
	Categories []string `json:"categories,omitempty"`
	Published  bool     `json:"published"`
}

// UpdatePostRequest holds the fields a caller may change on a post.
// Nil fields keep their stored value. Id, author and timestamps are not
// updatable and are dropped when decoding.
type UpdatePostRequest struct {
	Title      *string   `json:"title,omitempty"`
	Content    *string   `json:"content,omitempty"`
	Published  *bool     `json:"published,omitempty"`
	Categories *[]string `json:"categories,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (r UpdatePostRequest) IsEmpty() bool {
	return r.Title == nil && r.Content == nil && r.Published == nil && r.Categories == nil
}

// Upload is a file received with a create-with-image request
type Upload struct {
	FieldName    string
	OriginalName string
	Encoding     string
	MimeType     string
	Size         int64
}

// StoredFile describes where an upload landed
type StoredFile struct {
	Destination string
	Filename    string
	Path        string
	Size        int64
}

// BatchCount reports how many rows a bulk delete removed
type BatchCount struct {
	Count int64 `json:"count"`
}

// DeleteResult is everything removed by a cascading post delete
type DeleteResult struct {
	Post     *Post
	Likes    BatchCount
	Comments BatchCount
	Images   BatchCount

	// RemovedImages are the image rows deleted with the post; their files are
	// cleaned up after the transaction commits.
	RemovedImages []Image
}

// Event types published after a post changes
const (
	EventPostCreated = "post.created"
	EventPostUpdated = "post.updated"
	EventPostDeleted = "post.deleted"
)

// PostEvent notifies downstream consumers about a committed post change
type PostEvent struct {
	OccurredAt time.Time `json:"occurredAt"`
	Type       string    `json:"type"`
	PostID     int64     `json:"postId"`
	AuthorID   int64     `json:"authorId"`
	HasImage   bool      `json:"hasImage,omitempty"`
}
