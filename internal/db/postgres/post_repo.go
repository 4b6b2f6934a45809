package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Pressroom/internal/core/posts"
)

type postgresPostRepo struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *gorm.DB) posts.Repository {
	return &postgresPostRepo{db: db}
}

func orderByID(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".id")
	}
}

// withExpansions preloads author, categories, comments with their authors and likes.
// The image is left to callers because not every listing includes it.
func withExpansions(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Categories", orderByID("categories")).
		Preload("Comments", orderByID("comments")).
		Preload("Comments.Author").
		Preload("Likes", orderByID("likes"))
}

// withImage preloads the newest image of each post
func withImage(db *gorm.DB) *gorm.DB {
	return db.Preload("Image", orderByID("images"))
}

// ListPublished returns posts with published = true
func (r *postgresPostRepo) ListPublished(ctx context.Context) ([]*posts.Post, error) {
	var list []*posts.Post
	err := withImage(withExpansions(r.db.WithContext(ctx))).
		Where("published = ?", true).
		Order("posts.id").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list published posts: %w", err)
	}
	return list, nil
}

// GetByID returns a post with all expansions
func (r *postgresPostRepo) GetByID(ctx context.Context, id int64) (*posts.Post, error) {
	var post posts.Post
	err := withImage(withExpansions(r.db.WithContext(ctx))).
		Where("posts.id = ?", id).
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, posts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post by id: %w", err)
	}
	return &post, nil
}

// GetAuthorID returns the author of a post
func (r *postgresPostRepo) GetAuthorID(ctx context.Context, id int64) (int64, error) {
	var authorIDs []int64
	err := r.db.WithContext(ctx).
		Model(&posts.Post{}).
		Where("id = ?", id).
		Pluck("author_id", &authorIDs).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get post author: %w", err)
	}
	if len(authorIDs) == 0 {
		return 0, posts.ErrNotFound
	}
	return authorIDs[0], nil
}

// ListUnpublished returns drafts, with child comments expanded.
// The per-author listing leaves images out, like the profile draft view always has.
func (r *postgresPostRepo) ListUnpublished(ctx context.Context, authorID *int64) ([]*posts.Post, error) {
	query := withExpansions(r.db.WithContext(ctx)).
		Preload("Comments.ChildComments", orderByID("comments")).
		Where("published = ?", false)

	if authorID != nil {
		query = query.Where("author_id = ?", *authorID)
	} else {
		query = withImage(query)
	}

	var list []*posts.Post
	if err := query.Order("posts.id").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list unpublished posts: %w", err)
	}
	return list, nil
}

// ListPublishedByAuthor loads only the columns of the profile projection
func (r *postgresPostRepo) ListPublishedByAuthor(ctx context.Context, authorID int64) ([]*posts.Post, error) {
	var list []*posts.Post
	err := withImage(withExpansions(r.db.WithContext(ctx))).
		Select("posts.id", "posts.title", "posts.author_id").
		Where("author_id = ? AND published = ?", authorID, true).
		Order("posts.id").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list published posts by author: %w", err)
	}
	return list, nil
}

// Create inserts a post and links its categories
func (r *postgresPostRepo) Create(ctx context.Context, post *posts.Post, categories []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertPost(tx, post, categories)
	})
	return translateError(err)
}

// CreateWithImage inserts the post and then its image, atomically
func (r *postgresPostRepo) CreateWithImage(ctx context.Context, post *posts.Post, categories []string, image *posts.Image) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertPost(tx, post, categories); err != nil {
			return err
		}

		image.PostID = post.ID
		if err := tx.Create(image).Error; err != nil {
			return fmt.Errorf("failed to insert image: %w", err)
		}
		return nil
	})
	return translateError(err)
}

func insertPost(tx *gorm.DB, post *posts.Post, categories []string) error {
	cats, err := ensureCategories(tx, categories)
	if err != nil {
		return err
	}
	post.Categories = cats

	// Categories already exist; only the join rows are written.
	if err := tx.Omit("Categories.*").Create(post).Error; err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// ensureCategories upserts categories by name and returns them ordered by id
func ensureCategories(tx *gorm.DB, names []string) ([]posts.Category, error) {
	if len(names) == 0 {
		return []posts.Category{}, nil
	}

	rows := lo.Map(names, func(name string, _ int) posts.Category {
		return posts.Category{Name: name}
	})
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert categories: %w", err)
	}

	var cats []posts.Category
	if err := tx.Where("name IN ?", names).Order("id").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return cats, nil
}

// Update overwrites the supplied fields and keeps the rest.
// updated_at is always written so a missing row shows up as zero rows affected.
func (r *postgresPostRepo) Update(ctx context.Context, id int64, req posts.UpdatePostRequest) (*posts.Post, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{
			"updated_at": time.Now().UTC(),
		}
		if req.Title != nil {
			fields["title"] = *req.Title
		}
		if req.Content != nil {
			fields["content"] = *req.Content
		}
		if req.Published != nil {
			fields["published"] = *req.Published
		}

		res := tx.Model(&posts.Post{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return fmt.Errorf("failed to update post: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return posts.ErrNotFound
		}

		if req.Categories == nil {
			return nil
		}
		cats, err := ensureCategories(tx, *req.Categories)
		if err != nil {
			return err
		}
		assoc := tx.Model(&posts.Post{ID: id}).Association("Categories")
		if len(cats) == 0 {
			err = assoc.Clear()
		} else {
			err = assoc.Replace(cats)
		}
		if err != nil {
			return fmt.Errorf("failed to replace categories: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}

	return r.GetByID(ctx, id)
}

// DeleteCascade removes likes, comments and images of a post and then the
// post itself. The four statements share one transaction; a failure at any
// step rolls back all of them.
func (r *postgresPostRepo) DeleteCascade(ctx context.Context, id int64) (*posts.DeleteResult, error) {
	result := &posts.DeleteResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		likes := tx.Where("post_id = ?", id).Delete(&posts.Like{})
		if likes.Error != nil {
			return fmt.Errorf("failed to delete likes: %w", likes.Error)
		}
		result.Likes.Count = likes.RowsAffected

		comments := tx.Where("post_id = ?", id).Delete(&posts.Comment{})
		if comments.Error != nil {
			return fmt.Errorf("failed to delete comments: %w", comments.Error)
		}
		result.Comments.Count = comments.RowsAffected

		var images []posts.Image
		imgs := tx.Clauses(clause.Returning{}).Where("post_id = ?", id).Delete(&images)
		if imgs.Error != nil {
			return fmt.Errorf("failed to delete images: %w", imgs.Error)
		}
		result.Images.Count = imgs.RowsAffected
		result.RemovedImages = images

		var post posts.Post
		deleted := tx.Clauses(clause.Returning{}).Where("id = ?", id).Delete(&post)
		if deleted.Error != nil {
			return fmt.Errorf("failed to delete post: %w", deleted.Error)
		}
		if deleted.RowsAffected == 0 {
			return posts.ErrNotFound
		}
		result.Post = &post
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
