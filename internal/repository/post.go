package repository

import (
	"context"

	"socialblog/internal/cache"
	"socialblog/internal/models"
	"socialblog/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	// GetByUserID lists one publisher's posts, newest first.
	GetByUserID(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	// List returns all posts, newest first. limit <= 0 means no limit.
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	CountByUserID(ctx context.Context, userID uint) (int64, error)
	Update(ctx context.Context, post *models.Post) error
	// Delete removes the post together with its comments.
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

const commentsCountSelect = `posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.deleted_at IS NULL) AS comments_count`

func (r *postRepository) listQuery(ctx context.Context) *gorm.DB {
	return readDB(r.db).WithContext(ctx).
		Model(&models.Post{}).
		Select(commentsCountSelect).
		Preload("User").
		Preload("User.Profile").
		Order("posts.created_at DESC, posts.id DESC")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetByID caches only the post row under post:<id>; the publisher comes from
// its own user:<id> entry.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "GetByID", "posts")
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&post, id).Error; err != nil {
			return notFoundOr(err, "Post", id)
		}
		return nil
	})
	if err == nil {
		err = r.attachPublisher(ctx, &post)
	}
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) attachPublisher(ctx context.Context, post *models.Post) error {
	author, err := loadUser(ctx, r.db, post.UserID)
	switch {
	case err == nil:
		post.User = *author
	case models.IsCode(err, models.CodeNotFound):
		post.User = models.User{}
	default:
		return err
	}
	return nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	q := r.listQuery(ctx).Where("posts.user_id = ?", userID)
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "List", "posts")
	var posts []*models.Post
	q := r.listQuery(ctx)
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	err := q.Find(&posts).Error
	observability.EndSpan(span, err)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Post{}).
		Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(&models.Post{ID: post.ID}).Updates(map[string]any{
		"title":   post.Title,
		"content": post.Content,
		"user_id": post.UserID,
	})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return notFoundOr(err, "Post", id)
	}
	cache.InvalidatePost(ctx, id)
	return nil
}
