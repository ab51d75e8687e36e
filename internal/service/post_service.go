package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"socialblog/internal/models"
	"socialblog/internal/observability"
	"socialblog/internal/repository"
)

const (
	maxTitleLen   = 100
	maxContentLen = 50000
)

type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

type CreatePostInput struct {
	UserID  uint
	Title   string
	Content string
}

type ListPostsInput struct {
	Limit  int
	Offset int
}

type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Title   string
	Content string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
	}
}

// Feed lists every post, newest first.
func (s *PostService) Feed(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	return s.postRepo.List(ctx, in.Limit, in.Offset)
}

// ListByUsername resolves the publisher and lists their posts, newest first.
func (s *PostService) ListByUsername(ctx context.Context, username string, in ListPostsInput) (*models.User, []*models.Post, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	posts, err := s.postRepo.GetByUserID(ctx, user.ID, in.Limit, in.Offset)
	if err != nil {
		return nil, nil, err
	}
	return user, posts, nil
}

func (s *PostService) ListByUser(ctx context.Context, userID uint, in ListPostsInput) ([]*models.Post, error) {
	return s.postRepo.GetByUserID(ctx, userID, in.Limit, in.Offset)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// GetForModify loads the post and checks that userID published it.
func (s *PostService) GetForModify(ctx context.Context, userID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !models.CanModify(userID, post) {
		return nil, models.NewForbiddenError("You can only modify your own posts")
	}
	return post, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Login required")
	}
	if err := validatePostFields(in.Title, in.Content); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:   in.Title,
		Content: in.Content,
		UserID:  in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	observability.ContentCreated.WithLabelValues("post").Inc()
	return post, nil
}

// UpdatePost rewrites title and content. The publisher is re-stamped from
// the caller, which is already known to be the owner.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.GetForModify(ctx, in.UserID, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := validatePostFields(in.Title, in.Content); err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Content = in.Content
	post.UserID = in.UserID
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	if _, err := s.GetForModify(ctx, in.UserID, in.PostID); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, in.PostID)
}

func validatePostFields(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewFieldError("title", "This field is required.")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return models.NewFieldError("title", "Title too long (max 100 characters)")
	}
	if strings.TrimSpace(content) == "" {
		return models.NewFieldError("content", "This field is required.")
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return models.NewFieldError("content", "Content too long (max 50000 characters)")
	}
	return nil
}
