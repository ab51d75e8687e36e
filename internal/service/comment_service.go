package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"socialblog/internal/cache"
	"socialblog/internal/models"
	"socialblog/internal/observability"
	"socialblog/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// CreateComment attaches a comment to the post named by in.PostID. The
// returned comment has its Post loaded so callers can notify the publisher.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Login required")
	}
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content: in.Content,
		UserID:  in.UserID,
		PostID:  post.ID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	cache.InvalidatePost(ctx, post.ID)
	observability.ContentCreated.WithLabelValues("comment").Inc()

	comment.Post = post
	return comment, nil
}

func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}

// GetForModify loads the comment and checks that userID published it.
func (s *CommentService) GetForModify(ctx context.Context, userID, commentID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !models.CanModify(userID, comment) {
		return nil, models.NewForbiddenError("You can only modify your own comments")
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.GetForModify(ctx, in.UserID, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}

	comment.Content = in.Content
	comment.UserID = in.UserID
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.GetForModify(ctx, in.UserID, in.CommentID)
	if err != nil {
		return err
	}
	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, comment.PostID)
	return nil
}

func validateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewFieldError("content", "This field is required.")
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return models.NewFieldError("content", "Comment too long (max 10000 characters)")
	}
	return nil
}
