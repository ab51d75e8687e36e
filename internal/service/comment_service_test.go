package service

import (
	"context"
	"strings"
	"testing"

	"socialblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_CreateComment(t *testing.T) {
	t.Parallel()

	t.Run("post comes from the input path id", func(t *testing.T) {
		t.Parallel()
		posts := noopPostRepo()
		posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 9}, nil
		}
		comments := noopCommentRepo()
		var created *models.Comment
		comments.createFn = func(_ context.Context, c *models.Comment) error {
			created = c
			return nil
		}
		svc := NewCommentService(comments, posts)

		comment, err := svc.CreateComment(context.Background(), CreateCommentInput{UserID: 2, PostID: 5, Content: "nice"})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, uint(5), created.PostID)
		assert.Equal(t, uint(2), created.UserID)
		require.NotNil(t, comment.Post)
		assert.Equal(t, uint(9), comment.Post.UserID)
	})

	t.Run("missing post is not found", func(t *testing.T) {
		t.Parallel()
		posts := noopPostRepo()
		posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return nil, models.NewNotFoundError("Post", id)
		}
		svc := NewCommentService(noopCommentRepo(), posts)
		_, err := svc.CreateComment(context.Background(), CreateCommentInput{UserID: 2, PostID: 5, Content: "nice"})
		assertCode(t, err, models.CodeNotFound)
	})

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()
		svc := NewCommentService(noopCommentRepo(), noopPostRepo())
		_, err := svc.CreateComment(context.Background(), CreateCommentInput{UserID: 2, PostID: 5, Content: " "})
		assertValidationError(t, err)
	})

	t.Run("content too long", func(t *testing.T) {
		t.Parallel()
		svc := NewCommentService(noopCommentRepo(), noopPostRepo())
		_, err := svc.CreateComment(context.Background(), CreateCommentInput{UserID: 2, PostID: 5, Content: strings.Repeat("x", 10001)})
		assertValidationError(t, err)
	})
}

func TestCommentService_Ownership(t *testing.T) {
	t.Parallel()

	owned := func() *commentRepoStub {
		repo := noopCommentRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, UserID: 1, PostID: 3, Content: "old"}, nil
		}
		return repo
	}

	t.Run("non-owner cannot update", func(t *testing.T) {
		t.Parallel()
		svc := NewCommentService(owned(), noopPostRepo())
		_, err := svc.UpdateComment(context.Background(), UpdateCommentInput{UserID: 2, CommentID: 1, Content: "new"})
		assertForbiddenError(t, err)
	})

	t.Run("non-owner cannot delete", func(t *testing.T) {
		t.Parallel()
		repo := owned()
		repo.deleteFn = func(context.Context, uint) error {
			t.Fatal("delete must not be called")
			return nil
		}
		svc := NewCommentService(repo, noopPostRepo())
		err := svc.DeleteComment(context.Background(), DeleteCommentInput{UserID: 2, CommentID: 1})
		assertForbiddenError(t, err)
	})

	t.Run("owner updates content", func(t *testing.T) {
		t.Parallel()
		repo := owned()
		var saved *models.Comment
		repo.updateFn = func(_ context.Context, c *models.Comment) error {
			saved = c
			return nil
		}
		svc := NewCommentService(repo, noopPostRepo())
		_, err := svc.UpdateComment(context.Background(), UpdateCommentInput{UserID: 1, CommentID: 1, Content: "new"})
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "new", saved.Content)
		assert.Equal(t, uint(3), saved.PostID)
	})

	t.Run("owner deletes", func(t *testing.T) {
		t.Parallel()
		repo := owned()
		var deletedID uint
		repo.deleteFn = func(_ context.Context, id uint) error {
			deletedID = id
			return nil
		}
		svc := NewCommentService(repo, noopPostRepo())
		require.NoError(t, svc.DeleteComment(context.Background(), DeleteCommentInput{UserID: 1, CommentID: 8}))
		assert.Equal(t, uint(8), deletedID)
	})
}
