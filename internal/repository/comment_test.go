package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"socialblog/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)

	comment := &models.Comment{Content: "Test Comment", UserID: 1, PostID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "comments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), comment))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_Delete_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "comments" SET "deleted_at"=$1 WHERE "comments"."id" = $2`)).
		WithArgs(sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), 3)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_Integration(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	post := seedPost(t, db, alice.ID, "p", time.Now())

	first := &models.Comment{Content: "first", UserID: bob.ID, PostID: post.ID}
	second := &models.Comment{Content: "second", UserID: alice.ID, PostID: post.ID}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	list, err := repo.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Content)
	assert.Equal(t, "bob", list[0].User.Username)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Post)
	assert.Equal(t, post.ID, got.Post.ID)

	got.Content = "edited"
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)

	require.NoError(t, repo.Delete(ctx, first.ID))
	list, err = repo.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
