package service

import (
	"context"
	"errors"
	"testing"

	"socialblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post) error
	getByIDFn       func(context.Context, uint) (*models.Post, error)
	getByUserIDFn   func(context.Context, uint, int, int) ([]*models.Post, error)
	listFn          func(context.Context, int, int) ([]*models.Post, error)
	countByUserIDFn func(context.Context, uint) (int64, error)
	updateFn        func(context.Context, *models.Post) error
	deleteFn        func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetByUserID(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.getByUserIDFn(ctx, userID, limit, offset)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *postRepoStub) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	return s.countByUserIDFn(ctx, userID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:        func(context.Context, *models.Post) error { return nil },
		getByIDFn:       func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		getByUserIDFn:   func(context.Context, uint, int, int) ([]*models.Post, error) { return nil, nil },
		listFn:          func(context.Context, int, int) ([]*models.Post, error) { return nil, nil },
		countByUserIDFn: func(context.Context, uint) (int64, error) { return 0, nil },
		updateFn:        func(context.Context, *models.Post) error { return nil },
		deleteFn:        func(context.Context, uint) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
	updateFn     func(context.Context, *models.Comment) error
	deleteFn     func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(context.Context, *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByPostFn: func(context.Context, uint) ([]*models.Comment, error) { return nil, nil },
		updateFn:     func(context.Context, *models.Comment) error { return nil },
		deleteFn:     func(context.Context, uint) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn           func(context.Context, uint) (*models.User, error)
	getByUsernameFn     func(context.Context, string) (*models.User, error)
	getByEmailFn        func(context.Context, string) (*models.User, error)
	usernameTakenFn     func(context.Context, string, uint) (bool, error)
	emailTakenFn        func(context.Context, string, uint) (bool, error)
	createFn            func(context.Context, *models.User) error
	updateWithProfileFn func(context.Context, *models.User, *models.Profile) error
	setAdminFn          func(context.Context, uint, bool) error
	searchUsernamesFn   func(context.Context, string) ([]models.User, error)
	listFn              func(context.Context, int, int) ([]models.User, error)
	listAdminsFn        func(context.Context) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) UsernameTaken(ctx context.Context, username string, excludeID uint) (bool, error) {
	return s.usernameTakenFn(ctx, username, excludeID)
}
func (s *userRepoStub) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	return s.emailTakenFn(ctx, email, excludeID)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	return s.updateWithProfileFn(ctx, user, profile)
}
func (s *userRepoStub) SetAdmin(ctx context.Context, id uint, admin bool) error {
	return s.setAdminFn(ctx, id, admin)
}
func (s *userRepoStub) SearchUsernames(ctx context.Context, q string) ([]models.User, error) {
	return s.searchUsernamesFn(ctx, q)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.listAdminsFn(ctx)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Profile: &models.Profile{ID: id, UserID: id}}, nil
		},
		getByUsernameFn: func(_ context.Context, u string) (*models.User, error) {
			return nil, models.NewNotFoundError("User", u)
		},
		getByEmailFn: func(_ context.Context, e string) (*models.User, error) {
			return nil, models.NewNotFoundError("User", e)
		},
		usernameTakenFn:     func(context.Context, string, uint) (bool, error) { return false, nil },
		emailTakenFn:        func(context.Context, string, uint) (bool, error) { return false, nil },
		createFn:            func(context.Context, *models.User) error { return nil },
		updateWithProfileFn: func(context.Context, *models.User, *models.Profile) error { return nil },
		setAdminFn:          func(context.Context, uint, bool) error { return nil },
		searchUsernamesFn:   func(context.Context, string) ([]models.User, error) { return nil, nil },
		listFn:              func(context.Context, int, int) ([]models.User, error) { return nil, nil },
		listAdminsFn:        func(context.Context) ([]models.User, error) { return nil, nil },
	}
}

type profileRepoStub struct {
	getOrCreateFn func(context.Context, uint) (*models.Profile, error)
}

func (s *profileRepoStub) GetOrCreate(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.getOrCreateFn(ctx, userID)
}

func noopProfileRepo() *profileRepoStub {
	return &profileRepoStub{
		getOrCreateFn: func(_ context.Context, userID uint) (*models.Profile, error) {
			return &models.Profile{UserID: userID}, nil
		},
	}
}

// friendRepoStub is a stub for repository.FriendRepository.
type friendRepoStub struct {
	isFriendFn     func(context.Context, uint, uint) (bool, error)
	addFn          func(context.Context, uint, uint) error
	removeFn       func(context.Context, uint, uint) error
	friendsFn      func(context.Context, uint) ([]models.User, error)
	countFriendsFn func(context.Context, uint) (int64, error)
}

func (s *friendRepoStub) IsFriend(ctx context.Context, requesterID, addresseeID uint) (bool, error) {
	return s.isFriendFn(ctx, requesterID, addresseeID)
}
func (s *friendRepoStub) Add(ctx context.Context, requesterID, addresseeID uint) error {
	return s.addFn(ctx, requesterID, addresseeID)
}
func (s *friendRepoStub) Remove(ctx context.Context, requesterID, addresseeID uint) error {
	return s.removeFn(ctx, requesterID, addresseeID)
}
func (s *friendRepoStub) Friends(ctx context.Context, userID uint) ([]models.User, error) {
	return s.friendsFn(ctx, userID)
}
func (s *friendRepoStub) CountFriends(ctx context.Context, userID uint) (int64, error) {
	return s.countFriendsFn(ctx, userID)
}

func noopFriendRepo() *friendRepoStub {
	return &friendRepoStub{
		isFriendFn:     func(context.Context, uint, uint) (bool, error) { return false, nil },
		addFn:          func(context.Context, uint, uint) error { return nil },
		removeFn:       func(context.Context, uint, uint) error { return nil },
		friendsFn:      func(context.Context, uint) ([]models.User, error) { return nil, nil },
		countFriendsFn: func(context.Context, uint) (int64, error) { return 0, nil },
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeForbidden)
}
