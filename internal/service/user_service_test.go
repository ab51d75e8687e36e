package service

import (
	"context"
	"testing"

	"socialblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService(users *userRepoStub) *UserService {
	svc := NewUserService(users, noopProfileRepo(), nil)
	svc.SetHashCost(bcrypt.MinCost)
	return svc
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	t.Run("hashes password and creates profile", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		var created *models.User
		repo.createFn = func(_ context.Context, u *models.User) error {
			u.ID = 1
			created = u
			return nil
		}
		svc := newTestUserService(repo)

		user, err := svc.Register(context.Background(), RegisterInput{
			Username: "alice", Email: "alice@example.com", Password: "Sup3r$ecretPass",
		})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, uint(1), user.ID)
		assert.NotEqual(t, "Sup3r$ecretPass", created.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("Sup3r$ecretPass")))
		assert.NotNil(t, created.Profile)
	})

	t.Run("duplicate username is a field error", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.usernameTakenFn = func(context.Context, string, uint) (bool, error) { return true, nil }
		svc := newTestUserService(repo)
		_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@example.com", Password: "x"})
		field, msg, ok := FieldOf(err)
		require.True(t, ok)
		assert.Equal(t, "username", field)
		assert.Equal(t, "A user with that username already exists.", msg)
	})

	t.Run("duplicate email is a field error", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.emailTakenFn = func(context.Context, string, uint) (bool, error) { return true, nil }
		svc := newTestUserService(repo)
		_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@example.com", Password: "x"})
		field, _, ok := FieldOf(err)
		require.True(t, ok)
		assert.Equal(t, "email", field)
	})
}

func TestUserService_Authenticate(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("Correct#Horse1"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{ID: 5, Username: "alice", Email: "alice@example.com", Password: string(hash)}

	repo := noopUserRepo()
	repo.getByUsernameFn = func(_ context.Context, u string) (*models.User, error) {
		if u == stored.Username {
			return stored, nil
		}
		return nil, models.NewNotFoundError("User", u)
	}
	repo.getByEmailFn = func(_ context.Context, e string) (*models.User, error) {
		if e == stored.Email {
			return stored, nil
		}
		return nil, models.NewNotFoundError("User", e)
	}
	svc := newTestUserService(repo)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "alice", "Correct#Horse1")
	require.NoError(t, err)
	assert.Equal(t, uint(5), user.ID)

	user, err = svc.Authenticate(ctx, "alice@example.com", "Correct#Horse1")
	require.NoError(t, err)
	assert.Equal(t, uint(5), user.ID)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.Authenticate(ctx, "nobody", "Correct#Horse1")
	assertCode(t, err, models.CodeUnauthorized)
}

func TestUserService_UpdateAccount(t *testing.T) {
	t.Parallel()

	t.Run("saves both forms together", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		var savedUser *models.User
		var savedProfile *models.Profile
		repo.updateWithProfileFn = func(_ context.Context, u *models.User, p *models.Profile) error {
			savedUser, savedProfile = u, p
			return nil
		}
		svc := newTestUserService(repo)

		user, err := svc.UpdateAccount(context.Background(), UpdateAccountInput{
			UserID: 3, Username: "carol", Email: "carol@example.com", Bio: "hello",
		})
		require.NoError(t, err)
		require.NotNil(t, savedUser)
		assert.Equal(t, "carol", savedUser.Username)
		assert.Equal(t, "carol@example.com", savedUser.Email)
		assert.Equal(t, "hello", savedProfile.Bio)
		assert.Equal(t, "hello", user.Profile.Bio)
	})

	t.Run("uniqueness excludes the account itself", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.usernameTakenFn = func(_ context.Context, _ string, excludeID uint) (bool, error) {
			return excludeID != 3, nil
		}
		svc := newTestUserService(repo)
		_, err := svc.UpdateAccount(context.Background(), UpdateAccountInput{UserID: 3, Username: "carol", Email: "c@example.com"})
		assert.NoError(t, err)
	})

	t.Run("taken email writes nothing", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.emailTakenFn = func(context.Context, string, uint) (bool, error) { return true, nil }
		repo.updateWithProfileFn = func(context.Context, *models.User, *models.Profile) error {
			t.Fatal("update must not be called")
			return nil
		}
		svc := newTestUserService(repo)
		_, err := svc.UpdateAccount(context.Background(), UpdateAccountInput{UserID: 3, Username: "carol", Email: "taken@example.com"})
		field, _, ok := FieldOf(err)
		require.True(t, ok)
		assert.Equal(t, "email", field)
	})

	t.Run("avatar rejected when uploads are disabled", func(t *testing.T) {
		t.Parallel()
		svc := newTestUserService(noopUserRepo())
		_, err := svc.UpdateAccount(context.Background(), UpdateAccountInput{
			UserID: 3, Username: "carol", Email: "c@example.com",
			Avatar: &AvatarUpload{Filename: "a.png", Content: []byte("x")},
		})
		field, _, ok := FieldOf(err)
		require.True(t, ok)
		assert.Equal(t, "image", field)
	})
}

func TestUserService_GetProfileCreatesMissingProfile(t *testing.T) {
	t.Parallel()
	repo := noopUserRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id}, nil
	}
	svc := newTestUserService(repo)
	user, err := svc.GetProfile(context.Background(), 4)
	require.NoError(t, err)
	require.NotNil(t, user.Profile)
	assert.Equal(t, uint(4), user.Profile.UserID)
}

func TestUserService_SearchUsersTrimsQuery(t *testing.T) {
	t.Parallel()
	repo := noopUserRepo()
	var got string
	repo.searchUsernamesFn = func(_ context.Context, q string) ([]models.User, error) {
		got = q
		return nil, nil
	}
	svc := newTestUserService(repo)
	_, err := svc.SearchUsers(context.Background(), "  ali ")
	require.NoError(t, err)
	assert.Equal(t, "ali", got)
}
