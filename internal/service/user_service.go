package service

import (
	"context"
	"errors"
	"strings"

	"socialblog/internal/models"
	"socialblog/internal/observability"
	"socialblog/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	avatars     *AvatarService
	hashCost    int
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UpdateAccountInput carries both halves of the owner's profile page.
// A nil Avatar keeps the current image.
type UpdateAccountInput struct {
	UserID   uint
	Username string
	Email    string
	Bio      string
	Avatar   *AvatarUpload
}

func NewUserService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	avatars *AvatarService,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		avatars:     avatars,
		hashCost:    bcrypt.DefaultCost,
	}
}

// SetHashCost overrides the bcrypt cost used for new passwords.
func (s *UserService) SetHashCost(cost int) {
	s.hashCost = cost
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

// SearchUsers returns users whose username contains query, ignoring case.
// An empty query returns every user.
func (s *UserService) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	return s.userRepo.SearchUsernames(ctx, strings.TrimSpace(query))
}

// Register creates the account and its empty profile. Duplicate usernames
// and emails are reported against their form fields.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := s.checkUnique(ctx, in.Username, in.Email, 0); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashed),
		Profile:  &models.Profile{},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	observability.Registrations.Inc()
	return user, nil
}

// Authenticate checks credentials. identifier is a username or an email.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	invalid := models.NewUnauthorizedError("Please enter a correct username and password. Note that both fields may be case-sensitive.")

	user, err := s.userRepo.GetByUsername(ctx, identifier)
	if err != nil && models.IsCode(err, models.CodeNotFound) && strings.Contains(identifier, "@") {
		user, err = s.userRepo.GetByEmail(ctx, identifier)
	}
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, invalid
	}
	return user, nil
}

// GetProfile returns the user with a profile row, creating an empty one for
// accounts that predate profiles.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		profile, err := s.profileRepo.GetOrCreate(ctx, userID)
		if err != nil {
			return nil, err
		}
		user.Profile = profile
	}
	return user, nil
}

// UpdateAccount saves the account and profile forms together. Nothing is
// written unless every field validates.
func (s *UserService) UpdateAccount(ctx context.Context, in UpdateAccountInput) (*models.User, error) {
	user, err := s.GetProfile(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, in.Username, in.Email, user.ID); err != nil {
		return nil, err
	}

	profile := *user.Profile
	profile.Bio = in.Bio
	previousImage := profile.Image
	if in.Avatar != nil {
		if s.avatars == nil {
			return nil, models.NewFieldError("image", "Avatar uploads are disabled.")
		}
		rel, err := s.avatars.Store(user.ID, *in.Avatar)
		if err != nil {
			return nil, err
		}
		profile.Image = rel
	}

	user.Username = in.Username
	user.Email = in.Email
	if err := s.userRepo.UpdateWithProfile(ctx, user, &profile); err != nil {
		if in.Avatar != nil && profile.Image != previousImage {
			s.avatars.Remove(profile.Image)
		}
		return nil, err
	}
	if in.Avatar != nil && previousImage != "" && previousImage != profile.Image {
		s.avatars.Remove(previousImage)
	}
	user.Profile = &profile
	return user, nil
}

func (s *UserService) SetAdmin(ctx context.Context, userID uint, admin bool) error {
	return s.userRepo.SetAdmin(ctx, userID, admin)
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListAdmins(ctx)
}

func (s *UserService) checkUnique(ctx context.Context, username, email string, excludeID uint) error {
	taken, err := s.userRepo.UsernameTaken(ctx, username, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return models.NewFieldError("username", "A user with that username already exists.")
	}
	taken, err = s.userRepo.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return models.NewFieldError("email", "A user with that email already exists.")
	}
	return nil
}

// FieldOf returns the form field a service error belongs to, if any.
func FieldOf(err error) (string, string, bool) {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeValidation && appErr.Field != "" {
		return appErr.Field, appErr.Message, true
	}
	return "", "", false
}
