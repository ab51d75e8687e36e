package repository

import (
	"context"
	"strings"

	"socialblog/internal/cache"
	"socialblog/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UsernameTaken(ctx context.Context, username string, excludeID uint) (bool, error)
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
	// Create inserts the user and its profile in one transaction.
	Create(ctx context.Context, user *models.User) error
	// UpdateWithProfile persists account and profile fields in one transaction.
	UpdateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	SetAdmin(ctx context.Context, id uint, admin bool) error
	SearchUsernames(ctx context.Context, query string) ([]models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return loadUser(ctx, r.db, id)
}

// loadUser reads a user and its profile through the user:<id> cache entry.
// Post lookups resolve their publisher through it as well.
func loadUser(ctx context.Context, db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := readDB(db).WithContext(ctx).Preload("Profile").First(&user, id).Error; err != nil {
			return notFoundOr(err, "User", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).Preload("Profile").
		Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "User", username)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "User", email)
	}
	return &user, nil
}

func (r *userRepository) UsernameTaken(ctx context.Context, username string, excludeID uint) (bool, error) {
	return r.taken(ctx, "username", username, excludeID)
}

func (r *userRepository) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	return r.taken(ctx, "email", email, excludeID)
}

// taken compares case-insensitively and includes soft-deleted rows, which
// still hold the unique index.
func (r *userRepository) taken(ctx context.Context, column, value string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Unscoped().Model(&models.User{}).
		Where("LOWER("+column+") = ?", strings.ToLower(value))
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.Profile == nil {
		user.Profile = &models.Profile{}
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(user).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("A user with that username or email already exists.")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) UpdateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{ID: user.ID}).Updates(map[string]any{
			"username": user.Username,
			"email":    user.Email,
		}).Error; err != nil {
			return err
		}
		if profile == nil {
			return nil
		}
		profile.UserID = user.ID
		if profile.ID == 0 {
			return tx.Create(profile).Error
		}
		return tx.Model(&models.Profile{ID: profile.ID}).Updates(map[string]any{
			"bio":   profile.Bio,
			"image": profile.Image,
		}).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("A user with that username or email already exists.")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) SetAdmin(ctx context.Context, id uint, admin bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_admin", admin)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

// SearchUsernames matches query as a case-insensitive substring of the
// username. An empty query matches every user.
//
// SQLite's LOWER only folds ASCII, so on sqlite the match runs in Go to fold
// non-ASCII letters the same way postgres does.
func (r *userRepository) SearchUsernames(ctx context.Context, query string) ([]models.User, error) {
	var users []models.User
	needle := strings.ToLower(query)
	foldInGo := r.db.Dialector.Name() == "sqlite"
	q := readDB(r.db).WithContext(ctx).Preload("Profile")
	if query != "" && !foldInGo {
		q = q.Where(`LOWER(username) LIKE ? ESCAPE '\'`, "%"+escapeLike(needle)+"%")
	}
	if err := q.Order("username ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if query == "" || !foldInGo {
		return users, nil
	}

	matched := users[:0]
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Username), needle) {
			matched = append(matched, u)
		}
	}
	return matched, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := readDB(r.db).WithContext(ctx).Order("id ASC").
		Limit(clampLimit(limit, 50, 500)).Offset(offset).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := readDB(r.db).WithContext(ctx).Where("is_admin = ?", true).
		Order("id ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
