package repository

import (
	"context"

	"socialblog/internal/cache"
	"socialblog/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	// GetOrCreate returns the user's profile, creating an empty one when missing.
	GetOrCreate(ctx context.Context, userID uint) (*models.Profile, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetOrCreate(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := cache.Aside(ctx, cache.ProfileKey(userID), &profile, cache.ProfileTTL, func() error {
		if err := r.db.WithContext(ctx).
			Where(models.Profile{UserID: userID}).
			FirstOrCreate(&profile).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
