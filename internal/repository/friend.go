package repository

import (
	"context"

	"socialblog/internal/models"

	"gorm.io/gorm"
)

// FriendRepository stores the directed friend lists.
type FriendRepository interface {
	// IsFriend reports whether addresseeID is in requesterID's friend list.
	IsFriend(ctx context.Context, requesterID, addresseeID uint) (bool, error)
	Add(ctx context.Context, requesterID, addresseeID uint) error
	Remove(ctx context.Context, requesterID, addresseeID uint) error
	// Friends lists the users in userID's friend list.
	Friends(ctx context.Context, userID uint) ([]models.User, error)
	CountFriends(ctx context.Context, userID uint) (int64, error)
}

// friendRepository implements FriendRepository
type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) IsFriend(ctx context.Context, requesterID, addresseeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("requester_id = ? AND addressee_id = ?", requesterID, addresseeID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Add is idempotent: adding an existing friend is not an error.
func (r *friendRepository) Add(ctx context.Context, requesterID, addresseeID uint) error {
	if requesterID == addresseeID {
		return models.NewValidationError("You cannot add yourself as a friend")
	}
	f := models.Friendship{RequesterID: requesterID, AddresseeID: addresseeID}
	if err := r.db.WithContext(ctx).Omit("Requester", "Addressee").Create(&f).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *friendRepository) Remove(ctx context.Context, requesterID, addresseeID uint) error {
	if err := r.db.WithContext(ctx).
		Where("requester_id = ? AND addressee_id = ?", requesterID, addresseeID).
		Delete(&models.Friendship{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *friendRepository) Friends(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	if err := readDB(r.db).WithContext(ctx).
		Joins("JOIN friendships f ON f.addressee_id = users.id").
		Where("f.requester_id = ?", userID).
		Preload("Profile").
		Order("users.username ASC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *friendRepository) CountFriends(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Friendship{}).
		Where("requester_id = ?", userID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
