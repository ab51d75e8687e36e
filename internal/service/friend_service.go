package service

import (
	"context"

	"socialblog/internal/models"
	"socialblog/internal/observability"
	"socialblog/internal/repository"
)

// FriendService manages the directed friend lists shown on profile pages.
type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
}

// ToggleResult describes what a Toggle call changed.
type ToggleResult struct {
	Added  bool
	Target *models.User
}

// NewFriendService returns a new FriendService.
func NewFriendService(friendRepo repository.FriendRepository, userRepo repository.UserRepository) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
	}
}

// IsFriend reports whether targetID is on userID's friend list.
func (s *FriendService) IsFriend(ctx context.Context, userID, targetID uint) (bool, error) {
	if userID == 0 || userID == targetID {
		return false, nil
	}
	return s.friendRepo.IsFriend(ctx, userID, targetID)
}

// Toggle adds targetID to userID's friend list, or removes it when already
// present. Two calls in a row leave the list unchanged.
func (s *FriendService) Toggle(ctx context.Context, userID, targetID uint) (*ToggleResult, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Login required")
	}
	if userID == targetID {
		return nil, models.NewValidationError("You cannot add yourself as a friend")
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	friends, err := s.friendRepo.IsFriend(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}
	if friends {
		if err := s.friendRepo.Remove(ctx, userID, targetID); err != nil {
			return nil, err
		}
		observability.FriendToggles.WithLabelValues("removed").Inc()
		return &ToggleResult{Added: false, Target: target}, nil
	}

	if err := s.friendRepo.Add(ctx, userID, targetID); err != nil {
		return nil, err
	}
	observability.FriendToggles.WithLabelValues("added").Inc()
	return &ToggleResult{Added: true, Target: target}, nil
}

// GetFriends returns the users on userID's friend list.
func (s *FriendService) GetFriends(ctx context.Context, userID uint) ([]models.User, error) {
	return s.friendRepo.Friends(ctx, userID)
}

func (s *FriendService) CountFriends(ctx context.Context, userID uint) (int64, error) {
	return s.friendRepo.CountFriends(ctx, userID)
}
