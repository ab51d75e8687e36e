package cache

import (
	"context"
	"fmt"
	"time"
)

// Key formats.
const (
	UserKeyPrefix    = "user:%d"
	PostKeyPrefix    = "post:%d"
	ProfileKeyPrefix = "profile:%d"
)

// TTLs per key family.
const (
	UserTTL    = 5 * time.Minute
	PostTTL    = 2 * time.Minute
	ProfileTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func ProfileKey(userID uint) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

// Invalidate deletes key; a nil client or Redis error is ignored.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

// InvalidateUser drops both the account and profile entries for userID.
func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID), ProfileKey(userID))
}
