package models

import "time"

// DefaultAvatar is rendered for profiles without an uploaded image.
const DefaultAvatar = "/static/default-avatar.svg"

// Profile holds the extended, user-editable fields of a User.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Image     string    `gorm:"size:255" json:"image"`
	Bio       string    `gorm:"size:500" json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AvatarURL returns the public URL of the avatar, falling back to the default image.
func (p *Profile) AvatarURL() string {
	if p == nil || p.Image == "" {
		return DefaultAvatar
	}
	return "/media/" + p.Image
}
