package models

import "time"

// Friendship is a directed edge: the requester counts the addressee as a friend.
type Friendship struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RequesterID uint      `gorm:"not null;uniqueIndex:idx_friendship_users" json:"requester_id"`
	AddresseeID uint      `gorm:"not null;uniqueIndex:idx_friendship_users;index" json:"addressee_id"`
	CreatedAt   time.Time `json:"created_at"`

	Requester User `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Addressee User `gorm:"foreignKey:AddresseeID" json:"addressee,omitempty"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}
