package model

import "time"

// Friendship is one direction of a symmetric friend relation. Accepting a
// request creates both directions in a single transaction.
type Friendship struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"user_id"`
	FriendID  int64     `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"friend_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Friend *User `gorm:"foreignKey:FriendID" json:"friend,omitempty"`
}
