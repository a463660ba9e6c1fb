package model

import "time"

// BlockedUser is a directed block. Creating one cascades deletion of any
// friend requests and friendships between the pair.
type BlockedUser struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64     `gorm:"not null;uniqueIndex:idx_block_pair" json:"user_id"`
	BlockedUserID int64     `gorm:"not null;uniqueIndex:idx_block_pair" json:"blocked_user_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
