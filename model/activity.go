package model

import "time"

// ActivityLog is an append-only record of a user-visible action. Rows are
// never updated or deleted; only activity.Recorder writes them.
type ActivityLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index:idx_activity_user" json:"user_id"`
	Activity  string    `gorm:"size:255;not null" json:"activity"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_activity_created" json:"created_at"`
}
