// Package activity maintains the append-only per-user activity feed.
package activity

import (
	"gorm.io/gorm"

	"socialnet/apperr"
	"socialnet/model"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Recorder writes and reads activity log entries.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder creates a Recorder bound to the given database.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends one entry for the given user. Pass the transaction handle
// when the entry must commit atomically with the action it describes.
func (r *Recorder) Record(tx *gorm.DB, userID int64, text string) error {
	if tx == nil {
		tx = r.db
	}
	entry := &model.ActivityLog{UserID: userID, Activity: text}
	if err := tx.Create(entry).Error; err != nil {
		return apperr.Wrap(apperr.CodeInternal, "record activity", err)
	}
	return nil
}

// List returns one page of the user's activity, newest first. Page numbers
// start at 1.
func (r *Recorder) List(userID int64, page, pageSize int) ([]model.ActivityLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	var total int64
	if err := r.db.Model(&model.ActivityLog{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(apperr.CodeInternal, "count activity", err)
	}

	var entries []model.ActivityLog
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.CodeInternal, "list activity", err)
	}
	return entries, total, nil
}
