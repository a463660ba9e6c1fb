package model

import (
	"time"

	"gorm.io/gorm"
)

// Friend request statuses.
const (
	RequestPending  = "PENDING"
	RequestAccepted = "ACCEPTED"
	RequestRejected = "REJECTED"
)

// FriendRequest is the single row tracking the request lifecycle between an
// unordered pair of users. PairLo/PairHi hold the canonical ordering of the
// two ids; their unique index is what stops two concurrent senders from each
// inserting a row for the same pair.
type FriendRequest struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID   int64     `gorm:"not null;index" json:"sender_id"`
	ReceiverID int64     `gorm:"not null;index" json:"receiver_id"`
	Status     string    `gorm:"size:8;not null;default:PENDING" json:"status"`
	PairLo     int64     `gorm:"not null;uniqueIndex:idx_request_pair" json:"-"`
	PairHi     int64     `gorm:"not null;uniqueIndex:idx_request_pair" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

// BeforeSave keeps the canonical pair columns in sync with sender/receiver.
func (fr *FriendRequest) BeforeSave(_ *gorm.DB) error {
	if fr.SenderID <= fr.ReceiverID {
		fr.PairLo, fr.PairHi = fr.SenderID, fr.ReceiverID
	} else {
		fr.PairLo, fr.PairHi = fr.ReceiverID, fr.SenderID
	}
	return nil
}
