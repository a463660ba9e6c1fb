package friends

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"socialnet/apperr"
	"socialnet/model"
)

// FriendInfo is one row of a user's friend list.
type FriendInfo struct {
	ID    int64     `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Since time.Time `json:"since"`
}

// ListFriends returns the user's friends, cache-aside with a TTL'd JSON
// snapshot. Cache failures degrade to the DB query, never fail the call.
func (s *Service) ListFriends(ctx context.Context, userID int64) ([]FriendInfo, error) {
	key := listKey(userID)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var cached []FriendInfo
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
		s.logger.Warn("friend list cache entry corrupt", zap.String("key", key))
	}

	var rows []model.Friendship
	if err := s.db.Preload("Friend").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list friends", err)
	}

	friends := make([]FriendInfo, 0, len(rows))
	for _, row := range rows {
		info := FriendInfo{ID: row.FriendID, Since: row.CreatedAt}
		if row.Friend != nil {
			info.Email = row.Friend.Email
			info.Name = row.Friend.Name
		}
		friends = append(friends, info)
	}

	if raw, err := json.Marshal(friends); err == nil {
		if err := s.cache.Set(ctx, key, string(raw), s.cfg.ListTTL); err != nil {
			s.logger.Warn("friend list cache write failed", zap.Error(err))
		}
	}
	return friends, nil
}

// ListPending returns requests awaiting the user's response, newest first.
func (s *Service) ListPending(ctx context.Context, userID int64) ([]model.FriendRequest, error) {
	var reqs []model.FriendRequest
	err := s.db.Preload("Sender").
		Where("receiver_id = ? AND status = ?", userID, model.RequestPending).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list pending requests", err)
	}
	return reqs, nil
}
