// Package friends implements the friend-request state machine, blocking, and
// the friend-list read path.
package friends

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"socialnet/activity"
	"socialnet/apperr"
	"socialnet/cache"
	"socialnet/model"
)

// Config tunes the state engine.
type Config struct {
	RateLimitMax      int
	RateLimitWindow   time.Duration
	RejectionCooldown time.Duration
	ListTTL           time.Duration
}

// DefaultConfig returns the production tunables.
func DefaultConfig() Config {
	return Config{
		RateLimitMax:      3,
		RateLimitWindow:   60 * time.Second,
		RejectionCooldown: 24 * time.Hour,
		ListTTL:           5 * time.Minute,
	}
}

// Service owns every mutation of friend requests, friendships and blocks.
type Service struct {
	db       *gorm.DB
	cache    cache.Cache
	recorder *activity.Recorder
	cfg      Config
	logger   *zap.Logger

	// now is the clock for cooldown and rate-window decisions; tests swap it.
	now func() time.Time
}

// New creates a Service. Zero fields in cfg fall back to DefaultConfig.
func New(db *gorm.DB, c cache.Cache, recorder *activity.Recorder, cfg Config, logger *zap.Logger) *Service {
	def := DefaultConfig()
	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = def.RateLimitMax
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = def.RateLimitWindow
	}
	if cfg.RejectionCooldown <= 0 {
		cfg.RejectionCooldown = def.RejectionCooldown
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = def.ListTTL
	}
	return &Service{
		db:       db,
		cache:    c,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// errBlockExists aborts the block transaction when the row was created by a
// concurrent call; it never leaves the package.
var errBlockExists = errors.New("block already exists")

func cooldownKey(senderID, receiverID int64) string {
	return fmt.Sprintf("friends:cooldown:%d:%d", senderID, receiverID)
}

func rateKey(senderID int64) string {
	return fmt.Sprintf("friends:rate:%d", senderID)
}

func listKey(userID int64) string {
	return fmt.Sprintf("friends:list:%d", userID)
}

// pairRequest loads the friend-request row for the unordered pair {a, b},
// whichever direction it was sent in.
func (s *Service) pairRequest(tx *gorm.DB, a, b int64) (*model.FriendRequest, error) {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	var req model.FriendRequest
	err := tx.Where("pair_lo = ? AND pair_hi = ?", lo, hi).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "load friend request", err)
	}
	return &req, nil
}

// SendRequest creates a PENDING friend request from sender to receiver.
// Checks run in a fixed order; the first failure wins.
func (s *Service) SendRequest(ctx context.Context, senderID, receiverID int64) (*model.FriendRequest, error) {
	if senderID == receiverID {
		return nil, ErrSelfRequest
	}

	var receiver model.User
	if err := s.db.First(&receiver, receiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "load receiver", err)
	}

	existing, err := s.pairRequest(s.db, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	var reuse *model.FriendRequest
	if existing != nil {
		switch existing.Status {
		case model.RequestPending:
			return nil, ErrAlreadyPending
		case model.RequestAccepted:
			return nil, ErrAlreadyFriends
		case model.RequestRejected:
			if s.now().Sub(existing.UpdatedAt) < s.cfg.RejectionCooldown {
				return nil, ErrCooldownActive
			}
			// Cooldown elapsed: the unique pair index forbids a second row,
			// so the rejected one is reset below.
			reuse = existing
		}
	}

	if s.cooldownActive(ctx, senderID, receiverID) {
		return nil, ErrCooldownActive
	}

	var blocked int64
	if err := s.db.Model(&model.BlockedUser{}).
		Where("user_id = ? AND blocked_user_id = ?", receiverID, senderID).
		Count(&blocked).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "check block", err)
	}
	if blocked > 0 {
		return nil, ErrBlocked
	}

	if s.rateCount(ctx, senderID) >= s.cfg.RateLimitMax {
		return nil, ErrRateLimited
	}

	var req *model.FriendRequest
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if reuse != nil {
			reuse.SenderID = senderID
			reuse.ReceiverID = receiverID
			reuse.Status = model.RequestPending
			if err := tx.Save(reuse).Error; err != nil {
				return apperr.Wrap(apperr.CodeInternal, "reset friend request", err)
			}
			req = reuse
		} else {
			req = &model.FriendRequest{SenderID: senderID, ReceiverID: receiverID, Status: model.RequestPending}
			if err := tx.Create(req).Error; err != nil {
				if isUniqueViolation(err) {
					// Lost a concurrent race for the same pair; same outcome
					// as a sequential duplicate.
					return ErrAlreadyPending
				}
				return apperr.Wrap(apperr.CodeInternal, "create friend request", err)
			}
		}
		return s.recorder.Record(tx, senderID, "Sent friend request")
	})
	if err != nil {
		return nil, err
	}

	s.bumpRateCounter(ctx, senderID)
	return req, nil
}

// Respond resolves a pending request as the receiver. status must be
// ACCEPTED or REJECTED.
func (s *Service) Respond(ctx context.Context, receiverID, requestID int64, status string) (*model.FriendRequest, error) {
	var req model.FriendRequest
	if err := s.db.Preload("Sender").First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "load friend request", err)
	}
	if req.ReceiverID != receiverID {
		return nil, ErrNotYourRequest
	}

	// A request resolved by a concurrent call is terminal.
	if err := terminalStatus(req.Status); err != nil {
		return nil, err
	}

	switch status {
	case "":
		return nil, ErrStatusRequired
	case model.RequestAccepted, model.RequestRejected:
	default:
		return nil, ErrInvalidStatus
	}

	if status == model.RequestRejected {
		s.setCooldown(ctx, req.SenderID, req.ReceiverID)
		err := s.db.Transaction(func(tx *gorm.DB) error {
			return s.resolvePending(tx, req.ID, model.RequestRejected)
		})
		if err != nil {
			if coded := apperr.CodeOf(err); coded != apperr.CodeUnknown && coded != apperr.CodeInternal {
				return nil, err
			}
			return nil, apperr.Wrap(apperr.CodeInternal, "reject friend request", err)
		}
		req.Status = model.RequestRejected
		return &req, nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.resolvePending(tx, req.ID, model.RequestAccepted); err != nil {
			return err
		}
		// Both directions must commit together; a one-directional friendship
		// would break the symmetry invariant.
		if err := tx.Create(&model.Friendship{UserID: req.SenderID, FriendID: req.ReceiverID}).Error; err != nil {
			return err
		}
		if err := tx.Create(&model.Friendship{UserID: req.ReceiverID, FriendID: req.SenderID}).Error; err != nil {
			return err
		}
		return s.recorder.Record(tx, receiverID, "Accepted friend request")
	})
	if err != nil {
		if coded := apperr.CodeOf(err); coded != apperr.CodeUnknown && coded != apperr.CodeInternal {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "accept friend request", err)
	}

	s.invalidateLists(ctx, req.SenderID, req.ReceiverID)
	req.Status = model.RequestAccepted
	return &req, nil
}

// resolvePending moves a request out of PENDING. The WHERE on the current
// status is the serialization point: of two racing resolutions only one
// matches the PENDING row, the other sees zero rows and fails the
// transaction with the terminal-state error.
func (s *Service) resolvePending(tx *gorm.DB, requestID int64, status string) error {
	res := tx.Model(&model.FriendRequest{}).
		Where("id = ? AND status = ?", requestID, model.RequestPending).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var current model.FriendRequest
		if err := tx.First(&current, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Row deleted underneath us, e.g. by a block cascade.
				return ErrRequestNotFound
			}
			return err
		}
		return terminalStatus(current.Status)
	}
	return nil
}

// terminalStatus maps an already-resolved status to its rejection error.
func terminalStatus(status string) error {
	switch status {
	case model.RequestAccepted:
		return ErrAlreadyFriends
	case model.RequestRejected:
		return ErrCooldownActive
	}
	return nil
}

// Block adds a directed block and severs every relation between the pair.
// Returns false without side effects when the block already existed.
func (s *Service) Block(ctx context.Context, blockerID, targetID int64) (bool, error) {
	if blockerID == targetID {
		return false, ErrSelfBlock
	}
	if err := s.userExists(targetID); err != nil {
		return false, err
	}

	var existing int64
	if err := s.db.Model(&model.BlockedUser{}).
		Where("user_id = ? AND blocked_user_id = ?", blockerID, targetID).
		Count(&existing).Error; err != nil {
		return false, apperr.Wrap(apperr.CodeInternal, "check block", err)
	}
	if existing > 0 {
		return false, nil
	}

	lo, hi := blockerID, targetID
	if lo > hi {
		lo, hi = hi, lo
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model.BlockedUser{UserID: blockerID, BlockedUserID: targetID}).Error; err != nil {
			if isUniqueViolation(err) {
				// Lost a concurrent race; the winner ran the cascade.
				return errBlockExists
			}
			return err
		}
		if err := tx.Where("pair_lo = ? AND pair_hi = ?", lo, hi).
			Delete(&model.FriendRequest{}).Error; err != nil {
			return err
		}
		return tx.Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			blockerID, targetID, targetID, blockerID).
			Delete(&model.Friendship{}).Error
	})
	if errors.Is(err, errBlockExists) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Wrap(apperr.CodeInternal, "block user", err)
	}

	s.invalidateLists(ctx, blockerID, targetID)
	return true, nil
}

// Unblock removes a directed block. Prior relations are not restored.
func (s *Service) Unblock(ctx context.Context, blockerID, targetID int64) error {
	if blockerID == targetID {
		return ErrSelfBlock
	}
	if err := s.userExists(targetID); err != nil {
		return err
	}

	res := s.db.Where("user_id = ? AND blocked_user_id = ?", blockerID, targetID).
		Delete(&model.BlockedUser{})
	if res.Error != nil {
		return apperr.Wrap(apperr.CodeInternal, "unblock user", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotBlocked
	}
	return nil
}

func (s *Service) userExists(id int64) error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperr.Wrap(apperr.CodeInternal, "load user", err)
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

// cooldownActive reports whether a rejection cooldown marker for
// sender→receiver is still in force. The marker stores its own expiry so the
// decision follows s.now rather than the cache backend's wall clock.
func (s *Service) cooldownActive(ctx context.Context, senderID, receiverID int64) bool {
	v, err := s.cache.Get(ctx, cooldownKey(senderID, receiverID))
	if err != nil {
		return false
	}
	expiry, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return false
	}
	return expiry.After(s.now())
}

func (s *Service) setCooldown(ctx context.Context, senderID, receiverID int64) {
	expiry := s.now().Add(s.cfg.RejectionCooldown).Format(time.RFC3339)
	if err := s.cache.Set(ctx, cooldownKey(senderID, receiverID), expiry, s.cfg.RejectionCooldown); err != nil {
		s.logger.Warn("cooldown marker write failed", zap.Error(err))
	}
}

func (s *Service) rateCount(ctx context.Context, senderID int64) int {
	v, err := s.cache.Get(ctx, rateKey(senderID))
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func (s *Service) bumpRateCounter(ctx context.Context, senderID int64) {
	key := rateKey(senderID)
	n, err := s.cache.Incr(ctx, key)
	if err != nil {
		s.logger.Warn("rate counter incr failed", zap.Error(err))
		return
	}
	if n == 1 {
		if err := s.cache.Expire(ctx, key, s.cfg.RateLimitWindow); err != nil {
			s.logger.Warn("rate counter expire failed", zap.Error(err))
		}
	}
}

func (s *Service) invalidateLists(ctx context.Context, userIDs ...int64) {
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = listKey(id)
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logger.Warn("friend list invalidation failed", zap.Error(err))
	}
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
