package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialnet/model"
	"socialnet/testutil"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	// User
	alice := &model.User{Email: "alice@example.com", Name: "Alice", Role: model.RoleWrite, PasswordHash: "hash"}
	require.NoError(t, db.Create(alice).Error)
	assert.Greater(t, alice.ID, int64(0))

	bob := &model.User{Email: "bob@example.com", Name: "Bob", Role: model.RoleWrite, PasswordHash: "hash"}
	require.NoError(t, db.Create(bob).Error)

	var found model.User
	require.NoError(t, db.First(&found, alice.ID).Error)
	assert.Equal(t, "alice@example.com", found.Email)

	// FriendRequest: BeforeSave fills the canonical pair columns
	req := &model.FriendRequest{SenderID: bob.ID, ReceiverID: alice.ID, Status: model.RequestPending}
	require.NoError(t, db.Create(req).Error)
	assert.Equal(t, alice.ID, req.PairLo)
	assert.Equal(t, bob.ID, req.PairHi)

	// Friendship
	fs := &model.Friendship{UserID: alice.ID, FriendID: bob.ID}
	require.NoError(t, db.Create(fs).Error)

	// BlockedUser
	blk := &model.BlockedUser{UserID: alice.ID, BlockedUserID: bob.ID}
	require.NoError(t, db.Create(blk).Error)

	// ActivityLog
	act := &model.ActivityLog{UserID: alice.ID, Activity: "Sent friend request to Bob"}
	require.NoError(t, db.Create(act).Error)

	// RequestAudit
	aud := &model.RequestAudit{TraceID: "trace-001", Method: "POST", Path: "/api/friends/request", Status: 201}
	require.NoError(t, db.Create(aud).Error)
}

func TestFriendRequest_PairUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)

	alice := &model.User{Email: "a@example.com", Name: "A", PasswordHash: "h"}
	bob := &model.User{Email: "b@example.com", Name: "B", PasswordHash: "h"}
	require.NoError(t, db.Create(alice).Error)
	require.NoError(t, db.Create(bob).Error)

	first := &model.FriendRequest{SenderID: alice.ID, ReceiverID: bob.ID, Status: model.RequestPending}
	require.NoError(t, db.Create(first).Error)

	// Same pair in the opposite direction must collide on the unique index.
	second := &model.FriendRequest{SenderID: bob.ID, ReceiverID: alice.ID, Status: model.RequestPending}
	assert.Error(t, db.Create(second).Error)
}
