package friends

import "socialnet/apperr"

// Business rejections. Each is a coded apperr so the API layer maps them to
// HTTP statuses without string matching, and errors.Is works across wrapping.
var (
	ErrSelfRequest    = apperr.InvalidArg("cannot send a friend request to yourself")
	ErrAlreadyPending = apperr.FailedPrecondition("a friend request is already pending")
	ErrAlreadyFriends = apperr.FailedPrecondition("you are already friends with this user")
	ErrCooldownActive = apperr.FailedPrecondition("cannot send another request yet")
	ErrBlocked        = apperr.FailedPrecondition("cannot send a friend request to this user")
	ErrRateLimited    = apperr.ResourceExhausted("too many friend requests, try again later")

	ErrStatusRequired = apperr.InvalidArg("status is required")
	ErrInvalidStatus  = apperr.InvalidArg("status must be ACCEPTED or REJECTED")
	ErrNotYourRequest = apperr.Forbidden("request addressed to another user")

	ErrSelfBlock  = apperr.InvalidArg("cannot block yourself")
	ErrNotBlocked = apperr.FailedPrecondition("user is not blocked")

	ErrUserNotFound    = apperr.NotFound("user not found")
	ErrRequestNotFound = apperr.NotFound("friend request not found")
)
