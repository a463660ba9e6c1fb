package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"socialnet/friends"
	mw "socialnet/middleware"
)

// FriendsHandler exposes the friend-request state engine over REST.
type FriendsHandler struct {
	svc *friends.Service
}

// NewFriendsHandler creates a new FriendsHandler.
func NewFriendsHandler(svc *friends.Service) *FriendsHandler {
	return &FriendsHandler{svc: svc}
}

type sendRequestBody struct {
	ReceiverID int64 `json:"receiver_id" binding:"required"`
}

// Send handles POST /api/friends/request.
func (h *FriendsHandler) Send(c *gin.Context) {
	var body sendRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.svc.SendRequest(c.Request.Context(), mw.GetUserID(c), body.ReceiverID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": req})
}

type respondBody struct {
	Status string `json:"status"`
}

// Respond handles PUT /api/friends/request/:id.
func (h *FriendsHandler) Respond(c *gin.Context) {
	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}
	var body respondBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.svc.Respond(c.Request.Context(), mw.GetUserID(c), requestID, body.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

// List handles GET /api/friends/list.
func (h *FriendsHandler) List(c *gin.Context) {
	list, err := h.svc.ListFriends(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": list})
}

// Pending handles GET /api/friends/pending.
func (h *FriendsHandler) Pending(c *gin.Context) {
	reqs, err := h.svc.ListPending(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}
