package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"socialnet/activity"
	mw "socialnet/middleware"
)

// ActivityHandler serves the caller's activity feed.
type ActivityHandler struct {
	rec *activity.Recorder
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(rec *activity.Recorder) *ActivityHandler {
	return &ActivityHandler{rec: rec}
}

// List handles GET /api/user/activity.
func (h *ActivityHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)
	entries, total, err := h.rec.List(mw.GetUserID(c), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"activity":  entries,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
