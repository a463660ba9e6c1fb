package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"socialnet/friends"
	mw "socialnet/middleware"
	"socialnet/model"
)

// UsersHandler serves user search and block management.
type UsersHandler struct {
	db  *gorm.DB
	svc *friends.Service
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(db *gorm.DB, svc *friends.Service) *UsersHandler {
	return &UsersHandler{db: db, svc: svc}
}

type userResult struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Search handles GET /api/users/search?q=. An exact email match wins;
// otherwise a substring match on name and email, excluding the caller.
func (h *UsersHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	callerID := mw.GetUserID(c)

	var exact model.User
	err := h.db.Where("email = ? AND id <> ?", strings.ToLower(q), callerID).First(&exact).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"users": []userResult{{ID: exact.ID, Email: exact.Email, Name: exact.Name}},
			"total": 1,
		})
		return
	}

	page, pageSize := pagination(c)
	pattern := "%" + q + "%"
	match := func() *gorm.DB {
		return h.db.Model(&model.User{}).
			Where("id <> ?", callerID).
			Where("name LIKE ? OR email LIKE ?", pattern, pattern)
	}

	var total int64
	if err := match().Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	var users []model.User
	if err := match().Order("name").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	results := make([]userResult, 0, len(users))
	for _, u := range users {
		results = append(results, userResult{ID: u.ID, Email: u.Email, Name: u.Name})
	}
	c.JSON(http.StatusOK, gin.H{"users": results, "total": total})
}

// Block handles POST /api/users/:id/block.
func (h *UsersHandler) Block(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	created, err := h.svc.Block(c.Request.Context(), mw.GetUserID(c), targetID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !created {
		c.JSON(http.StatusOK, gin.H{"message": "already blocked"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "blocked"})
}

// Unblock handles DELETE /api/users/:id/block.
func (h *UsersHandler) Unblock(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.svc.Unblock(c.Request.Context(), mw.GetUserID(c), targetID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unblocked"})
}

// pagination reads page/page_size query params with the API-wide defaults.
func pagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
