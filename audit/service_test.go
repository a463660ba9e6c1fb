package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"socialnet/model"
	"socialnet/testutil"
)

func nop() *zap.Logger { l, _ := zap.NewDevelopment(); return l }

func TestNew_StartsWorker(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())
	require.NotNil(t, svc)
	svc.Stop(context.Background())
}

func TestLog_EnqueuedAndFlushed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())

	svc.Log(Entry{
		TraceID:   "trace-123",
		UserID:    2,
		Method:    "POST",
		Path:      "/api/friends/request",
		Status:    201,
		ClientIP:  "127.0.0.1",
		Body:      map[string]int64{"receiver_id": 3},
		LatencyMs: 42,
	})

	// Stop flushes remaining entries
	svc.Stop(context.Background())

	var logs []model.RequestAudit
	db.Find(&logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "trace-123", logs[0].TraceID)
	assert.Equal(t, int64(2), logs[0].UserID)
	assert.Equal(t, "POST", logs[0].Method)
	assert.Equal(t, "/api/friends/request", logs[0].Path)
	assert.Equal(t, int64(42), logs[0].Latency)
}

func TestLog_BatchFlush(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())

	// 100 entries trigger an immediate batch flush inside the worker.
	for i := 0; i < 100; i++ {
		svc.Log(Entry{Method: "POST", Path: "/batch"})
	}

	svc.Stop(context.Background())

	var count int64
	db.Model(&model.RequestAudit{}).Count(&count)
	assert.GreaterOrEqual(t, count, int64(100))
}

func TestMiddleware_AuditsMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())

	r := gin.New()
	r.Use(svc.Middleware())
	r.POST("/write", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.GET("/read", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/write", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/read", nil))
	require.Equal(t, http.StatusOK, w.Code)

	svc.Stop(context.Background())

	var logs []model.RequestAudit
	db.Find(&logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "/write", logs[0].Path)
	assert.Equal(t, http.StatusCreated, logs[0].Status)
}
