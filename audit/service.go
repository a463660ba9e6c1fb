// Package audit persists per-request audit records asynchronously so the
// request path never waits on the audit table.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"socialnet/middleware"
	"socialnet/model"
)

// Entry holds one audit event to be logged.
type Entry struct {
	TraceID   string
	UserID    int64
	Method    string
	Path      string
	Status    int
	ClientIP  string
	Body      interface{}
	LatencyMs int64
}

// Service logs audit entries asynchronously in batches.
type Service struct {
	db     *gorm.DB
	ch     chan *model.RequestAudit
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a new audit Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		ch:     make(chan *model.RequestAudit, 1024),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Log enqueues an audit entry for async DB write.
func (svc *Service) Log(entry Entry) {
	var body datatypes.JSON
	if entry.Body != nil {
		raw, _ := json.Marshal(entry.Body)
		body = datatypes.JSON(raw)
	}
	record := &model.RequestAudit{
		TraceID:  entry.TraceID,
		UserID:   entry.UserID,
		Method:   entry.Method,
		Path:     entry.Path,
		Status:   entry.Status,
		ClientIP: entry.ClientIP,
		Body:     body,
		Latency:  entry.LatencyMs,
	}
	select {
	case svc.ch <- record:
	default:
		svc.logger.Warn("audit channel full, dropping entry",
			zap.String("path", entry.Path))
	}
}

// Middleware records every mutating request after it completes.
func (svc *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Reads are not audited.
		if c.Request.Method == "GET" {
			return
		}
		svc.Log(Entry{
			TraceID:   middleware.GetTraceID(c),
			UserID:    middleware.GetUserID(c),
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			Status:    c.Writer.Status(),
			ClientIP:  c.ClientIP(),
			LatencyMs: time.Since(start).Milliseconds(),
		})
	}
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	select {
	case <-svc.stopCh:
	default:
		close(svc.stopCh)
	}
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	batch := make([]*model.RequestAudit, 0, 100)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("audit batch write failed", zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-svc.ch:
			batch = append(batch, entry)
			if len(batch) >= 100 {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			// Drain remaining entries.
			for {
				select {
				case entry := <-svc.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}
