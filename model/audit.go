package model

import (
	"time"

	"gorm.io/datatypes"
)

// RequestAudit captures one API request for offline inspection. Written in
// batches by the audit worker, never on the request path.
type RequestAudit struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID   string         `gorm:"size:36;index:idx_audit_trace" json:"trace_id"`
	UserID    int64          `gorm:"index:idx_audit_user" json:"user_id"`
	Method    string         `gorm:"size:10" json:"method"`
	Path      string         `gorm:"size:255" json:"path"`
	Status    int            `json:"status"`
	ClientIP  string         `gorm:"size:64" json:"client_ip"`
	Body      datatypes.JSON `json:"body,omitempty"`
	Latency   int64          `json:"latency_ms"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
