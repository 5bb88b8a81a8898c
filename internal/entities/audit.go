package entities

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// AuditEventType groups audit rows for filtering.
type AuditEventType string

const (
	AuditEventCreate      AuditEventType = "create"
	AuditEventUpdate      AuditEventType = "update"
	AuditEventDelete      AuditEventType = "delete"
	AuditEventReturn      AuditEventType = "return"
	AuditEventLink        AuditEventType = "link"
	AuditEventUnlink      AuditEventType = "unlink"
	AuditEventUpload      AuditEventType = "upload"
	AuditEventAuth        AuditEventType = "auth"
	AuditEventMaintenance AuditEventType = "maintenance"
)

// AuditEventTypes lists every type in the order the audit page offers them.
var AuditEventTypes = []AuditEventType{
	AuditEventCreate, AuditEventUpdate, AuditEventDelete, AuditEventReturn,
	AuditEventLink, AuditEventUnlink, AuditEventUpload, AuditEventAuth,
	AuditEventMaintenance,
}

var auditEventLabels = map[AuditEventType]string{
	AuditEventLink:   "Assign",
	AuditEventUnlink: "Unassign",
	AuditEventAuth:   "Authentication",
}

// Label is the human name of the type.
func (t AuditEventType) Label() string {
	if label, ok := auditEventLabels[t]; ok {
		return label
	}
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuditEvent is one row of the audit trail. EntityType and EntityID name the
// record touched ("book" 4, "employee_shift" 9); Metadata carries the JSON
// snapshot of the change.
type AuditEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UserID    uint      `gorm:"index" json:"user_id"`

	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	Description string         `gorm:"size:500" json:"description"`

	EntityType string         `gorm:"size:50" json:"entity_type"`
	EntityID   *uint          `gorm:"index" json:"entity_id,omitempty"`
	Metadata   datatypes.JSON `json:"metadata,omitempty"`

	IPAddress string `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent string `gorm:"size:500" json:"user_agent,omitempty"`
}

func (AuditEvent) TableName() string { return "audit_events" }

// Failed reports whether the audited operation was rejected.
func (e AuditEvent) Failed() bool { return e.Status == AuditStatusFailed }
