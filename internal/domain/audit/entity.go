// internal/domain/audit/entity.go
package audit

import (
	"encoding/json"
	"time"
)

// Action identifies what happened.
type Action string

const (
	ActionMovementCommitted Action = "movement_committed"
	ActionMovementCancelled Action = "movement_cancelled"
	ActionAttemptRejected   Action = "attempt_rejected"
	ActionItemCreated       Action = "item_created"
	ActionItemUpdated       Action = "item_updated"
	ActionItemDeactivated   Action = "item_deactivated"
	ActionItemReactivated   Action = "item_reactivated"
)

// Entry is an append-only audit record. Both accepted movements and rejected
// attempts land here; entries are never updated or deleted.
type Entry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	HappenedAt time.Time `gorm:"index;not null" json:"happened_at"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	Action     Action    `gorm:"size:50;not null;index" json:"action"`
	Module     string    `gorm:"size:50;not null;index" json:"module"`
	TargetKind string    `gorm:"size:50" json:"target_kind"`
	TargetID   uint      `gorm:"index" json:"target_id"`
	BeforeJSON string    `gorm:"type:jsonb" json:"before_json"`
	AfterJSON  string    `gorm:"type:jsonb" json:"after_json"`
	Note       string    `gorm:"size:500" json:"note"`
}

// TableName maps Entry to the audit_entries table.
func (Entry) TableName() string { return "audit_entries" }

// MarshalSnapshot renders a before/after snapshot as a JSON string, falling
// back to the jsonb null literal so the column never holds an empty string.
func MarshalSnapshot(v interface{}) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
