// internal/domain/movement/entity.go
package movement

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/sitestock-backend/internal/domain/item"
)

// Kind represents the type of stock movement
type Kind string

const (
	KindEntry    Kind = "entry"
	KindExit     Kind = "exit"
	KindTransfer Kind = "transfer"
	KindReturn   Kind = "return"
	KindWriteOff Kind = "write_off"
)

// ValidMovementKind reports whether k is one of the known movement kinds.
func ValidMovementKind(k Kind) bool {
	switch k {
	case KindEntry, KindExit, KindTransfer, KindReturn, KindWriteOff:
		return true
	}
	return false
}

// Outbound reports whether the kind takes stock away from the current
// holder and therefore needs an availability check.
func (k Kind) Outbound() bool {
	switch k {
	case KindExit, KindTransfer, KindWriteOff:
		return true
	}
	return false
}

// Status represents the lifecycle status of a ledger record
type Status string

const (
	StatusPending   Status = "pending"
	StatusCommitted Status = "committed"
	StatusCancelled Status = "cancelled"
)

// Movement is one immutable stock event. Rows are only ever appended;
// cancellation adds a compensating record instead of editing.
type Movement struct {
	ID                      uint             `gorm:"primaryKey" json:"id"`
	EventTime               time.Time        `gorm:"not null;index:idx_movements_event_time,sort:desc" json:"event_time"`
	Kind                    Kind             `gorm:"size:20;not null;index" json:"kind"`
	ItemKind                item.Kind        `gorm:"size:20;not null;index:idx_movements_item" json:"item_kind"`
	ItemID                  uint             `gorm:"not null;index:idx_movements_item" json:"item_id"`
	ItemCodeSnapshot        string           `gorm:"size:50;not null" json:"item_code_snapshot"`
	ItemDescriptionSnapshot string           `gorm:"size:255;not null" json:"item_description_snapshot"`
	Quantity                decimal.Decimal  `gorm:"type:numeric(14,3);not null" json:"quantity"`
	Unit                    string           `gorm:"size:20" json:"unit"`
	OriginSiteID            *uint            `gorm:"index" json:"origin_site_id,omitempty"`
	DestinationSiteID       *uint            `gorm:"index" json:"destination_site_id,omitempty"`
	OriginCustodianID       *uint            `json:"origin_custodian_id,omitempty"`
	DestinationCustodianID  *uint            `json:"destination_custodian_id,omitempty"`
	UnitValue               *decimal.Decimal `gorm:"type:numeric(14,2)" json:"unit_value,omitempty"`
	TotalValue              *decimal.Decimal `gorm:"type:numeric(14,2)" json:"total_value,omitempty"`
	Reason                  string           `gorm:"size:100" json:"reason,omitempty"`
	Note                    string           `gorm:"size:500" json:"note,omitempty"`
	DocumentRef             string           `gorm:"size:100;index" json:"document_ref,omitempty"`
	ExpectedReturnDate      *time.Time       `json:"expected_return_date,omitempty"`
	Status                  Status           `gorm:"size:20;not null;default:'committed'" json:"status"`
	ActorUserID             uint             `gorm:"not null;index" json:"actor_user_id"`
	CancelsMovementID       *uint            `gorm:"index" json:"cancels_movement_id,omitempty"`
}

// QueryFilter narrows ledger reads. Zero values mean "no filter".
type QueryFilter struct {
	ItemKind    item.Kind
	ItemID      uint
	Kind        Kind
	From        *time.Time
	To          *time.Time
	SiteID      uint
	CustodianID uint
	Search      string
	Offset      int
	Limit       int
}
