// internal/domain/movement/request.go
package movement

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/sitestock-backend/internal/domain/item"
)

// SubmitRequest represents one movement submission. The item may be
// addressed by id or by code; id wins when both are present.
type SubmitRequest struct {
	MovementKind           Kind             `json:"movement_kind" binding:"required"`
	ItemKind               item.Kind        `json:"item_kind" binding:"required"`
	ItemID                 uint             `json:"item_id"`
	ItemCode               string           `json:"item_code"`
	Quantity               decimal.Decimal  `json:"quantity"`
	OriginSiteID           *uint            `json:"origin_site_id,omitempty"`
	DestinationSiteID      *uint            `json:"destination_site_id,omitempty"`
	OriginCustodianID      *uint            `json:"origin_custodian_id,omitempty"`
	DestinationCustodianID *uint            `json:"destination_custodian_id,omitempty"`
	UnitValue              *decimal.Decimal `json:"unit_value,omitempty"`
	Reason                 string           `json:"reason,omitempty"`
	Note                   string           `json:"note,omitempty"`
	DocumentRef            string           `json:"document_ref,omitempty"`
	ExpectedReturnDate     *time.Time       `json:"expected_return_date,omitempty"`
	// WriteOffStatus picks the terminal status of a tracked item on
	// write-off: damaged (default) or inactive.
	WriteOffStatus item.Status `json:"write_off_status,omitempty"`
}

// ShapeCheck validates the request structure without touching storage.
// Returns nil when the request is well-formed.
func (r *SubmitRequest) ShapeCheck() *Rejection {
	if !ValidMovementKind(r.MovementKind) {
		return Reject(ReasonMalformedRequest, map[string]interface{}{"field": "movement_kind"})
	}
	if !item.ValidKind(r.ItemKind) {
		return Reject(ReasonMalformedRequest, map[string]interface{}{"field": "item_kind"})
	}
	if r.ItemID == 0 && r.ItemCode == "" {
		return Reject(ReasonMalformedRequest, map[string]interface{}{"field": "item_id"})
	}
	if !r.Quantity.IsPositive() {
		return Reject(ReasonMalformedRequest, map[string]interface{}{"field": "quantity"})
	}

	switch r.ItemKind {
	case item.KindElectrical:
		// Single-instance equipment always moves as one unit.
		if !r.Quantity.Equal(decimal.NewFromInt(1)) {
			return Reject(ReasonMalformedRequest, map[string]interface{}{"field": "quantity"})
		}
	case item.KindManual:
		// Tools never split into fractions.
		if !r.Quantity.IsInteger() {
			return Reject(ReasonMalformedRequest, map[string]interface{}{"field": "quantity"})
		}
	}

	switch r.MovementKind {
	case KindEntry:
		if r.OriginSiteID != nil || r.OriginCustodianID != nil {
			return Reject(ReasonMalformedRequest, map[string]interface{}{"field": "origin_site_id"})
		}
	case KindTransfer:
		if uintPtrEqual(r.OriginSiteID, r.DestinationSiteID) && uintPtrEqual(r.OriginCustodianID, r.DestinationCustodianID) {
			return Reject(ReasonMalformedRequest, map[string]interface{}{"field": "destination_site_id"})
		}
	case KindWriteOff:
		if r.WriteOffStatus != "" && r.WriteOffStatus != item.StatusDamaged && r.WriteOffStatus != item.StatusInactive {
			return Reject(ReasonMalformedRequest, map[string]interface{}{"field": "write_off_status"})
		}
	}

	return nil
}

func uintPtrEqual(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
