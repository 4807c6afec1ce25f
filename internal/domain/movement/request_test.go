// internal/domain/movement/request_test.go
package movement

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/sitestock-backend/internal/domain/item"
)

func uintPtr(v uint) *uint { return &v }

func validSupplyExit() *SubmitRequest {
	return &SubmitRequest{
		MovementKind:      KindExit,
		ItemKind:          item.KindSupply,
		ItemID:            1,
		Quantity:          decimal.NewFromInt(5),
		DestinationSiteID: uintPtr(2),
	}
}

func TestShapeCheckAcceptsWellFormedRequests(t *testing.T) {
	tests := []struct {
		name string
		req  *SubmitRequest
	}{
		{"supply exit", validSupplyExit()},
		{"entry without origin", &SubmitRequest{
			MovementKind: KindEntry,
			ItemKind:     item.KindSupply,
			ItemCode:     "SUP-001",
			Quantity:     decimal.RequireFromString("2.500"),
		}},
		{"electrical single unit", &SubmitRequest{
			MovementKind:      KindExit,
			ItemKind:          item.KindElectrical,
			ItemID:            3,
			Quantity:          decimal.NewFromInt(1),
			DestinationSiteID: uintPtr(1),
		}},
		{"manual whole quantity", &SubmitRequest{
			MovementKind:      KindExit,
			ItemKind:          item.KindManual,
			ItemID:            4,
			Quantity:          decimal.NewFromInt(3),
			DestinationSiteID: uintPtr(1),
		}},
		{"transfer changing site", &SubmitRequest{
			MovementKind:      KindTransfer,
			ItemKind:          item.KindSupply,
			ItemID:            1,
			Quantity:          decimal.NewFromInt(1),
			OriginSiteID:      uintPtr(1),
			DestinationSiteID: uintPtr(2),
		}},
		{"write-off to damaged", &SubmitRequest{
			MovementKind:   KindWriteOff,
			ItemKind:       item.KindManual,
			ItemID:         4,
			Quantity:       decimal.NewFromInt(1),
			WriteOffStatus: item.StatusDamaged,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, tt.req.ShapeCheck())
		})
	}
}

func TestShapeCheckRejectsMalformedRequests(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SubmitRequest)
		field  string
	}{
		{"unknown movement kind", func(r *SubmitRequest) { r.MovementKind = "loan" }, "movement_kind"},
		{"unknown item kind", func(r *SubmitRequest) { r.ItemKind = "vehicle" }, "item_kind"},
		{"missing item reference", func(r *SubmitRequest) { r.ItemID = 0; r.ItemCode = "" }, "item_id"},
		{"zero quantity", func(r *SubmitRequest) { r.Quantity = decimal.Zero }, "quantity"},
		{"negative quantity", func(r *SubmitRequest) { r.Quantity = decimal.NewFromInt(-1) }, "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSupplyExit()
			tt.mutate(req)

			rej := req.ShapeCheck()
			require.NotNil(t, rej)
			assert.Equal(t, ReasonMalformedRequest, rej.Reason)
			assert.Equal(t, tt.field, rej.Detail["field"])
		})
	}
}

func TestShapeCheckElectricalQuantityMustBeOne(t *testing.T) {
	req := &SubmitRequest{
		MovementKind:      KindExit,
		ItemKind:          item.KindElectrical,
		ItemID:            3,
		Quantity:          decimal.NewFromInt(2),
		DestinationSiteID: uintPtr(1),
	}

	rej := req.ShapeCheck()
	require.NotNil(t, rej)
	assert.Equal(t, ReasonMalformedRequest, rej.Reason)
}

func TestShapeCheckManualQuantityMustBeWhole(t *testing.T) {
	req := &SubmitRequest{
		MovementKind:      KindExit,
		ItemKind:          item.KindManual,
		ItemID:            4,
		Quantity:          decimal.RequireFromString("1.5"),
		DestinationSiteID: uintPtr(1),
	}

	rej := req.ShapeCheck()
	require.NotNil(t, rej)
	assert.Equal(t, ReasonMalformedRequest, rej.Reason)
}

func TestShapeCheckEntryRejectsOriginFields(t *testing.T) {
	req := &SubmitRequest{
		MovementKind: KindEntry,
		ItemKind:     item.KindSupply,
		ItemID:       1,
		Quantity:     decimal.NewFromInt(1),
		OriginSiteID: uintPtr(9),
	}

	rej := req.ShapeCheck()
	require.NotNil(t, rej)
	assert.Equal(t, ReasonMalformedRequest, rej.Reason)
}

func TestShapeCheckTransferNeedsDifferentEndpoints(t *testing.T) {
	req := &SubmitRequest{
		MovementKind:      KindTransfer,
		ItemKind:          item.KindSupply,
		ItemID:            1,
		Quantity:          decimal.NewFromInt(1),
		OriginSiteID:      uintPtr(2),
		DestinationSiteID: uintPtr(2),
	}

	rej := req.ShapeCheck()
	require.NotNil(t, rej)
	assert.Equal(t, ReasonMalformedRequest, rej.Reason)

	// Same site but a different custodian is a valid hand-over.
	req.OriginCustodianID = uintPtr(1)
	req.DestinationCustodianID = uintPtr(2)
	assert.Nil(t, req.ShapeCheck())
}

func TestShapeCheckWriteOffStatus(t *testing.T) {
	req := &SubmitRequest{
		MovementKind:   KindWriteOff,
		ItemKind:       item.KindElectrical,
		ItemID:         3,
		Quantity:       decimal.NewFromInt(1),
		WriteOffStatus: item.StatusInUse,
	}

	rej := req.ShapeCheck()
	require.NotNil(t, rej)
	assert.Equal(t, ReasonMalformedRequest, rej.Reason)

	req.WriteOffStatus = item.StatusInactive
	assert.Nil(t, req.ShapeCheck())
}
