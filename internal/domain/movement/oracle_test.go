// internal/domain/movement/oracle_test.go
package movement

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/sitestock-backend/internal/domain/item"
)

func supplyItem(onHand string) *item.Item {
	return &item.Item{
		Kind: item.KindSupply,
		Supply: &item.Supply{
			ID:     1,
			Code:   "SUP-001",
			OnHand: decimal.RequireFromString(onHand),
			Active: true,
		},
	}
}

func electricalItem(status item.Status) *item.Item {
	return &item.Item{
		Kind: item.KindElectrical,
		Electrical: &item.Electrical{
			ID:     2,
			Code:   "ELE-001",
			Status: status,
			Active: true,
		},
	}
}

func manualItem(status item.Status, quantity int) *item.Item {
	return &item.Item{
		Kind: item.KindManual,
		Manual: &item.ManualTool{
			ID:       3,
			Code:     "MAN-001",
			Status:   status,
			Quantity: quantity,
			Active:   true,
		},
	}
}

func TestCheckAvailabilityInactiveItemBlocksEverything(t *testing.T) {
	it := supplyItem("100")
	it.Supply.Active = false

	verdict := CheckAvailability(KindExit, it, nil, decimal.NewFromInt(1))
	assert.False(t, verdict.Allowed)
	assert.Equal(t, ReasonItemInactive, verdict.Reason)
}

func TestCheckAvailabilitySupplyStock(t *testing.T) {
	it := supplyItem("10.500")

	assert.True(t, CheckAvailability(KindExit, it, nil, decimal.RequireFromString("10.500")).Allowed)
	assert.True(t, CheckAvailability(KindExit, it, nil, decimal.RequireFromString("0.001")).Allowed)

	verdict := CheckAvailability(KindExit, it, nil, decimal.RequireFromString("10.501"))
	require.False(t, verdict.Allowed)
	assert.Equal(t, ReasonInsufficientStock, verdict.Reason)
	assert.Equal(t, it.Supply.OnHand, verdict.Detail["current_on_hand"])
}

func TestCheckAvailabilityElectricalExit(t *testing.T) {
	one := decimal.NewFromInt(1)

	// Available and nothing outstanding: allowed.
	assert.True(t, CheckAvailability(KindExit, electricalItem(item.StatusAvailable), nil, one).Allowed)

	// Outstanding exit in the ledger: blocked even if status looks available.
	siteID := uint(7)
	outstanding := &Movement{Kind: KindExit, DestinationSiteID: &siteID}
	verdict := CheckAvailability(KindExit, electricalItem(item.StatusAvailable), outstanding, one)
	require.False(t, verdict.Allowed)
	assert.Equal(t, ReasonAlreadyIssued, verdict.Reason)
	assert.Equal(t, siteID, verdict.Detail["site_id"])

	// Wrong status without an outstanding movement.
	verdict = CheckAvailability(KindExit, electricalItem(item.StatusMaintenance), nil, one)
	require.False(t, verdict.Allowed)
	assert.Equal(t, ReasonNotAvailableStatus, verdict.Reason)
}

func TestCheckAvailabilityElectricalTransferOfIssuedUnit(t *testing.T) {
	one := decimal.NewFromInt(1)
	siteID := uint(7)
	outstanding := &Movement{Kind: KindExit, DestinationSiteID: &siteID}

	// A unit in the field may move between sites without coming back first.
	assert.True(t, CheckAvailability(KindTransfer, electricalItem(item.StatusInUse), outstanding, one).Allowed)

	verdict := CheckAvailability(KindTransfer, electricalItem(item.StatusDamaged), outstanding, one)
	require.False(t, verdict.Allowed)
	assert.Equal(t, ReasonNotAvailableStatus, verdict.Reason)
}

func TestCheckAvailabilityElectricalWriteOff(t *testing.T) {
	one := decimal.NewFromInt(1)

	// Damaged equipment can still be written off.
	assert.True(t, CheckAvailability(KindWriteOff, electricalItem(item.StatusDamaged), nil, one).Allowed)
	assert.True(t, CheckAvailability(KindWriteOff, electricalItem(item.StatusInUse), nil, one).Allowed)

	verdict := CheckAvailability(KindWriteOff, electricalItem(item.StatusInactive), nil, one)
	require.False(t, verdict.Allowed)
	assert.Equal(t, ReasonNotAvailableStatus, verdict.Reason)
}

func TestCheckAvailabilityManualQuantity(t *testing.T) {
	it := manualItem(item.StatusAvailable, 5)

	assert.True(t, CheckAvailability(KindExit, it, nil, decimal.NewFromInt(5)).Allowed)

	verdict := CheckAvailability(KindExit, it, nil, decimal.NewFromInt(6))
	require.False(t, verdict.Allowed)
	assert.Equal(t, ReasonInsufficientStock, verdict.Reason)
	assert.Equal(t, 5, verdict.Detail["current_on_hand"])
}

func TestCheckAvailabilityManualStatus(t *testing.T) {
	one := decimal.NewFromInt(1)

	assert.True(t, CheckAvailability(KindExit, manualItem(item.StatusInUse, 5), nil, one).Allowed)

	verdict := CheckAvailability(KindExit, manualItem(item.StatusMaintenance, 5), nil, one)
	require.False(t, verdict.Allowed)
	assert.Equal(t, ReasonNotAvailableStatus, verdict.Reason)
}
