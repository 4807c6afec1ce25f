// internal/domain/movement/oracle.go
package movement

import (
	"github.com/shopspring/decimal"
	"github.com/your-org/sitestock-backend/internal/domain/item"
)

// Verdict is the availability oracle's answer for a proposed outbound
// movement. When blocked, Reason and Detail describe why.
type Verdict struct {
	Allowed bool
	Reason  Reason
	Detail  map[string]interface{}
}

func available() Verdict {
	return Verdict{Allowed: true}
}

func blocked(reason Reason, detail map[string]interface{}) Verdict {
	return Verdict{Allowed: false, Reason: reason, Detail: detail}
}

// CheckAvailability decides whether an outbound movement of qty may proceed.
// It is a pure function over the snapshot visible in the caller's
// transaction: latestOutbound is the item's most recent outward movement
// with no return or entry committed after it, or nil when none is
// outstanding. The oracle performs no writes.
func CheckAvailability(kind Kind, it *item.Item, latestOutbound *Movement, qty decimal.Decimal) Verdict {
	if !it.Active() {
		return blocked(ReasonItemInactive, nil)
	}

	switch it.Kind {
	case item.KindSupply:
		if it.Supply.OnHand.LessThan(qty) {
			return blocked(ReasonInsufficientStock, map[string]interface{}{
				"current_on_hand": it.Supply.OnHand,
			})
		}
		return available()

	case item.KindElectrical:
		return checkElectrical(kind, it.Electrical, latestOutbound)

	default: // manual, partial issues allowed
		return checkManual(kind, it.Manual, qty)
	}
}

// checkElectrical enforces the single-instance rules: a unit cannot be
// issued twice without an intervening return or entry, but an issued unit
// may still be transferred between sites or written off.
func checkElectrical(kind Kind, eq *item.Electrical, latestOutbound *Movement) Verdict {
	switch kind {
	case KindExit:
		if latestOutbound != nil {
			detail := map[string]interface{}{}
			if latestOutbound.DestinationSiteID != nil {
				detail["site_id"] = *latestOutbound.DestinationSiteID
			}
			if latestOutbound.DestinationCustodianID != nil {
				detail["custodian_id"] = *latestOutbound.DestinationCustodianID
			}
			return blocked(ReasonAlreadyIssued, detail)
		}
		if eq.Status != item.StatusAvailable {
			return blocked(ReasonNotAvailableStatus, map[string]interface{}{"status": eq.Status})
		}
	case KindTransfer:
		if eq.Status != item.StatusAvailable && eq.Status != item.StatusInUse {
			return blocked(ReasonNotAvailableStatus, map[string]interface{}{"status": eq.Status})
		}
	case KindWriteOff:
		if eq.Status == item.StatusInactive {
			return blocked(ReasonNotAvailableStatus, map[string]interface{}{"status": eq.Status})
		}
	}
	return available()
}

func checkManual(kind Kind, tool *item.ManualTool, qty decimal.Decimal) Verdict {
	switch kind {
	case KindExit, KindTransfer:
		if tool.Status != item.StatusAvailable && tool.Status != item.StatusInUse {
			return blocked(ReasonNotAvailableStatus, map[string]interface{}{"status": tool.Status})
		}
	case KindWriteOff:
		if tool.Status == item.StatusInactive {
			return blocked(ReasonNotAvailableStatus, map[string]interface{}{"status": tool.Status})
		}
	}
	if decimal.NewFromInt(int64(tool.Quantity)).LessThan(qty) {
		return blocked(ReasonInsufficientStock, map[string]interface{}{
			"current_on_hand": tool.Quantity,
		})
	}
	return available()
}
