// internal/domain/item/entity.go
package item

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Kind discriminates the three tracked article families.
type Kind string

const (
	KindSupply     Kind = "supply"
	KindElectrical Kind = "electrical"
	KindManual     Kind = "manual"
)

// ValidKind reports whether k is one of the known item kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindSupply, KindElectrical, KindManual:
		return true
	}
	return false
}

// Status represents the placement status of a tracked (electrical/manual) item.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusInUse       Status = "in_use"
	StatusMaintenance Status = "maintenance"
	StatusDamaged     Status = "damaged"
	StatusInactive    Status = "inactive"
)

// Condition represents the physical condition of a manual tool.
type Condition string

const (
	ConditionNew      Condition = "new"
	ConditionGoodUsed Condition = "good_used"
	ConditionFairUsed Condition = "fair_used"
	ConditionPoor     Condition = "poor"
)

// Supply is a consumable item tracked by a rational on-hand quantity.
type Supply struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	Code          string           `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Description   string           `gorm:"not null;size:255" json:"description"`
	Unit          string           `gorm:"not null;size:20" json:"unit"`
	OnHand        decimal.Decimal  `gorm:"type:numeric(14,3);not null;default:0" json:"on_hand"`
	ReorderPoint  decimal.Decimal  `gorm:"type:numeric(14,3);not null;default:0" json:"reorder_point"`
	LastUnitPrice *decimal.Decimal `gorm:"type:numeric(14,2)" json:"last_unit_price,omitempty"`
	Location      string           `gorm:"size:100" json:"location"`
	ExpiryDate    *time.Time       `json:"expiry_date,omitempty"`
	Active        bool             `gorm:"default:true;index" json:"active"`
	Version       uint             `gorm:"default:0" json:"-"`
	CreatedBy     uint             `json:"created_by"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`
}

// TableName maps Supply to the items_supply table.
func (Supply) TableName() string { return "items_supply" }

// IsBelowReorderPoint reports whether the supply needs restocking.
func (s *Supply) IsBelowReorderPoint() bool {
	return s.OnHand.LessThanOrEqual(s.ReorderPoint)
}

// Electrical is an electrical device tracked as a single instance.
type Electrical struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	Code               string           `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Description        string           `gorm:"not null;size:255" json:"description"`
	Status             Status           `gorm:"not null;default:'available';index" json:"status"`
	SerialNumber       string           `gorm:"size:100" json:"serial_number,omitempty"`
	PurchaseValue      *decimal.Decimal `gorm:"type:numeric(14,2)" json:"purchase_value,omitempty"`
	Location           string           `gorm:"size:100" json:"location"`
	CurrentSiteID      *uint            `gorm:"index" json:"current_site_id,omitempty"`
	CurrentCustodianID *uint            `gorm:"index" json:"current_custodian_id,omitempty"`
	Active             bool             `gorm:"default:true;index" json:"active"`
	CreatedBy          uint             `json:"created_by"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	DeletedAt          gorm.DeletedAt   `gorm:"index" json:"-"`
}

// TableName maps Electrical to the items_electrical table.
func (Electrical) TableName() string { return "items_electrical" }

// ManualTool is a hand tool tracked by status, condition and a whole-number quantity.
type ManualTool struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Code               string         `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Description        string         `gorm:"not null;size:255" json:"description"`
	Status             Status         `gorm:"not null;default:'available';index" json:"status"`
	Condition          Condition      `gorm:"not null;default:'good_used'" json:"condition"`
	Quantity           int            `gorm:"not null;default:1" json:"quantity"`
	Location           string         `gorm:"size:100" json:"location"`
	CurrentSiteID      *uint          `gorm:"index" json:"current_site_id,omitempty"`
	CurrentCustodianID *uint          `gorm:"index" json:"current_custodian_id,omitempty"`
	Active             bool           `gorm:"default:true;index" json:"active"`
	CreatedBy          uint           `json:"created_by"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName maps ManualTool to the items_manual table.
func (ManualTool) TableName() string { return "items_manual" }

// Item is the tagged variant the movement engine dispatches on. Exactly one
// of Supply, Electrical or Manual is non-nil, matching Kind.
type Item struct {
	Kind       Kind
	Supply     *Supply
	Electrical *Electrical
	Manual     *ManualTool
}

// ID returns the identifier of the underlying variant.
func (i *Item) ID() uint {
	switch i.Kind {
	case KindSupply:
		return i.Supply.ID
	case KindElectrical:
		return i.Electrical.ID
	default:
		return i.Manual.ID
	}
}

// Code returns the code of the underlying variant.
func (i *Item) Code() string {
	switch i.Kind {
	case KindSupply:
		return i.Supply.Code
	case KindElectrical:
		return i.Electrical.Code
	default:
		return i.Manual.Code
	}
}

// Description returns the description of the underlying variant.
func (i *Item) Description() string {
	switch i.Kind {
	case KindSupply:
		return i.Supply.Description
	case KindElectrical:
		return i.Electrical.Description
	default:
		return i.Manual.Description
	}
}

// Active reports whether the underlying variant accepts new movements.
func (i *Item) Active() bool {
	switch i.Kind {
	case KindSupply:
		return i.Supply.Active
	case KindElectrical:
		return i.Electrical.Active
	default:
		return i.Manual.Active
	}
}

// Unit returns the measurement unit; tracked items are counted in units.
func (i *Item) Unit() string {
	if i.Kind == KindSupply {
		return i.Supply.Unit
	}
	return "un"
}

// Status returns the placement status of a tracked item. Supplies carry no
// status and always report available.
func (i *Item) Status() Status {
	switch i.Kind {
	case KindElectrical:
		return i.Electrical.Status
	case KindManual:
		return i.Manual.Status
	default:
		return StatusAvailable
	}
}

// Placement is the engine-owned location state of a tracked item.
type Placement struct {
	SiteID      *uint
	CustodianID *uint
	Status      Status
}
