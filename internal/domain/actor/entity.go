// internal/domain/actor/entity.go
package actor

import (
	"time"

	"gorm.io/gorm"
)

// Site is a logical location: construction site, department or central store.
type Site struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Code      string         `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Name      string         `gorm:"not null;size:150" json:"name"`
	Address   string         `gorm:"size:255" json:"address,omitempty"`
	Active    bool           `gorm:"default:true;index" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Custodian is a person accountable for tracked items or supply batches.
type Custodian struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Code      string         `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Name      string         `gorm:"not null;size:150" json:"name"`
	Role      string         `gorm:"size:100" json:"role,omitempty"`
	Phone     string         `gorm:"size:30" json:"phone,omitempty"`
	Active    bool           `gorm:"default:true;index" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
