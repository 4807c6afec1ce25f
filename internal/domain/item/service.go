// internal/domain/item/service.go
package item

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/sitestock-backend/internal/config"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no item matches the given kind and id/code.
var ErrNotFound = errors.New("item not found")

// Service handles administrative item operations. It never mutates the
// engine-owned fields (on_hand, status, current site/custodian); those are
// written exclusively through the movement store.
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new item service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateSupplyRequest represents supply registration data
type CreateSupplyRequest struct {
	Code          string           `json:"code" binding:"required"`
	Description   string           `json:"description" binding:"required"`
	Unit          string           `json:"unit" binding:"required"`
	InitialOnHand decimal.Decimal  `json:"initial_on_hand"`
	ReorderPoint  decimal.Decimal  `json:"reorder_point"`
	LastUnitPrice *decimal.Decimal `json:"last_unit_price,omitempty"`
	Location      string           `json:"location"`
	ExpiryDate    *time.Time       `json:"expiry_date,omitempty"`
}

// CreateElectricalRequest represents electrical equipment registration data
type CreateElectricalRequest struct {
	Code          string           `json:"code" binding:"required"`
	Description   string           `json:"description" binding:"required"`
	SerialNumber  string           `json:"serial_number"`
	PurchaseValue *decimal.Decimal `json:"purchase_value,omitempty"`
	Location      string           `json:"location"`
}

// CreateManualRequest represents manual tool registration data
type CreateManualRequest struct {
	Code        string    `json:"code" binding:"required"`
	Description string    `json:"description" binding:"required"`
	Condition   Condition `json:"condition"`
	Quantity    int       `json:"quantity"`
	Location    string    `json:"location"`
}

// UpdateItemRequest carries the administrative (non engine-owned) fields.
type UpdateItemRequest struct {
	Description   *string          `json:"description,omitempty"`
	Unit          *string          `json:"unit,omitempty"`
	ReorderPoint  *decimal.Decimal `json:"reorder_point,omitempty"`
	LastUnitPrice *decimal.Decimal `json:"last_unit_price,omitempty"`
	Location      *string          `json:"location,omitempty"`
	Condition     *Condition       `json:"condition,omitempty"`
	SerialNumber  *string          `json:"serial_number,omitempty"`
}

// ListRequest represents item listing filters
type ListRequest struct {
	Code         string `form:"code"`
	Search       string `form:"q"`
	Active       *bool  `form:"active"`
	BelowReorder bool   `form:"below_reorder"`
	Status       Status `form:"status"`
	Page         int    `form:"page,default=1"`
	PageSize     int    `form:"page_size,default=20"`
}

// ListResponse is a paginated item listing
type ListResponse struct {
	Items    interface{} `json:"items"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Total    int64       `json:"total"`
}

func (r *ListRequest) normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 || r.PageSize > 100 {
		r.PageSize = 20
	}
}

// CreateSupply registers a new consumable supply
func (s *Service) CreateSupply(req *CreateSupplyRequest, userID uint) (*Supply, error) {
	var existing Supply
	if err := s.db.Where("code = ?", req.Code).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("supply with code '%s' already exists", req.Code)
	}

	if req.InitialOnHand.IsNegative() {
		return nil, fmt.Errorf("initial on-hand quantity cannot be negative")
	}

	supply := &Supply{
		Code:          req.Code,
		Description:   req.Description,
		Unit:          req.Unit,
		OnHand:        req.InitialOnHand,
		ReorderPoint:  req.ReorderPoint,
		LastUnitPrice: req.LastUnitPrice,
		Location:      req.Location,
		ExpiryDate:    req.ExpiryDate,
		Active:        true,
		CreatedBy:     userID,
	}

	if err := s.db.Create(supply).Error; err != nil {
		return nil, fmt.Errorf("failed to create supply: %w", err)
	}

	return supply, nil
}

// CreateElectrical registers a new electrical device
func (s *Service) CreateElectrical(req *CreateElectricalRequest, userID uint) (*Electrical, error) {
	var existing Electrical
	if err := s.db.Where("code = ?", req.Code).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("electrical equipment with code '%s' already exists", req.Code)
	}

	equipment := &Electrical{
		Code:          req.Code,
		Description:   req.Description,
		Status:        StatusAvailable,
		SerialNumber:  req.SerialNumber,
		PurchaseValue: req.PurchaseValue,
		Location:      req.Location,
		Active:        true,
		CreatedBy:     userID,
	}

	if err := s.db.Create(equipment).Error; err != nil {
		return nil, fmt.Errorf("failed to create electrical equipment: %w", err)
	}

	return equipment, nil
}

// CreateManual registers a new manual tool
func (s *Service) CreateManual(req *CreateManualRequest, userID uint) (*ManualTool, error) {
	var existing ManualTool
	if err := s.db.Where("code = ?", req.Code).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("manual tool with code '%s' already exists", req.Code)
	}

	if req.Quantity < 1 {
		req.Quantity = 1
	}
	condition := req.Condition
	if condition == "" {
		condition = ConditionGoodUsed
	}

	tool := &ManualTool{
		Code:        req.Code,
		Description: req.Description,
		Status:      StatusAvailable,
		Condition:   condition,
		Quantity:    req.Quantity,
		Location:    req.Location,
		Active:      true,
		CreatedBy:   userID,
	}

	if err := s.db.Create(tool).Error; err != nil {
		return nil, fmt.Errorf("failed to create manual tool: %w", err)
	}

	return tool, nil
}

// GetItem retrieves an item by kind and id as a tagged variant
func (s *Service) GetItem(kind Kind, id uint) (*Item, error) {
	switch kind {
	case KindSupply:
		var supply Supply
		if err := s.db.First(&supply, id).Error; err != nil {
			return nil, ErrNotFound
		}
		return &Item{Kind: kind, Supply: &supply}, nil
	case KindElectrical:
		var equipment Electrical
		if err := s.db.First(&equipment, id).Error; err != nil {
			return nil, ErrNotFound
		}
		return &Item{Kind: kind, Electrical: &equipment}, nil
	case KindManual:
		var tool ManualTool
		if err := s.db.First(&tool, id).Error; err != nil {
			return nil, ErrNotFound
		}
		return &Item{Kind: kind, Manual: &tool}, nil
	}
	return nil, fmt.Errorf("unknown item kind '%s'", kind)
}

// FindByCode retrieves an item by kind and code
func (s *Service) FindByCode(kind Kind, code string) (*Item, error) {
	switch kind {
	case KindSupply:
		var supply Supply
		if err := s.db.Where("code = ?", code).First(&supply).Error; err != nil {
			return nil, ErrNotFound
		}
		return &Item{Kind: kind, Supply: &supply}, nil
	case KindElectrical:
		var equipment Electrical
		if err := s.db.Where("code = ?", code).First(&equipment).Error; err != nil {
			return nil, ErrNotFound
		}
		return &Item{Kind: kind, Electrical: &equipment}, nil
	case KindManual:
		var tool ManualTool
		if err := s.db.Where("code = ?", code).First(&tool).Error; err != nil {
			return nil, ErrNotFound
		}
		return &Item{Kind: kind, Manual: &tool}, nil
	}
	return nil, fmt.Errorf("unknown item kind '%s'", kind)
}

// ListSupplies lists supplies with optional filters and pagination
func (s *Service) ListSupplies(req *ListRequest) (*ListResponse, error) {
	req.normalize()

	query := s.db.Model(&Supply{})
	if req.Code != "" {
		query = query.Where("code = ?", req.Code)
	}
	if req.Search != "" {
		query = query.Where("description ILIKE ?", "%"+req.Search+"%")
	}
	if req.Active != nil {
		query = query.Where("active = ?", *req.Active)
	}
	if req.BelowReorder {
		query = query.Where("on_hand <= reorder_point")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count supplies: %w", err)
	}

	var supplies []Supply
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("description ASC").Offset(offset).Limit(req.PageSize).Find(&supplies).Error; err != nil {
		return nil, fmt.Errorf("failed to list supplies: %w", err)
	}

	return &ListResponse{Items: supplies, Page: req.Page, PageSize: req.PageSize, Total: total}, nil
}

// ListElectrical lists electrical equipment with optional filters and pagination
func (s *Service) ListElectrical(req *ListRequest) (*ListResponse, error) {
	req.normalize()

	query := s.db.Model(&Electrical{})
	if req.Code != "" {
		query = query.Where("code = ?", req.Code)
	}
	if req.Search != "" {
		query = query.Where("description ILIKE ?", "%"+req.Search+"%")
	}
	if req.Active != nil {
		query = query.Where("active = ?", *req.Active)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count electrical equipment: %w", err)
	}

	var equipment []Electrical
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("description ASC").Offset(offset).Limit(req.PageSize).Find(&equipment).Error; err != nil {
		return nil, fmt.Errorf("failed to list electrical equipment: %w", err)
	}

	return &ListResponse{Items: equipment, Page: req.Page, PageSize: req.PageSize, Total: total}, nil
}

// ListManual lists manual tools with optional filters and pagination
func (s *Service) ListManual(req *ListRequest) (*ListResponse, error) {
	req.normalize()

	query := s.db.Model(&ManualTool{})
	if req.Code != "" {
		query = query.Where("code = ?", req.Code)
	}
	if req.Search != "" {
		query = query.Where("description ILIKE ?", "%"+req.Search+"%")
	}
	if req.Active != nil {
		query = query.Where("active = ?", *req.Active)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count manual tools: %w", err)
	}

	var tools []ManualTool
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("description ASC").Offset(offset).Limit(req.PageSize).Find(&tools).Error; err != nil {
		return nil, fmt.Errorf("failed to list manual tools: %w", err)
	}

	return &ListResponse{Items: tools, Page: req.Page, PageSize: req.PageSize, Total: total}, nil
}

// UpdateItem updates the administrative fields of an item. Engine-owned
// fields are deliberately not reachable from here.
func (s *Service) UpdateItem(kind Kind, id uint, req *UpdateItemRequest) (*Item, error) {
	it, err := s.GetItem(kind, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}

	switch kind {
	case KindSupply:
		if req.Unit != nil {
			updates["unit"] = *req.Unit
		}
		if req.ReorderPoint != nil {
			updates["reorder_point"] = *req.ReorderPoint
		}
		if req.LastUnitPrice != nil {
			updates["last_unit_price"] = *req.LastUnitPrice
		}
		if len(updates) > 0 {
			if err := s.db.Model(it.Supply).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("failed to update supply: %w", err)
			}
		}
	case KindElectrical:
		if req.SerialNumber != nil {
			updates["serial_number"] = *req.SerialNumber
		}
		if len(updates) > 0 {
			if err := s.db.Model(it.Electrical).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("failed to update electrical equipment: %w", err)
			}
		}
	case KindManual:
		if req.Condition != nil {
			updates["condition"] = *req.Condition
		}
		if len(updates) > 0 {
			if err := s.db.Model(it.Manual).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("failed to update manual tool: %w", err)
			}
		}
	}

	return s.GetItem(kind, id)
}

// DeactivateItem marks an item as inactive so it cannot be the target of
// new movements.
func (s *Service) DeactivateItem(kind Kind, id uint) error {
	it, err := s.GetItem(kind, id)
	if err != nil {
		return err
	}

	switch kind {
	case KindSupply:
		return s.db.Model(it.Supply).Update("active", false).Error
	case KindElectrical:
		return s.db.Model(it.Electrical).Updates(map[string]interface{}{
			"active": false,
			"status": StatusInactive,
		}).Error
	case KindManual:
		return s.db.Model(it.Manual).Updates(map[string]interface{}{
			"active": false,
			"status": StatusInactive,
		}).Error
	}
	return fmt.Errorf("unknown item kind '%s'", kind)
}

// ReactivateItem brings an inactive item back into circulation. Tracked
// items return to available with placement cleared.
func (s *Service) ReactivateItem(kind Kind, id uint) error {
	it, err := s.GetItem(kind, id)
	if err != nil {
		return err
	}

	switch kind {
	case KindSupply:
		return s.db.Model(it.Supply).Update("active", true).Error
	case KindElectrical:
		return s.db.Model(it.Electrical).Updates(map[string]interface{}{
			"active":               true,
			"status":               StatusAvailable,
			"current_site_id":      nil,
			"current_custodian_id": nil,
		}).Error
	case KindManual:
		return s.db.Model(it.Manual).Updates(map[string]interface{}{
			"active":               true,
			"status":               StatusAvailable,
			"current_site_id":      nil,
			"current_custodian_id": nil,
		}).Error
	}
	return fmt.Errorf("unknown item kind '%s'", kind)
}
