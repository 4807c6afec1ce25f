// internal/domain/actor/service.go
package actor

import (
	"errors"
	"fmt"

	"github.com/your-org/sitestock-backend/internal/config"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no site or custodian matches the given id.
var ErrNotFound = errors.New("actor not found")

// Service handles site and custodian lookups. The movement engine consumes
// this registry read-only.
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new actor service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateSiteRequest represents site registration data
type CreateSiteRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

// CreateCustodianRequest represents custodian registration data
type CreateCustodianRequest struct {
	Code  string `json:"code" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Role  string `json:"role"`
	Phone string `json:"phone"`
}

// GetSite retrieves a site by id
func (s *Service) GetSite(id uint) (*Site, error) {
	var site Site
	if err := s.db.First(&site, id).Error; err != nil {
		return nil, ErrNotFound
	}
	return &site, nil
}

// GetCustodian retrieves a custodian by id
func (s *Service) GetCustodian(id uint) (*Custodian, error) {
	var custodian Custodian
	if err := s.db.First(&custodian, id).Error; err != nil {
		return nil, ErrNotFound
	}
	return &custodian, nil
}

// ListActiveSites retrieves all active sites ordered by name
func (s *Service) ListActiveSites() ([]Site, error) {
	var sites []Site
	if err := s.db.Where("active = ?", true).Order("name ASC").Find(&sites).Error; err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	return sites, nil
}

// ListActiveCustodians retrieves all active custodians ordered by name
func (s *Service) ListActiveCustodians() ([]Custodian, error) {
	var custodians []Custodian
	if err := s.db.Where("active = ?", true).Order("name ASC").Find(&custodians).Error; err != nil {
		return nil, fmt.Errorf("failed to list custodians: %w", err)
	}
	return custodians, nil
}

// CreateSite registers a new site
func (s *Service) CreateSite(req *CreateSiteRequest) (*Site, error) {
	var existing Site
	if err := s.db.Where("code = ?", req.Code).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("site with code '%s' already exists", req.Code)
	}

	site := &Site{
		Code:    req.Code,
		Name:    req.Name,
		Address: req.Address,
		Active:  true,
	}
	if err := s.db.Create(site).Error; err != nil {
		return nil, fmt.Errorf("failed to create site: %w", err)
	}
	return site, nil
}

// CreateCustodian registers a new custodian
func (s *Service) CreateCustodian(req *CreateCustodianRequest) (*Custodian, error) {
	var existing Custodian
	if err := s.db.Where("code = ?", req.Code).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("custodian with code '%s' already exists", req.Code)
	}

	custodian := &Custodian{
		Code:   req.Code,
		Name:   req.Name,
		Role:   req.Role,
		Phone:  req.Phone,
		Active: true,
	}
	if err := s.db.Create(custodian).Error; err != nil {
		return nil, fmt.Errorf("failed to create custodian: %w", err)
	}
	return custodian, nil
}

// DeactivateSite marks a site inactive
func (s *Service) DeactivateSite(id uint) error {
	site, err := s.GetSite(id)
	if err != nil {
		return err
	}
	return s.db.Model(site).Update("active", false).Error
}

// DeactivateCustodian marks a custodian inactive
func (s *Service) DeactivateCustodian(id uint) error {
	custodian, err := s.GetCustodian(id)
	if err != nil {
		return err
	}
	return s.db.Model(custodian).Update("active", false).Error
}
