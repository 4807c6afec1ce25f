// internal/domain/audit/service.go
package audit

import (
	"fmt"
	"time"

	"github.com/your-org/sitestock-backend/internal/config"
	"gorm.io/gorm"
)

// Service reads and writes audit entries.
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new audit service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// QueryRequest represents audit listing filters
type QueryRequest struct {
	UserID   uint       `form:"user_id"`
	Module   string     `form:"module"`
	Action   string     `form:"action"`
	TargetID uint       `form:"target_id"`
	From     *time.Time `form:"from" time_format:"2006-01-02"`
	To       *time.Time `form:"to" time_format:"2006-01-02"`
	Page     int        `form:"page,default=1"`
	PageSize int        `form:"page_size,default=20"`
}

// QueryResponse is a paginated audit listing
type QueryResponse struct {
	Items    []Entry `json:"items"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Total    int64   `json:"total"`
}

// Record appends an audit entry in its own short transaction. Entries that
// must be atomic with a movement go through the movement store instead.
func (s *Service) Record(entry *Entry) error {
	if entry.HappenedAt.IsZero() {
		entry.HappenedAt = time.Now().UTC()
	}
	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// Query lists audit entries by user, module, target and time range
func (s *Service) Query(req *QueryRequest) (*QueryResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	query := s.db.Model(&Entry{})
	if req.UserID != 0 {
		query = query.Where("user_id = ?", req.UserID)
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action = ?", req.Action)
	}
	if req.TargetID != 0 {
		query = query.Where("target_id = ?", req.TargetID)
	}
	if req.From != nil {
		query = query.Where("happened_at >= ?", *req.From)
	}
	if req.To != nil {
		query = query.Where("happened_at < ?", req.To.AddDate(0, 0, 1))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count audit entries: %w", err)
	}

	var entries []Entry
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("happened_at DESC").Offset(offset).Limit(req.PageSize).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}

	return &QueryResponse{Items: entries, Page: req.Page, PageSize: req.PageSize, Total: total}, nil
}
