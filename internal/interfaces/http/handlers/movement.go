// internal/interfaces/http/handlers/movement.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/sitestock-backend/internal/config"
	"github.com/your-org/sitestock-backend/internal/domain/item"
	"github.com/your-org/sitestock-backend/internal/domain/movement"
	"github.com/your-org/sitestock-backend/internal/infrastructure/database/postgres"
	"gorm.io/gorm"
)

// MovementHandler handles ledger endpoints. Submissions and cancellations
// go through the movement engine; reads go straight to the store.
type MovementHandler struct {
	engine *movement.Engine
	store  *postgres.MovementStore
	config *config.Config
}

// NewMovementHandler creates a new movement handler
func NewMovementHandler(db *gorm.DB, cfg *config.Config) *MovementHandler {
	store := postgres.NewMovementStore(db)

	logger := logrus.New()
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}

	return &MovementHandler{
		engine: movement.NewEngine(store, cfg, logger),
		store:  store,
		config: cfg,
	}
}

// movementListQuery carries the ledger listing filters.
type movementListQuery struct {
	ItemKind    item.Kind     `form:"item_kind"`
	ItemID      uint          `form:"item_id"`
	Kind        movement.Kind `form:"kind"`
	From        *time.Time    `form:"from" time_format:"2006-01-02"`
	To          *time.Time    `form:"to" time_format:"2006-01-02"`
	SiteID      uint          `form:"site_id"`
	CustodianID uint          `form:"custodian_id"`
	Search      string        `form:"q"`
	Page        int           `form:"page,default=1"`
	PageSize    int           `form:"page_size,default=20"`
}

// Submit handles POST /movements
func (h *MovementHandler) Submit(c *gin.Context) {
	var req movement.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"reason": movement.ReasonMalformedRequest,
			"detail": gin.H{"binding": err.Error()},
		})
		return
	}

	userID := c.GetUint("user_id")
	mv, err := h.engine.Submit(c.Request.Context(), &req, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Movement committed successfully",
		"data":    mv,
	})
}

// Cancel handles POST /movements/:id/cancel
func (h *MovementHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	userID := c.GetUint("user_id")
	comp, err := h.engine.Cancel(c.Request.Context(), id, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Movement cancelled successfully",
		"data":    comp,
	})
}

// List handles GET /movements
func (h *MovementHandler) List(c *gin.Context) {
	var q movementListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}

	filter := movement.QueryFilter{
		ItemKind:    q.ItemKind,
		ItemID:      q.ItemID,
		Kind:        q.Kind,
		From:        q.From,
		To:          q.To,
		SiteID:      q.SiteID,
		CustodianID: q.CustodianID,
		Search:      q.Search,
		Offset:      (q.Page - 1) * q.PageSize,
		Limit:       q.PageSize,
	}
	if filter.To != nil {
		end := filter.To.AddDate(0, 0, 1)
		filter.To = &end
	}

	movements, total, err := h.store.Query(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Movements retrieved successfully",
		"data": gin.H{
			"items":     movements,
			"page":      q.Page,
			"page_size": q.PageSize,
			"total":     total,
		},
	})
}

// respondError maps engine errors onto HTTP statuses. Rejections keep their
// structured reason and detail; storage faults are a 503.
func (h *MovementHandler) respondError(c *gin.Context, err error) {
	if rej, ok := movement.AsRejection(err); ok {
		c.JSON(rejectionStatus(rej.Reason), gin.H{
			"reason": rej.Reason,
			"detail": rej.Detail,
		})
		return
	}

	if errors.Is(err, movement.ErrStorageUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Storage unavailable",
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Internal server error",
	})
}

func rejectionStatus(reason movement.Reason) int {
	switch reason {
	case movement.ReasonMalformedRequest:
		return http.StatusUnprocessableEntity
	case movement.ReasonUnknownItem, movement.ReasonUnknownActor, movement.ReasonUnknownMovement:
		return http.StatusNotFound
	default:
		// Business-state refusals: stock, placement, duplicates, races.
		return http.StatusConflict
	}
}
