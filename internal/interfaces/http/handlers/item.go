// internal/interfaces/http/handlers/item.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/sitestock-backend/internal/config"
	"github.com/your-org/sitestock-backend/internal/domain/audit"
	"github.com/your-org/sitestock-backend/internal/domain/item"
	"gorm.io/gorm"
)

// ItemHandler handles item registry endpoints
type ItemHandler struct {
	itemService  *item.Service
	auditService *audit.Service
	config       *config.Config
}

// NewItemHandler creates a new item handler
func NewItemHandler(db *gorm.DB, cfg *config.Config) *ItemHandler {
	return &ItemHandler{
		itemService:  item.NewService(db, cfg),
		auditService: audit.NewService(db, cfg),
		config:       cfg,
	}
}

// CreateSupply handles POST /admin/items/supply
func (h *ItemHandler) CreateSupply(c *gin.Context) {
	var req item.CreateSupplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	userID := c.GetUint("user_id")
	supply, err := h.itemService.CreateSupply(&req, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	h.recordAudit(userID, audit.ActionItemCreated, item.KindSupply, supply.ID, supply)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Supply created successfully",
		"data":    supply,
	})
}

// CreateElectrical handles POST /admin/items/electrical
func (h *ItemHandler) CreateElectrical(c *gin.Context) {
	var req item.CreateElectricalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	userID := c.GetUint("user_id")
	equipment, err := h.itemService.CreateElectrical(&req, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	h.recordAudit(userID, audit.ActionItemCreated, item.KindElectrical, equipment.ID, equipment)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Electrical equipment created successfully",
		"data":    equipment,
	})
}

// CreateManual handles POST /admin/items/manual
func (h *ItemHandler) CreateManual(c *gin.Context) {
	var req item.CreateManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	userID := c.GetUint("user_id")
	tool, err := h.itemService.CreateManual(&req, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	h.recordAudit(userID, audit.ActionItemCreated, item.KindManual, tool.ID, tool)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Manual tool created successfully",
		"data":    tool,
	})
}

// GetItem handles GET /items/:kind/:id
func (h *ItemHandler) GetItem(c *gin.Context) {
	kind, id, ok := h.itemParams(c)
	if !ok {
		return
	}

	it, err := h.itemService.GetItem(kind, id)
	if err != nil {
		if errors.Is(err, item.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Item not found",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item retrieved successfully",
		"data":    itemPayload(it),
	})
}

// ListItems handles GET /items/:kind
func (h *ItemHandler) ListItems(c *gin.Context) {
	kind := item.Kind(c.Param("kind"))
	if !item.ValidKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item kind",
		})
		return
	}

	var req item.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	var resp *item.ListResponse
	var err error
	switch kind {
	case item.KindSupply:
		resp, err = h.itemService.ListSupplies(&req)
	case item.KindElectrical:
		resp, err = h.itemService.ListElectrical(&req)
	default:
		resp, err = h.itemService.ListManual(&req)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list items",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Items retrieved successfully",
		"data":    resp,
	})
}

// UpdateItem handles PUT /admin/items/:kind/:id
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	kind, id, ok := h.itemParams(c)
	if !ok {
		return
	}

	var req item.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	updated, err := h.itemService.UpdateItem(kind, id, &req)
	if err != nil {
		if errors.Is(err, item.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Item not found",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	h.recordAudit(c.GetUint("user_id"), audit.ActionItemUpdated, kind, id, itemPayload(updated))

	c.JSON(http.StatusOK, gin.H{
		"message": "Item updated successfully",
		"data":    itemPayload(updated),
	})
}

// DeactivateItem handles DELETE /admin/items/:kind/:id
func (h *ItemHandler) DeactivateItem(c *gin.Context) {
	kind, id, ok := h.itemParams(c)
	if !ok {
		return
	}

	if err := h.itemService.DeactivateItem(kind, id); err != nil {
		if errors.Is(err, item.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Item not found",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	h.recordAudit(c.GetUint("user_id"), audit.ActionItemDeactivated, kind, id, nil)

	c.JSON(http.StatusOK, gin.H{
		"message": "Item deactivated successfully",
	})
}

// ReactivateItem handles POST /admin/items/:kind/:id/reactivate
func (h *ItemHandler) ReactivateItem(c *gin.Context) {
	kind, id, ok := h.itemParams(c)
	if !ok {
		return
	}

	if err := h.itemService.ReactivateItem(kind, id); err != nil {
		if errors.Is(err, item.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Item not found",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	h.recordAudit(c.GetUint("user_id"), audit.ActionItemReactivated, kind, id, nil)

	c.JSON(http.StatusOK, gin.H{
		"message": "Item reactivated successfully",
	})
}

// itemParams parses and validates the :kind and :id path parameters.
func (h *ItemHandler) itemParams(c *gin.Context) (item.Kind, uint, bool) {
	kind := item.Kind(c.Param("kind"))
	if !item.ValidKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item kind",
		})
		return "", 0, false
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item ID",
		})
		return "", 0, false
	}

	return kind, uint(id), true
}

// itemPayload unwraps the tagged variant for the response body.
func itemPayload(it *item.Item) interface{} {
	switch it.Kind {
	case item.KindSupply:
		return it.Supply
	case item.KindElectrical:
		return it.Electrical
	default:
		return it.Manual
	}
}

func (h *ItemHandler) recordAudit(userID uint, action audit.Action, kind item.Kind, targetID uint, after interface{}) {
	_ = h.auditService.Record(&audit.Entry{
		UserID:     userID,
		Action:     action,
		Module:     "items",
		TargetKind: string(kind),
		TargetID:   targetID,
		AfterJSON:  audit.MarshalSnapshot(after),
	})
}
