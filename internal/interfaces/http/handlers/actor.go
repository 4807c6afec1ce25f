// internal/interfaces/http/handlers/actor.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/sitestock-backend/internal/config"
	"github.com/your-org/sitestock-backend/internal/domain/actor"
	"gorm.io/gorm"
)

// ActorHandler handles site and custodian endpoints
type ActorHandler struct {
	actorService *actor.Service
	config       *config.Config
}

// NewActorHandler creates a new actor handler
func NewActorHandler(db *gorm.DB, cfg *config.Config) *ActorHandler {
	return &ActorHandler{
		actorService: actor.NewService(db, cfg),
		config:       cfg,
	}
}

// ListSites handles GET /sites
func (h *ActorHandler) ListSites(c *gin.Context) {
	sites, err := h.actorService.ListActiveSites()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve sites",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sites retrieved successfully",
		"data":    sites,
	})
}

// GetSite handles GET /sites/:id
func (h *ActorHandler) GetSite(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	site, err := h.actorService.GetSite(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Site not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Site retrieved successfully",
		"data":    site,
	})
}

// CreateSite handles POST /admin/sites
func (h *ActorHandler) CreateSite(c *gin.Context) {
	var req actor.CreateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	site, err := h.actorService.CreateSite(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Site created successfully",
		"data":    site,
	})
}

// DeactivateSite handles DELETE /admin/sites/:id
func (h *ActorHandler) DeactivateSite(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.actorService.DeactivateSite(id); err != nil {
		if errors.Is(err, actor.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Site not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to deactivate site",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Site deactivated successfully",
	})
}

// ListCustodians handles GET /custodians
func (h *ActorHandler) ListCustodians(c *gin.Context) {
	custodians, err := h.actorService.ListActiveCustodians()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve custodians",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Custodians retrieved successfully",
		"data":    custodians,
	})
}

// GetCustodian handles GET /custodians/:id
func (h *ActorHandler) GetCustodian(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	custodian, err := h.actorService.GetCustodian(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Custodian not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Custodian retrieved successfully",
		"data":    custodian,
	})
}

// CreateCustodian handles POST /admin/custodians
func (h *ActorHandler) CreateCustodian(c *gin.Context) {
	var req actor.CreateCustodianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	custodian, err := h.actorService.CreateCustodian(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Custodian created successfully",
		"data":    custodian,
	})
}

// DeactivateCustodian handles DELETE /admin/custodians/:id
func (h *ActorHandler) DeactivateCustodian(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.actorService.DeactivateCustodian(id); err != nil {
		if errors.Is(err, actor.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Custodian not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to deactivate custodian",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Custodian deactivated successfully",
	})
}

// parseID parses the :id path parameter.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid ID",
		})
		return 0, false
	}
	return uint(id), true
}
