package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portsrepo "github.com/propfolio/recon_backend/internal/core/ports/repositories"
	"github.com/propfolio/recon_backend/internal/dto"
	"github.com/propfolio/recon_backend/internal/middleware"
)

// configHandler exposes read-only listings of the reconciliation
// configuration. Writes happen through the platform administration surface.
type configHandler struct {
	configRepo portsrepo.ConfigReader
}

func registerConfigRoutes(rg *gin.RouterGroup, configRepo portsrepo.ConfigReader) {
	h := &configHandler{configRepo: configRepo}

	rg.GET("/materiality-configs", h.listMaterialityConfigs)
	rg.GET("/auto-resolution-rules", h.listAutoResolutionRules)
}

func (h *configHandler) listMaterialityConfigs(c *gin.Context) {
	propertyID := c.Query("propertyID")

	snapshot, err := h.configRepo.LoadConfigSnapshot(c.Request.Context(), propertyID)
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to load materiality configs",
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load materiality configs"})
		return
	}

	out := make([]dto.MaterialityConfigResponse, 0, len(snapshot.MaterialityConfigs))
	for _, cfg := range snapshot.MaterialityConfigs {
		out = append(out, dto.ToMaterialityConfigResponse(cfg))
	}
	c.JSON(http.StatusOK, gin.H{"configs": out})
}

func (h *configHandler) listAutoResolutionRules(c *gin.Context) {
	propertyID := c.Query("propertyID")

	snapshot, err := h.configRepo.LoadConfigSnapshot(c.Request.Context(), propertyID)
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to load auto-resolution rules",
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load auto-resolution rules"})
		return
	}

	out := make([]dto.AutoResolutionRuleResponse, 0, len(snapshot.AutoResolutionRules))
	for _, rule := range snapshot.AutoResolutionRules {
		out = append(out, dto.ToAutoResolutionRuleResponse(rule))
	}
	c.JSON(http.StatusOK, gin.H{"rules": out})
}
