package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/propfolio/recon_backend/internal/apperrors"
	"github.com/propfolio/recon_backend/internal/core/domain"
	portssvc "github.com/propfolio/recon_backend/internal/core/ports/services"
	"github.com/propfolio/recon_backend/internal/dto"
	"github.com/propfolio/recon_backend/internal/middleware"
)

// discrepancyHandler exposes the governance hand-off surface: status
// transitions on persisted discrepancies.
type discrepancyHandler struct {
	reconciliationService portssvc.ReconciliationSvc
}

func registerDiscrepancyRoutes(rg *gin.RouterGroup, rs portssvc.ReconciliationSvc) {
	h := &discrepancyHandler{reconciliationService: rs}

	discrepancies := rg.Group("/discrepancies")
	{
		discrepancies.POST("/:discrepancyID/resolve", h.resolveDiscrepancy)
	}
}

func (h *discrepancyHandler) resolveDiscrepancy(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	discrepancyID := c.Param("discrepancyID")

	var req dto.ResolveDiscrepancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ResolveDiscrepancy", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)

	err := h.reconciliationService.ResolveDiscrepancy(c.Request.Context(), discrepancyID, domain.ResolutionStatus(req.Status), userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Discrepancy not found"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to resolve discrepancy",
				slog.String("discrepancy_id", discrepancyID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve discrepancy"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

// parseTier maps a query value to an exception tier; unknown values mean
// "no filter".
func parseTier(raw string) domain.ExceptionTier {
	switch domain.ExceptionTier(raw) {
	case domain.Tier0AutoClose, domain.Tier1AutoSuggest, domain.Tier2Route, domain.Tier3Escalate:
		return domain.ExceptionTier(raw)
	default:
		return ""
	}
}
