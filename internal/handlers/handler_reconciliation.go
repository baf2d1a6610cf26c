package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/propfolio/recon_backend/internal/apperrors"
	portssvc "github.com/propfolio/recon_backend/internal/core/ports/services"
	"github.com/propfolio/recon_backend/internal/dto"
	"github.com/propfolio/recon_backend/internal/middleware"
)

// reconciliationHandler handles HTTP requests to run and inspect
// reconciliation sessions.
type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationSvc
	batchService          portssvc.BatchSvc
}

func newReconciliationHandler(rs portssvc.ReconciliationSvc, bs portssvc.BatchSvc) *reconciliationHandler {
	return &reconciliationHandler{reconciliationService: rs, batchService: bs}
}

func registerReconciliationRoutes(rg *gin.RouterGroup, rs portssvc.ReconciliationSvc, bs portssvc.BatchSvc) {
	h := newReconciliationHandler(rs, bs)

	reconciliation := rg.Group("/reconciliation")
	{
		reconciliation.POST("/sessions", h.runSession)
		reconciliation.POST("/batch", h.runBatch)
		reconciliation.GET("/sessions/:sessionID", h.getSession)
		reconciliation.GET("/sessions/:sessionID/discrepancies", h.listDiscrepancies)
	}
}

func (h *reconciliationHandler) runSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RunSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RunSession", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)

	result, err := h.reconciliationService.RunSession(c.Request.Context(), req.PropertyID, req.Period.ToDomain(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionFailed) {
			logger.Error("Reconciliation session failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Unexpected error running session", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run reconciliation session"})
		return
	}
	c.JSON(http.StatusCreated, dto.ToSessionResultResponse(result))
}

func (h *reconciliationHandler) runBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RunBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RunBatch", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)

	result, err := h.batchService.RunBatch(c.Request.Context(), req.ToBatchRequests(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Batch reconciliation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run batch"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *reconciliationHandler) getSession(c *gin.Context) {
	sessionID := c.Param("sessionID")

	result, err := h.reconciliationService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to fetch session",
			slog.String("session_id", sessionID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch session"})
		return
	}
	c.JSON(http.StatusOK, dto.ToSessionResultResponse(result))
}

func (h *reconciliationHandler) listDiscrepancies(c *gin.Context) {
	sessionID := c.Param("sessionID")
	tier := c.Query("tier")

	discrepancies, err := h.reconciliationService.ListDiscrepancies(c.Request.Context(), sessionID, parseTier(tier))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list discrepancies"})
		return
	}

	out := make([]dto.DiscrepancyResponse, 0, len(discrepancies))
	for _, d := range discrepancies {
		out = append(out, dto.ToDiscrepancyResponse(d))
	}
	c.JSON(http.StatusOK, gin.H{"discrepancies": out})
}
