package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	portsrepo "github.com/propfolio/recon_backend/internal/core/ports/repositories"
	"github.com/propfolio/recon_backend/internal/core/services"
)

// RegisterHandlers wires every route group under the API version group.
func RegisterHandlers(v1 *gin.RouterGroup, container *services.ServicesContainer, repos portsrepo.RepositoryProvider) {
	registerReconciliationRoutes(v1, container.Reconciliation, container.Batch)
	registerDiscrepancyRoutes(v1, container.Reconciliation)
	registerConfigRoutes(v1, repos.ConfigRepo)
}

// GetHome is a trivial health endpoint.
func GetHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "recon_backend"})
}
