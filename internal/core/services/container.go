package services

import (
	portsrepo "github.com/propfolio/recon_backend/internal/core/ports/repositories"
	portssvc "github.com/propfolio/recon_backend/internal/core/ports/services"
	"github.com/propfolio/recon_backend/internal/matching"
	"github.com/shopspring/decimal"
)

// ServicesContainer holds every service the handlers depend on.
type ServicesContainer struct {
	Reconciliation portssvc.ReconciliationSvc
	Batch          portssvc.BatchSvc
	Materiality    portssvc.MaterialityResolverSvc
	Classifier     portssvc.TierClassifierSvc
	AutoResolution portssvc.AutoResolutionSvc
}

// ContainerOptions are the engine tunables lifted from configuration.
type ContainerOptions struct {
	Params             matching.Params
	MinMatchConfidence decimal.Decimal
	BatchMaxParallel   int
}

// NewServicesContainer wires the service graph.
func NewServicesContainer(
	recordRepo portsrepo.RecordReader,
	configRepo portsrepo.ConfigReader,
	sessionRepo portsrepo.SessionRepository,
	opts ContainerOptions,
) *ServicesContainer {
	materiality := NewMaterialityResolver()
	classifier := NewTierClassifier()
	autoRes := NewAutoResolutionEngine()
	reconciliation := NewReconciliationService(
		recordRepo, configRepo, sessionRepo,
		materiality, classifier, autoRes,
		opts.Params, opts.MinMatchConfidence,
	)
	return &ServicesContainer{
		Reconciliation: reconciliation,
		Batch:          NewBatchService(reconciliation, opts.BatchMaxParallel),
		Materiality:    materiality,
		Classifier:     classifier,
		AutoResolution: autoRes,
	}
}
