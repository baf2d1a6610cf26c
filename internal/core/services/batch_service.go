package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/propfolio/recon_backend/internal/apperrors"
	portssvc "github.com/propfolio/recon_backend/internal/core/ports/services"
	"github.com/propfolio/recon_backend/internal/middleware"
)

// batchServiceImpl fans out independent reconciliation sessions. Sessions
// share no mutable state and touch disjoint (property, period) rows, so they
// run concurrently on a bounded worker pool. One session's failure is
// logged and counted; the batch proceeds.
type batchServiceImpl struct {
	BaseService
	reconciliation portssvc.ReconciliationSvc
	maxParallel    int
}

// NewBatchService creates the batch reprocessing service.
func NewBatchService(reconciliation portssvc.ReconciliationSvc, maxParallel int) portssvc.BatchSvc {
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &batchServiceImpl{reconciliation: reconciliation, maxParallel: maxParallel}
}

var _ portssvc.BatchSvc = (*batchServiceImpl)(nil)

func (s *batchServiceImpl) RunBatch(ctx context.Context, requests []portssvc.BatchRequest, userID string) (*portssvc.BatchResult, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("%w: batch contains no sessions", apperrors.ErrValidation)
	}

	// Duplicate (property, period) pairs would race on the same rows;
	// later duplicates are skipped and counted.
	seen := make(map[string]bool, len(requests))
	outcomes := make([]portssvc.BatchOutcome, len(requests))
	skipped := 0
	type job struct {
		index int
		req   portssvc.BatchRequest
	}
	var jobs []job
	for i, req := range requests {
		key := req.PropertyID + "|" + req.Period.String()
		if seen[key] {
			outcomes[i] = portssvc.BatchOutcome{PropertyID: req.PropertyID, Period: req.Period, Error: "duplicate of an earlier batch entry"}
			skipped++
			continue
		}
		seen[key] = true
		jobs = append(jobs, job{index: i, req: req})
	}

	baseLogger := s.GetLogger(ctx)
	var (
		mu                 sync.Mutex
		wg                 sync.WaitGroup
		succeeded, failed  int
		totalMatches       int
		totalDiscrepancies int
	)
	sem := make(chan struct{}, s.maxParallel)

	for _, j := range jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			sessionLogger := baseLogger.With(
				slog.String("property_id", j.req.PropertyID),
				slog.String("period", j.req.Period.String()),
			)
			sessionCtx := middleware.ContextWithLogger(ctx, sessionLogger)

			result, err := s.reconciliation.RunSession(sessionCtx, j.req.PropertyID, j.req.Period, userID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				sessionLogger.Error("Batch session failed", slog.String("error", err.Error()))
				outcomes[j.index] = portssvc.BatchOutcome{PropertyID: j.req.PropertyID, Period: j.req.Period, Error: err.Error()}
				failed++
				return
			}
			outcomes[j.index] = portssvc.BatchOutcome{PropertyID: j.req.PropertyID, Period: j.req.Period, SessionID: result.Session.SessionID}
			succeeded++
			totalMatches += result.MatchesFound
			totalDiscrepancies += result.DiscrepanciesFound
		}(j)
	}
	wg.Wait()

	s.LogInfo(ctx, "Batch reconciliation completed",
		slog.Int("succeeded", succeeded),
		slog.Int("failed", failed),
		slog.Int("skipped", skipped),
	)
	return &portssvc.BatchResult{
		Succeeded:          succeeded,
		Failed:             failed,
		Skipped:            skipped,
		TotalMatches:       totalMatches,
		TotalDiscrepancies: totalDiscrepancies,
		Outcomes:           outcomes,
	}, nil
}
