package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
)

// OrphanJobs surfaces requests stuck at the supervisor stage with nobody to decide them
type OrphanJobs struct {
	requestRepo absence.RequestRepository
	interval    time.Duration
}

func NewOrphanJobs(requestRepo absence.RequestRepository, interval time.Duration) *OrphanJobs {
	return &OrphanJobs{requestRepo: requestRepo, interval: interval}
}

func (j *OrphanJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("orphaned_requests", j.interval, j.ReportOrphanedRequests)
}

// ReportOrphanedRequests logs every PENDING/SUPERVISOR request whose employee has no supervisor.
func (j *OrphanJobs) ReportOrphanedRequests(ctx context.Context) error {
	_, err := j.FindOrphanedRequests(ctx)
	return err
}

func (j *OrphanJobs) FindOrphanedRequests(ctx context.Context) ([]absence.AbsenceRequest, error) {
	status := absence.StatusPending
	stage := absence.StageSupervisor

	requests, err := j.requestRepo.List(ctx, absence.ListQuery{
		Status:       &status,
		Stage:        &stage,
		NoSupervisor: true,
		OrderBy:      absence.OrderByCreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("list orphaned requests: %w", err)
	}

	for _, r := range requests {
		slog.Warn("Cron: absence request has no supervisor to decide it",
			"request_id", r.ID,
			"employee_id", r.EmployeeID,
			"waiting_since", r.CreatedAt,
		)
	}
	if len(requests) > 0 {
		slog.Info("Cron: orphaned requests found", "count", len(requests))
	}

	return requests, nil
}
