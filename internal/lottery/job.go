package lottery

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// SweepJob runs the periodic expired-pending-close sweep.
type SweepJob struct {
	service *Service
	logger  *slog.Logger
}

// NewSweepJob constructs the job handler.
func NewSweepJob(service *Service, logger *slog.Logger) *SweepJob {
	return &SweepJob{service: service, logger: logger}
}

// Handle fulfils the asynq.HandlerFunc contract.
func (j *SweepJob) Handle(ctx context.Context, _ *asynq.Task) error {
	reverted, err := j.service.SweepExpired(ctx)
	if err != nil {
		if j.logger != nil {
			j.logger.Error("expiry sweep", slog.Any("error", err))
		}
		return err
	}
	if j.logger != nil && reverted > 0 {
		j.logger.Info("expiry sweep reverted pending closes", slog.Int64("reverted", reverted))
	}
	return nil
}
