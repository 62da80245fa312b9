package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// SchedulerService runs the periodic enrollment-opening sweep.
type SchedulerService interface {
	Start(interval time.Duration) error
	Stop() error
}

type schedulerService struct {
	tournamentService TournamentService
	scheduler         gocron.Scheduler
	logger            *slog.Logger
}

func NewSchedulerService(tournamentService TournamentService, logger *slog.Logger) (SchedulerService, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &schedulerService{
		tournamentService: tournamentService,
		scheduler:         scheduler,
		logger:            logger,
	}, nil
}

func (s *schedulerService) Start(interval time.Duration) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			opened, err := s.tournamentService.OpenDueEnrollments(ctx)
			if err != nil {
				s.logger.Error("enrollment sweep failed", slog.String("error", err.Error()))
				return
			}
			if opened > 0 {
				s.logger.Info("enrollment opened by scheduler", slog.Int("count", opened))
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to register enrollment sweep job: %w", err)
	}

	s.scheduler.Start()
	s.logger.Info("scheduler started", slog.Duration("interval", interval))
	return nil
}

func (s *schedulerService) Stop() error {
	return s.scheduler.Shutdown()
}
