package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	dailyCardCron  string
	log            *slog.Logger
}

// NewScheduler builds a Scheduler that enqueues the daily card broadcast on
// the provided cron spec.
func NewScheduler(redisOpt asynq.RedisConnOpt, dailyCardCron string, log *slog.Logger) Scheduler {
	if dailyCardCron == "" {
		dailyCardCron = "0 9 * * *"
	}

	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, nil),
		dailyCardCron:  dailyCardCron,
		log:            log,
	}
}

func (s *scheduler) RegisterTasks() error {
	// The payload date is resolved at processing time; the scheduler only
	// needs a stable task to enqueue.
	task, err := NewDailyCardTask(time.Now().UTC().Format("2006-01-02"))
	if err != nil {
		return err
	}

	if _, err := s.asynqScheduler.Register(s.dailyCardCron, task); err != nil {
		return err
	}

	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: registered daily card task", "cron", s.dailyCardCron)
	}

	return nil
}

func (s *scheduler) Run() {
	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: starting")
	}

	go func() {
		if err := s.asynqScheduler.Run(); err != nil && s.log != nil {
			s.log.ErrorContext(context.Background(), "scheduler: run failed", "error", err)
		}
	}()
}

func (s *scheduler) Shutdown() {
	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: shutting down")
	}

	s.asynqScheduler.Shutdown()
}
