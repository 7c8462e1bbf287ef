package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"wiwihood-backend/internal/config"
	loyaltyJob "wiwihood-backend/internal/domains/loyalty/job"
	promotionJob "wiwihood-backend/internal/domains/promotion/job"
	"wiwihood-backend/internal/shared"
	"wiwihood-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redisAddress string, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddress},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

func (s *Scheduler) RegisterJobs() error {
	if err := s.registerExpireLoyaltyPointsJob(); err != nil {
		return err
	}

	if err := s.registerSweepPromotionStatusJob(); err != nil {
		return err
	}

	return nil
}

// ================================================
// JOB 1: Expire Loyalty Points (daily, default 3 AM UTC)
// ================================================
// Runs once a day: point validity is measured in days, so a tighter
// cadence would only re-scan rows the NOT EXISTS filter already skips.
func (s *Scheduler) registerExpireLoyaltyPointsJob() error {
	payload, err := json.Marshal(loyaltyJob.ExpirePointsPayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeExpireLoyaltyPoints, payload)

	_, err = s.scheduler.Register(
		s.jobConfig.ExpirePointsCron,
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(2),
		asynq.Timeout(10*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register ExpireLoyaltyPoints job", err)
		return err
	}

	logger.Info("✓ Registered ExpireLoyaltyPoints", map[string]interface{}{
		"cron": s.jobConfig.ExpirePointsCron,
	})
	return nil
}

// ================================================
// JOB 2: Sweep Promotion Statuses (default every 15 minutes)
// ================================================
// Frequent enough that a scheduled campaign opens within minutes of
// its start date. Validation re-checks the window on every request,
// so a late sweep never lets an expired code through.
func (s *Scheduler) registerSweepPromotionStatusJob() error {
	payload, err := json.Marshal(promotionJob.StatusSweepPayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeSweepPromotionStatus, payload)

	_, err = s.scheduler.Register(
		s.jobConfig.PromotionStatusSweepCron,
		task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(2),
		asynq.Timeout(5*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register SweepPromotionStatus job", err)
		return err
	}

	logger.Info("✓ Registered SweepPromotionStatus", map[string]interface{}{
		"cron": s.jobConfig.PromotionStatusSweepCron,
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
