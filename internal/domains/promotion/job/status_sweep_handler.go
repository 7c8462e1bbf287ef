package job

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"wiwihood-backend/internal/domains/promotion/service"
	"wiwihood-backend/internal/shared/utils"
)

// StatusSweepPayload is empty today; kept as a struct so the payload
// can grow without changing the task contract.
type StatusSweepPayload struct{}

type StatusSweepHandler struct {
	promotionService service.PromotionService
}

func NewStatusSweepHandler(promotionService service.PromotionService) *StatusSweepHandler {
	return &StatusSweepHandler{
		promotionService: promotionService,
	}
}

func (h *StatusSweepHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload StatusSweepPayload
	if err := utils.UnmarshalTask(task, &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal status sweep payload")
		return err
	}

	activated, expired, err := h.promotionService.SweepStatuses(ctx, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("Promotion status sweep failed")
		return err
	}

	log.Info().
		Int64("activated", activated).
		Int64("expired", expired).
		Msg("Promotion status sweep finished")
	return nil
}
