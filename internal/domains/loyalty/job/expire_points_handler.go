package job

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"wiwihood-backend/internal/domains/loyalty/service"
	"wiwihood-backend/internal/shared/utils"
)

// ExpirePointsPayload optionally pins the expiry cutoff; a zero Date
// means "now". The scheduler enqueues this with an empty payload.
type ExpirePointsPayload struct {
	Date time.Time `json:"date,omitempty"`
}

type ExpirePointsHandler struct {
	loyaltyService service.LoyaltyService
}

func NewExpirePointsHandler(loyaltyService service.LoyaltyService) *ExpirePointsHandler {
	return &ExpirePointsHandler{
		loyaltyService: loyaltyService,
	}
}

func (h *ExpirePointsHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload ExpirePointsPayload
	if err := utils.UnmarshalTask(task, &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal expire points payload")
		return err
	}

	asOf := time.Now()
	if !payload.Date.IsZero() {
		asOf = payload.Date
	}

	log.Info().Time("as_of", asOf).Msg("Starting loyalty points expiry")

	expired, err := h.loyaltyService.ExpirePoints(ctx, asOf)
	if err != nil {
		log.Error().Err(err).Int("expired", expired).Msg("Points expiry failed")
		return err
	}

	log.Info().Int("expired", expired).Msg("Loyalty points expiry finished")
	return nil
}
