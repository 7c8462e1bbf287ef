package main

import (
	"github.com/hibiken/asynq"

	loyaltyJob "wiwihood-backend/internal/domains/loyalty/job"
	promotionJob "wiwihood-backend/internal/domains/promotion/job"
	"wiwihood-backend/internal/shared"
	"wiwihood-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	expirePoints         *loyaltyJob.ExpirePointsHandler
	promotionStatusSweep *promotionJob.StatusSweepHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		expirePoints:         loyaltyJob.NewExpirePointsHandler(c.LoyaltyService),
		promotionStatusSweep: promotionJob.NewStatusSweepHandler(c.PromotionService),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeExpireLoyaltyPoints, h.expirePoints.ProcessTask)
	mux.HandleFunc(shared.TypeSweepPromotionStatus, h.promotionStatusSweep.ProcessTask)
}
