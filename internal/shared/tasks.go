package shared

// Asynq task type identifiers shared between the scheduler, the worker
// and the domain job handlers.
const (
	TypeExpireLoyaltyPoints  = "loyalty:expire_points"
	TypeSweepPromotionStatus = "promotion:sweep_status"
)

// Queue names
const (
	QueueHigh    = "high"
	QueueDefault = "default"
	QueueLow     = "low"
)
