package model

import "errors"

var (
	ErrAccountNotFound     = errors.New("loyalty account not found")
	ErrAccountExists       = errors.New("loyalty account already exists")
	ErrRewardNotFound      = errors.New("reward not found")
	ErrRewardInactive      = errors.New("reward is not active")
	ErrInsufficientPoints  = errors.New("insufficient points")
	ErrTierTooLow          = errors.New("tier requirement not met")
	ErrPointsMismatch      = errors.New("points must exactly match the reward cost")
	ErrInvalidPointsAmount = errors.New("points amount must be positive")
)
