package services

import "errors"

// Sentinel errors for deterministic refusals. Controllers map these onto HTTP
// statuses; anything else is a backend failure and surfaces as a 500.
var (
	ErrInsufficientBalance  = errors.New("insufficient points balance")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrRewardAlreadyClaimed = errors.New("daily reward already claimed today")
	ErrTaskNotFound         = errors.New("task not found or inactive")
	ErrTaskAlreadyCompleted = errors.New("task already completed today")
	ErrImageNotFound        = errors.New("image not found")
	ErrNotOwner             = errors.New("only the owner may modify this image")
	ErrInvalidPointsRange   = errors.New("points_required out of range")
)
