package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidPipeline     = errors.New("invalid pipeline")
	ErrInvalidItemConfig   = errors.New("invalid item config")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrAlreadyRefunded     = errors.New("job already refunded")
	ErrRefundExceedsSpend  = errors.New("refund exceeds credits spent")
	ErrJobNotFailed        = errors.New("job is not in a failed state")
	ErrProviderFailure     = errors.New("provider failure")
	ErrExecutionNotFound   = errors.New("pipeline execution not found")
)
