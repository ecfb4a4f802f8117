package runs

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrEnqueue    = errors.New("enqueue run")
)

const (
	ErrorCodeValidation  = "VALIDATION_ERROR"
	ErrorCodeJobFailed   = "JOB_FAILED"
	ErrorCodePollTimeout = "POLL_TIMEOUT"
	ErrorCodeStorage     = "STORAGE_ERROR"
	ErrorCodeService     = "SERVICE_ERROR"
	ErrorCodeInternal    = "INTERNAL_ERROR"
)
