package bda

import "errors"

var (
	ErrBlueprintNotFound = errors.New("blueprint not found")
	ErrProjectNotFound   = errors.New("project not found")
	ErrInvalidLocation   = errors.New("invalid storage location")
	ErrInvalidProfile    = errors.New("invalid data automation profile")
	ErrPollTimeout       = errors.New("job status polling timed out")
)
