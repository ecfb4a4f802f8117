package pipeline

import "errors"

var ErrJobFailed = errors.New("data automation job failed")
