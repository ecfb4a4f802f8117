package bda

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockdataautomationruntime"
	rttypes "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomationruntime/types"
	"golang.org/x/time/rate"

	"bda-pipeline/internal/shared/metrics"
	"bda-pipeline/internal/shared/telemetry"
)

const (
	DefaultPollInterval    = 10 * time.Second
	DefaultPollMaxAttempts = 360
)

type PollerConfig struct {
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
}

// PollResult is the last observed state of an invocation.
type PollResult struct {
	Status       JobStatus
	RemoteStatus string
	OutputURI    string
	ErrorType    string
	ErrorMessage string
	Attempts     int
}

type Poller struct {
	api RuntimeAPI
	cfg PollerConfig
}

// NewPoller builds a poller. A negative interval disables pacing; zero
// selects the default. Polling is always bounded: with neither MaxAttempts
// nor Timeout set, the default attempt budget applies.
func NewPoller(api RuntimeAPI, cfg PollerConfig) *Poller {
	if cfg.Interval == 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.MaxAttempts <= 0 && cfg.Timeout <= 0 {
		cfg.MaxAttempts = DefaultPollMaxAttempts
	}
	return &Poller{api: api, cfg: cfg}
}

// Poll queries the invocation until it reaches a terminal state. The first
// query is immediate; later ones are spaced by the configured interval.
// Running out of attempts or time returns a timed_out result with
// ErrPollTimeout.
func (p *Poller) Poll(ctx context.Context, invocationARN string) (PollResult, error) {
	pollCtx := ctx
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	limit := rate.Inf
	if p.cfg.Interval > 0 {
		limit = rate.Every(p.cfg.Interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	last := PollResult{Status: JobStatusInProgress}
	for attempt := 1; p.cfg.MaxAttempts <= 0 || attempt <= p.cfg.MaxAttempts; attempt++ {
		if err := limiter.Wait(pollCtx); err != nil {
			return p.stopped(ctx, last, err)
		}
		out, err := p.api.GetDataAutomationStatus(pollCtx, &bedrockdataautomationruntime.GetDataAutomationStatusInput{
			InvocationArn: aws.String(invocationARN),
		})
		if err != nil {
			if pollCtx.Err() != nil {
				return p.stopped(ctx, last, err)
			}
			return last, fmt.Errorf("get data automation status: %w", err)
		}
		metrics.IncPollAttempts()

		last = PollResult{
			Status:       MapStatus(out.Status),
			RemoteStatus: string(out.Status),
			ErrorType:    aws.ToString(out.ErrorType),
			ErrorMessage: aws.ToString(out.ErrorMessage),
			Attempts:     attempt,
		}
		if out.OutputConfiguration != nil {
			last.OutputURI = aws.ToString(out.OutputConfiguration.S3Uri)
		}
		if last.Status.Terminal() {
			telemetry.Info("bda.job.finished", map[string]any{
				"invocation_arn": invocationARN,
				"status":         string(last.Status),
				"attempts":       attempt,
			})
			return last, nil
		}
	}

	last.Status = JobStatusTimedOut
	telemetry.Warn("bda.job.poll_exhausted", map[string]any{
		"invocation_arn": invocationARN,
		"attempts":       last.Attempts,
	})
	return last, ErrPollTimeout
}

// stopped decides between caller cancellation and our own deadline.
func (p *Poller) stopped(parent context.Context, last PollResult, cause error) (PollResult, error) {
	if err := parent.Err(); err != nil {
		return last, err
	}
	last.Status = JobStatusTimedOut
	telemetry.Warn("bda.job.poll_timeout", map[string]any{
		"attempts": last.Attempts,
		"timeout":  p.cfg.Timeout.String(),
	})
	return last, fmt.Errorf("%w: %v", ErrPollTimeout, cause)
}

// MapStatus folds the service's job states into the pipeline's.
func MapStatus(s rttypes.AutomationJobStatus) JobStatus {
	switch string(s) {
	case "Success":
		return JobStatusSuccess
	case "ServiceError", "ClientError":
		return JobStatusFailed
	default:
		return JobStatusInProgress
	}
}
