package runs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"bda-pipeline/internal/bda"
	"bda-pipeline/internal/export"
	"bda-pipeline/internal/normalize"
	"bda-pipeline/internal/pipeline"
	"bda-pipeline/internal/queue"
	"bda-pipeline/internal/shared/config"
	"bda-pipeline/internal/shared/storage/object"
	"bda-pipeline/internal/shared/telemetry"
)

const messageVersion = 1

// PipelineRunner executes one pipeline run.
type PipelineRunner interface {
	Run(ctx context.Context, cfg pipeline.Config) (pipeline.Result, error)
}

// Service records pipeline runs and drives them to a terminal status.
type Service struct {
	Repo     Repo
	Pipeline PipelineRunner
	JobQueue queue.Client
	Defaults config.BDAConfig
	now      func() time.Time
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// Create stores a queued run and hands it to the queue, or to a background
// goroutine when no queue is configured.
func (s *Service) Create(ctx context.Context, in CreateInput) (Run, error) {
	run, err := s.newRun(ctx, in)
	if err != nil {
		return Run{}, err
	}
	if err := s.Repo.Create(ctx, run); err != nil {
		return Run{}, err
	}
	telemetry.Info("run.status", map[string]any{
		"request_id": run.RequestID,
		"run_id":     run.ID,
		"status":     StatusQueued,
		"input_uri":  run.InputURI,
	})

	if s.JobQueue == nil {
		go func() {
			_ = s.ProcessRun(backgroundWithRequestID(ctx), run.ID)
		}()
		return run, nil
	}

	msg := queue.Message{
		RunID:      run.ID,
		RequestID:  run.RequestID,
		EnqueuedAt: s.clock().Format(time.RFC3339),
		Version:    messageVersion,
	}
	if err := s.JobQueue.Send(ctx, msg); err != nil {
		code := ErrorCodeInternal
		text := sanitizeError(err)
		_ = s.Repo.UpdateStatus(context.Background(), run.ID, StatusFailed, StatusUpdate{ErrorCode: &code, ErrorMessage: &text})
		return Run{}, fmt.Errorf("%w: %v", ErrEnqueue, err)
	}
	return run, nil
}

func (s *Service) newRun(ctx context.Context, in CreateInput) (Run, error) {
	d := s.Defaults
	run := Run{
		ID:            uuid.NewString(),
		RequestID:     requestIDFromContext(ctx),
		Status:        StatusQueued,
		ProjectName:   strings.TrimSpace(in.ProjectName),
		ProjectARN:    strings.TrimSpace(in.ProjectARN),
		BlueprintName: firstNonEmpty(in.BlueprintName, d.BlueprintName),
		InputURI:      firstNonEmpty(in.InputURI, d.InputURI),
		OutputURI:     firstNonEmpty(in.OutputURI, d.OutputURI),
		MediaHint:     config.NormalizeMediaHint(firstNonEmpty(in.MediaHint, d.MediaHint)),
		CreatedAt:     s.clock(),
	}
	// A project named by the caller replaces the configured project as a whole.
	if run.ProjectName == "" && run.ProjectARN == "" {
		run.ProjectName = d.ProjectName
		run.ProjectARN = d.ProjectARN
	}
	format, err := export.ParseFormat(firstNonEmpty(in.ResultFormat, d.ResultFormat))
	if err != nil {
		return Run{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	run.ResultFormat = string(format)

	if run.ProjectName == "" && run.ProjectARN == "" {
		return Run{}, fmt.Errorf("%w: projectName or projectArn is required", ErrValidation)
	}
	loc, err := object.ParseURI(run.InputURI)
	if err != nil || loc.Key == "" {
		return Run{}, fmt.Errorf("%w: inputUri must be s3://bucket/key", ErrValidation)
	}
	if _, err := object.ParseURI(run.OutputURI); err != nil {
		return Run{}, fmt.Errorf("%w: outputUri must be s3://bucket[/prefix]", ErrValidation)
	}
	return run, nil
}

// Get returns a run by ID.
func (s *Service) Get(ctx context.Context, runID string) (Run, error) {
	if strings.TrimSpace(runID) == "" {
		return Run{}, fmt.Errorf("%w: run id is required", ErrValidation)
	}
	return s.Repo.GetByID(ctx, runID)
}

// List returns runs newest-first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Run, error) {
	return s.Repo.List(ctx, limit, offset)
}

// ProcessRun executes a queued run and records its outcome. Runs already in
// a terminal status are left alone so redelivered messages are harmless.
// The returned error is non-nil only when the outcome could not be recorded.
func (s *Service) ProcessRun(ctx context.Context, runID string) (err error) {
	run, err := s.Repo.GetByID(ctx, runID)
	if err != nil {
		return fmt.Errorf("run lookup: %w", err)
	}
	if run.Terminal() {
		telemetry.Info("run.skip_terminal", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"run_id":     runID,
			"status":     run.Status,
		})
		return nil
	}

	startedAt := s.clock()
	if err := s.Repo.UpdateStatus(ctx, runID, StatusProcessing, StatusUpdate{StartedAt: &startedAt}); err != nil {
		return fmt.Errorf("set processing: %w", err)
	}
	telemetry.Info("run.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"run_id":            runID,
		"status":            StatusProcessing,
		"status_transition": run.Status + "->" + StatusProcessing,
	})

	defer func() {
		if r := recover(); r != nil {
			err = s.fail(ctx, runID, pipeline.Result{}, fmt.Errorf("panic: %v", r), startedAt)
		}
	}()

	if s.Pipeline == nil {
		return s.fail(ctx, runID, pipeline.Result{}, errors.New("pipeline not configured"), startedAt)
	}
	cfg, err := s.pipelineConfig(run)
	if err != nil {
		return s.fail(ctx, runID, pipeline.Result{}, fmt.Errorf("%w: %v", ErrValidation, err), startedAt)
	}

	res, runErr := s.Pipeline.Run(ctx, cfg)
	if runErr != nil {
		return s.fail(ctx, runID, res, runErr, startedAt)
	}

	completedAt := s.clock()
	projectARN := res.Project.ARN
	invocationARN := res.Job.InvocationARN
	resultURI := res.ResultURI
	rows := res.Rows
	if err := s.Repo.UpdateStatus(context.Background(), runID, StatusCompleted, StatusUpdate{
		ProjectARN:    &projectARN,
		InvocationARN: &invocationARN,
		ResultURI:     &resultURI,
		RowCount:      &rows,
		CompletedAt:   &completedAt,
	}); err != nil {
		return fmt.Errorf("set completed: %w", err)
	}
	telemetry.Info("run.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"run_id":            runID,
		"status":            StatusCompleted,
		"status_transition": StatusProcessing + "->" + StatusCompleted,
		"result_uri":        resultURI,
		"rows":              rows,
		"duration_ms":       durationMs(startedAt, completedAt),
	})
	return nil
}

func (s *Service) pipelineConfig(run Run) (pipeline.Config, error) {
	c := s.Defaults
	c.ProjectName = run.ProjectName
	c.ProjectARN = run.ProjectARN
	c.BlueprintName = run.BlueprintName
	c.InputURI = run.InputURI
	c.OutputURI = run.OutputURI
	c.ResultFormat = run.ResultFormat
	c.MediaHint = run.MediaHint
	return pipeline.FromBDAConfig(c)
}

func (s *Service) fail(ctx context.Context, runID string, res pipeline.Result, cause error, startedAt time.Time) error {
	status, code := classifyFailure(cause)
	msg := sanitizeError(cause)
	completedAt := s.clock()
	upd := StatusUpdate{
		ErrorCode:    &code,
		ErrorMessage: &msg,
		CompletedAt:  &completedAt,
	}
	if res.Project.ARN != "" {
		upd.ProjectARN = &res.Project.ARN
	}
	if res.Job.InvocationARN != "" {
		upd.InvocationARN = &res.Job.InvocationARN
	}
	if err := s.Repo.UpdateStatus(context.Background(), runID, status, upd); err != nil {
		telemetry.Error("run.update_failed", map[string]any{
			"run_id": runID,
			"error":  err,
			"cause":  msg,
		})
		return fmt.Errorf("set %s: %w", status, err)
	}
	telemetry.Warn("run.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"run_id":            runID,
		"status":            status,
		"status_transition": StatusProcessing + "->" + status,
		"error_code":        code,
		"error":             msg,
		"duration_ms":       durationMs(startedAt, completedAt),
	})
	return nil
}

// classifyFailure maps a pipeline error to the run status and error code.
func classifyFailure(err error) (string, string) {
	if err == nil {
		return StatusFailed, ErrorCodeInternal
	}
	switch {
	case errors.Is(err, bda.ErrPollTimeout), errors.Is(err, context.DeadlineExceeded):
		return StatusTimedOut, ErrorCodePollTimeout
	case errors.Is(err, pipeline.ErrJobFailed):
		return StatusFailed, ErrorCodeJobFailed
	case errors.Is(err, ErrValidation),
		errors.Is(err, bda.ErrInvalidLocation),
		errors.Is(err, bda.ErrInvalidProfile),
		errors.Is(err, bda.ErrBlueprintNotFound),
		errors.Is(err, bda.ErrProjectNotFound),
		errors.Is(err, export.ErrUnsupportedFormat):
		return StatusFailed, ErrorCodeValidation
	case errors.Is(err, normalize.ErrDocumentUnavailable),
		errors.Is(err, normalize.ErrMalformedDocument),
		errors.Is(err, object.ErrNotFound):
		return StatusFailed, ErrorCodeStorage
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return StatusFailed, ErrorCodeService
	}
	return StatusFailed, ErrorCodeInternal
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

func durationMs(startedAt, completedAt time.Time) float64 {
	return float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
