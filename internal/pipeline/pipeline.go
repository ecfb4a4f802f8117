// Package pipeline runs one data automation job end to end: resolve the
// project, submit, wait, normalize the output and write the result table.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bda-pipeline/internal/bda"
	"bda-pipeline/internal/export"
	"bda-pipeline/internal/normalize"
	"bda-pipeline/internal/shared/metrics"
	"bda-pipeline/internal/shared/storage/object"
	"bda-pipeline/internal/shared/telemetry"
)

// Result summarises a finished run.
type Result struct {
	Project   bda.Project
	Job       bda.InferenceJob
	Poll      bda.PollResult
	ResultURI string
	Rows      int
	Columns   []string
	Bytes     int64
}

type Runner struct {
	Resolver  *bda.Resolver
	Submitter *bda.Submitter
	Runtime   bda.RuntimeAPI
	Store     object.ObjectStore
	now       func() time.Time
}

func NewRunner(clients *bda.Clients, store object.ObjectStore) *Runner {
	return &Runner{
		Resolver:  bda.NewResolver(clients.Projects),
		Submitter: bda.NewSubmitter(clients.Runtime, bda.NewProfileResolver(clients.Identity, clients.Region)),
		Runtime:   clients.Runtime,
		Store:     store,
		now:       time.Now,
	}
}

// Run executes the stages in order. Whatever was learned before a failure
// is returned alongside the error.
func (r *Runner) Run(ctx context.Context, cfg Config) (Result, error) {
	now := r.now
	if now == nil {
		now = time.Now
	}
	start := now()
	metrics.IncRunsStarted()

	res, err := r.run(ctx, cfg)
	metrics.ObserveRunDurationMs(float64(now().Sub(start).Milliseconds()))
	switch {
	case err == nil:
		metrics.IncRunsCompleted()
		metrics.AddResultRows(res.Rows)
	case errors.Is(err, bda.ErrPollTimeout):
		metrics.IncRunsTimedOut()
	default:
		metrics.IncRunsFailed()
	}
	return res, err
}

func (r *Runner) run(ctx context.Context, cfg Config) (Result, error) {
	var res Result

	prefix, err := cfg.resultPrefix()
	if err != nil {
		return res, err
	}
	writer, err := export.NewWriter(cfg.ResultFormat)
	if err != nil {
		return res, err
	}

	project, err := r.Resolver.Resolve(ctx, cfg.Project)
	if err != nil {
		return res, fmt.Errorf("resolve project: %w", err)
	}
	res.Project = project
	telemetry.Info("pipeline.project.resolved", map[string]any{
		"project":     project.Name,
		"project_arn": project.ARN,
		"status":      project.Status,
	})

	job, err := r.Submitter.Submit(ctx, bda.JobSpec{
		InputURI:   cfg.InputURI,
		OutputURI:  cfg.OutputURI,
		ProfileARN: cfg.ProfileARN,
		ProjectARN: project.ARN,
		Stage:      project.Stage,
		MediaHint:  cfg.MediaHint,
	})
	if err != nil {
		return res, fmt.Errorf("submit job: %w", err)
	}
	res.Job = job

	poll, err := bda.NewPoller(r.Runtime, cfg.Poll).Poll(ctx, job.InvocationARN)
	res.Poll = poll
	res.Job.Status = poll.Status
	if err != nil {
		return res, fmt.Errorf("poll job %s: %w", job.InvocationID(), err)
	}
	if poll.Status == bda.JobStatusFailed {
		return res, fmt.Errorf("%w: %s: %s", ErrJobFailed, poll.ErrorType, poll.ErrorMessage)
	}
	if poll.OutputURI == "" {
		return res, fmt.Errorf("%w: job %s reported no output location", ErrJobFailed, job.InvocationID())
	}

	normalizer := normalize.New(r.Store, cfg.EmptyListPolicy)
	normalizer.ModalityHint = job.MediaHint
	table, err := normalizer.Normalize(ctx, poll.OutputURI)
	if err != nil {
		return res, fmt.Errorf("normalize output: %w", err)
	}

	name := project.Name
	if name == "" {
		name = cfg.Project.Name
	}
	uri, err := export.ResultURI(prefix, name, job.InvocationID(), writer.Format())
	if err != nil {
		return res, err
	}
	n, err := export.Save(ctx, r.Store, uri, writer, table)
	if err != nil {
		return res, err
	}

	res.ResultURI = uri
	res.Rows = table.Len()
	res.Columns = table.Columns
	res.Bytes = n
	telemetry.Info("pipeline.result.saved", map[string]any{
		"result_uri":     uri,
		"rows":           res.Rows,
		"columns":        len(res.Columns),
		"bytes":          n,
		"invocation_arn": job.InvocationARN,
	})
	return res, nil
}
