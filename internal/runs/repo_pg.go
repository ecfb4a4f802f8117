package runs

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const runColumns = `id, request_id, status, project_name, project_arn, blueprint_name,
       input_uri, output_uri, result_format, media_hint, invocation_arn, result_uri,
       row_count, error_code, error_message, started_at, completed_at, created_at, updated_at`

// Create inserts a new run.
func (r *PGRepo) Create(ctx context.Context, run Run) error {
	const query = `
INSERT INTO runs (
	id, request_id, status, project_name, project_arn, blueprint_name,
	input_uri, output_uri, result_format, media_hint, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.DB.ExecContext(ctx, query,
		run.ID,
		nullString(run.RequestID),
		run.Status,
		run.ProjectName,
		nullString(run.ProjectARN),
		nullString(run.BlueprintName),
		run.InputURI,
		run.OutputURI,
		run.ResultFormat,
		nullString(run.MediaHint),
		run.CreatedAt,
	)
	return err
}

// GetByID returns a run by ID.
func (r *PGRepo) GetByID(ctx context.Context, runID string) (Run, error) {
	query := `SELECT ` + runColumns + `
FROM runs
WHERE id = $1
LIMIT 1`
	run, err := scanRun(r.DB.QueryRowContext(ctx, query, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, err
	}
	return run, nil
}

// UpdateStatus writes the status and every non-nil field of upd.
func (r *PGRepo) UpdateStatus(ctx context.Context, runID, status string, upd StatusUpdate) error {
	const query = `
UPDATE runs
SET status = $1,
    project_arn = COALESCE($2::text, project_arn),
    invocation_arn = COALESCE($3::text, invocation_arn),
    result_uri = COALESCE($4::text, result_uri),
    row_count = COALESCE($5::integer, row_count),
    error_code = COALESCE($6::text, error_code),
    error_message = COALESCE($7::text, error_message),
    started_at = CASE
        WHEN $8::timestamptz IS NOT NULL THEN $8::timestamptz
        WHEN $1 = 'processing' AND started_at IS NULL THEN now()
        ELSE started_at
    END,
    completed_at = CASE
        WHEN $9::timestamptz IS NOT NULL THEN $9::timestamptz
        WHEN $1 IN ('completed', 'failed', 'timed_out') AND completed_at IS NULL THEN now()
        ELSE completed_at
    END,
    updated_at = now()
WHERE id = $10::uuid`

	res, err := r.DB.ExecContext(ctx, query,
		status,
		upd.ProjectARN,
		upd.InvocationARN,
		upd.ResultURI,
		upd.RowCount,
		upd.ErrorCode,
		upd.ErrorMessage,
		upd.StartedAt,
		upd.CompletedAt,
		runID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns runs ordered newest-first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + runColumns + `
FROM runs
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var requestID, projectARN, blueprintName, mediaHint sql.NullString
	var invocationARN, resultURI, errorCode, errorMessage sql.NullString
	var startedAt, completedAt sql.NullTime
	err := row.Scan(
		&run.ID,
		&requestID,
		&run.Status,
		&run.ProjectName,
		&projectARN,
		&blueprintName,
		&run.InputURI,
		&run.OutputURI,
		&run.ResultFormat,
		&mediaHint,
		&invocationARN,
		&resultURI,
		&run.RowCount,
		&errorCode,
		&errorMessage,
		&startedAt,
		&completedAt,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return Run{}, err
	}
	run.RequestID = requestID.String
	run.ProjectARN = projectARN.String
	run.BlueprintName = blueprintName.String
	run.MediaHint = mediaHint.String
	run.InvocationARN = invocationARN.String
	run.ResultURI = resultURI.String
	run.ErrorCode = errorCode.String
	if errorMessage.Valid {
		run.ErrorMessage = &errorMessage.String
	}
	if startedAt.Valid {
		run.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
