package runs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	run := Run{
		ID:           "7f1c7a52-8a4b-4b59-9d0e-3c0f3b1d6a11",
		Status:       StatusQueued,
		ProjectName:  "demo-project",
		InputURI:     "s3://bucket/in/ad.png",
		OutputURI:    "s3://bucket/out",
		ResultFormat: "parquet",
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO runs").
		WithArgs(
			run.ID,
			nil, // request_id
			run.Status,
			run.ProjectName,
			nil, // project_arn
			nil, // blueprint_name
			run.InputURI,
			run.OutputURI,
			run.ResultFormat,
			nil, // media_hint
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), run); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("UPDATE runs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatus(context.Background(), "missing", StatusFailed, StatusUpdate{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	cols := []string{
		"id", "request_id", "status", "project_name", "project_arn", "blueprint_name",
		"input_uri", "output_uri", "result_format", "media_hint", "invocation_arn", "result_uri",
		"row_count", "error_code", "error_message", "started_at", "completed_at", "created_at", "updated_at",
	}
	mock.ExpectQuery("FROM runs").
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"run-1", "req-1", StatusCompleted, "demo-project", "arn:project", nil,
			"s3://bucket/in/ad.png", "s3://bucket/out", "xlsx", "IMAGE", "arn:invocation/job-1", "s3://bucket/output/final_result.xlsx",
			4, nil, nil, now, now, now, now,
		))

	run, err := repo.GetByID(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if run.RequestID != "req-1" || run.RowCount != 4 || run.MediaHint != "IMAGE" || run.BlueprintName != "" {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.ErrorMessage != nil || run.CompletedAt == nil {
		t.Fatalf("unexpected nullable fields %+v", run)
	}

	mock.ExpectQuery("FROM runs").WithArgs("missing").WillReturnRows(sqlmock.NewRows(cols))
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListClampsLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs(100, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	items, err := repo.List(context.Background(), 500, -1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty list, got %d", len(items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
