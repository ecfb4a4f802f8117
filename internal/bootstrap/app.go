package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"

	"bda-pipeline/internal/bda"
	"bda-pipeline/internal/pipeline"
	"bda-pipeline/internal/queue"
	"bda-pipeline/internal/runs"
	"bda-pipeline/internal/shared/config"
	"bda-pipeline/internal/shared/server"
	"bda-pipeline/internal/shared/storage/db"
	"bda-pipeline/internal/shared/storage/object"
	localstore "bda-pipeline/internal/shared/storage/object/local"
	s3store "bda-pipeline/internal/shared/storage/object/s3"
	"bda-pipeline/internal/uploads"
)

// App holds shared dependencies for the API, worker and lambda entrypoints.
type App struct {
	Config       config.Config
	Router       *gin.Engine
	DB           *sql.DB
	Store        object.ObjectStore
	Queue        queue.Client
	Clients      *bda.Clients
	Runner       *pipeline.Runner
	RunsRepo     runs.Repo
	RunsService  *runs.Service
	RunProcessor RunProcessor
	RunsHandler  *runs.Handler
	Uploads      *uploads.Handler
}

// RunProcessor allows callers to override run processing for tests.
type RunProcessor interface {
	ProcessRun(ctx context.Context, runID string) error
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	clients, err := bda.NewClients(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}

	uploadsHandler, err := buildUploads(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Store:   store,
		Queue:   queueClient,
		Clients: clients,
		Uploads: uploadsHandler,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         app.Config,
		RunsHandler:    app.RunsHandler,
		UploadsHandler: app.Uploads,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.QueueURL)
}

func buildUploads(ctx context.Context, cfg config.Config) (*uploads.Handler, error) {
	if cfg.UploadsBucket == "" {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	presign := uploads.S3Presigner{Client: s3.NewPresignClient(s3.NewFromConfig(awsCfg))}
	return uploads.NewHandler(presign, cfg.UploadsBucket, cfg.UploadsPrefix), nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var repo runs.Repo
	if app.DB != nil {
		repo = &runs.PGRepo{DB: app.DB}
	} else {
		repo = runs.NewMemoryRepo()
	}

	runner := pipeline.NewRunner(app.Clients, app.Store)
	svc := &runs.Service{
		Repo:     repo,
		Pipeline: runner,
		JobQueue: app.Queue,
		Defaults: app.Config.BDA,
	}

	app.Runner = runner
	app.RunsRepo = repo
	app.RunsService = svc
	app.RunProcessor = svc
	app.RunsHandler = runs.NewHandler(svc)

	if app.RunsHandler == nil {
		return errors.New("failed to initialize handlers")
	}
	return nil
}
