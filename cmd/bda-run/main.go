package main

// Run one pipeline end to end:
//   go run ./cmd/bda-run -spec run.yaml

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bda-pipeline/internal/bda"
	"bda-pipeline/internal/pipeline"
	"bda-pipeline/internal/shared/config"
	"bda-pipeline/internal/shared/storage/object"
	localstore "bda-pipeline/internal/shared/storage/object/local"
	s3store "bda-pipeline/internal/shared/storage/object/s3"
)

type options struct {
	specPath string
	input    string
	format   string
}

func main() {
	var opts options
	flag.StringVar(&opts.specPath, "spec", "", "YAML run file")
	flag.StringVar(&opts.input, "input", "", "input media s3:// URI (overrides the run file)")
	flag.StringVar(&opts.format, "format", "", "result format: parquet or xlsx")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	pcfg, err := buildConfig(cfg.BDA, opts)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	clients, err := bda.NewClients(ctx, cfg.AWSRegion)
	if err != nil {
		log.Fatalf("aws clients: %v", err)
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("object store: %v", err)
	}

	res, err := pipeline.NewRunner(clients, store).Run(ctx, pcfg)
	if werr := writeSummary(os.Stdout, res, err); werr != nil {
		log.Printf("write summary: %v", werr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func buildConfig(base config.BDAConfig, opts options) (pipeline.Config, error) {
	merged := base
	if opts.specPath != "" {
		rf, err := config.LoadRunFile(opts.specPath)
		if err != nil {
			return pipeline.Config{}, err
		}
		if merged, err = rf.Apply(base); err != nil {
			return pipeline.Config{}, err
		}
	}
	if opts.input != "" {
		merged.InputURI = opts.input
	}
	if opts.format != "" {
		merged.ResultFormat = opts.format
	}
	return pipeline.FromBDAConfig(merged)
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	if cfg.ObjectStoreType == "local" {
		return localstore.New(cfg.LocalStoreDir), nil
	}
	return s3store.New(ctx, cfg.AWSRegion, cfg.SSEKMSKeyID)
}

type summary struct {
	ProjectARN    string   `json:"projectArn,omitempty"`
	InvocationARN string   `json:"invocationArn,omitempty"`
	Status        string   `json:"status"`
	PollAttempts  int      `json:"pollAttempts"`
	ResultURI     string   `json:"resultUri,omitempty"`
	Rows          int      `json:"rows"`
	Columns       []string `json:"columns,omitempty"`
	Bytes         int64    `json:"bytes,omitempty"`
	Error         string   `json:"error,omitempty"`
}

func writeSummary(w io.Writer, res pipeline.Result, runErr error) error {
	s := summary{
		ProjectARN:    res.Project.ARN,
		InvocationARN: res.Job.InvocationARN,
		Status:        string(res.Poll.Status),
		PollAttempts:  res.Poll.Attempts,
		ResultURI:     res.ResultURI,
		Rows:          res.Rows,
		Columns:       res.Columns,
		Bytes:         res.Bytes,
	}
	if runErr != nil {
		s.Error = runErr.Error()
	}
	if s.Status == "" {
		s.Status = "not_started"
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}
