package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker
//
// The function timeout must exceed BDA_POLL_TIMEOUT (or the attempt budget)
// since each record polls its job to completion.

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"bda-pipeline/internal/bootstrap"
	"bda-pipeline/internal/shared/config"
	"bda-pipeline/internal/shared/metrics"
	"bda-pipeline/internal/shared/telemetry"
	"bda-pipeline/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	built, err := bootstrap.Build(config.Load())
	if err != nil {
		initErr = err
		return
	}
	app = built
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": initErr.Error()})
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return processRecords(ctx, app.RunProcessor, event.Records), nil
}

// processRecords reports retryable failures back to SQS. Unrecoverable
// messages are dropped so they do not cycle until the redrive limit.
func processRecords(ctx context.Context, processor workerproc.RunProcessor, records []events.SQSMessage) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range records {
		metrics.IncRunsReceived()
		err := workerproc.HandleMessage(ctx, processor, record.Body)
		if err == nil {
			continue
		}
		fields := map[string]any{
			"sqs_message_id": record.MessageId,
			"error":          err.Error(),
		}
		if workerproc.Unrecoverable(err) {
			telemetry.Error("worker.run.dropped", fields)
			metrics.IncRunsDroppedUnrecoverable()
			continue
		}
		telemetry.Error("worker.run.failed", fields)
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
