package queue

import "context"

// Client publishes run messages. SQSClient is the production implementation;
// a nil Client makes runs.Service execute runs in-process.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
