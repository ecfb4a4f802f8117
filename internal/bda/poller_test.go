package bda

import (
	"context"
	"errors"
	"testing"
	"time"

	rttypes "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomationruntime/types"
)

const testInvocation = "arn:aws:bedrock:us-east-1:1:data-automation-invocation/inv-123"

func TestPollReturnsSuccessOnThirdQuery(t *testing.T) {
	rt := &fakeRuntime{
		statuses:  []rttypes.AutomationJobStatus{"InProgress", "InProgress", "Success"},
		outputURI: "s3://out/output/inv-123/0/job_metadata.json",
	}
	p := NewPoller(rt, PollerConfig{Interval: time.Millisecond, MaxAttempts: 10})

	res, err := p.Poll(context.Background(), testInvocation)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if res.Status != JobStatusSuccess || res.Attempts != 3 || rt.calls() != 3 {
		t.Fatalf("unexpected result %+v after %d calls", res, rt.calls())
	}
	if res.OutputURI != rt.outputURI {
		t.Fatalf("unexpected output uri %q", res.OutputURI)
	}
}

func TestPollReportsFailure(t *testing.T) {
	rt := &fakeRuntime{statuses: []rttypes.AutomationJobStatus{"Created", "ClientError"}}
	p := NewPoller(rt, PollerConfig{Interval: -1, MaxAttempts: 5})

	res, err := p.Poll(context.Background(), testInvocation)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if res.Status != JobStatusFailed || res.ErrorType != "Client.InvalidInput" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestPollExhaustsAttempts(t *testing.T) {
	rt := &fakeRuntime{statuses: []rttypes.AutomationJobStatus{"InProgress"}}
	p := NewPoller(rt, PollerConfig{Interval: -1, MaxAttempts: 4})

	res, err := p.Poll(context.Background(), testInvocation)
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("expected ErrPollTimeout, got %v", err)
	}
	if res.Status != JobStatusTimedOut || rt.calls() != 4 {
		t.Fatalf("unexpected result %+v after %d calls", res, rt.calls())
	}
}

func TestPollTimeoutIsDistinctFromFailure(t *testing.T) {
	rt := &fakeRuntime{statuses: []rttypes.AutomationJobStatus{"InProgress"}}
	p := NewPoller(rt, PollerConfig{Interval: 20 * time.Millisecond, Timeout: 50 * time.Millisecond})

	res, err := p.Poll(context.Background(), testInvocation)
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("expected ErrPollTimeout, got %v", err)
	}
	if res.Status != JobStatusTimedOut {
		t.Fatalf("expected timed_out, got %q", res.Status)
	}
	if rt.calls() < 1 {
		t.Fatalf("expected at least one query")
	}
}

func TestPollHonoursCallerCancel(t *testing.T) {
	rt := &fakeRuntime{statuses: []rttypes.AutomationJobStatus{"InProgress"}}
	p := NewPoller(rt, PollerConfig{Interval: time.Hour, MaxAttempts: 3})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Poll(ctx, testInvocation)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPollStatusError(t *testing.T) {
	rt := &fakeRuntime{statusErr: errors.New("boom")}
	p := NewPoller(rt, PollerConfig{Interval: -1, MaxAttempts: 3})
	_, err := p.Poll(context.Background(), testInvocation)
	if err == nil || errors.Is(err, ErrPollTimeout) {
		t.Fatalf("expected service error, got %v", err)
	}
}

func TestNewPollerDefaultsBound(t *testing.T) {
	p := NewPoller(&fakeRuntime{}, PollerConfig{})
	if p.cfg.MaxAttempts != DefaultPollMaxAttempts || p.cfg.Interval != DefaultPollInterval {
		t.Fatalf("unexpected defaults %+v", p.cfg)
	}
}

func TestMapStatus(t *testing.T) {
	cases := map[rttypes.AutomationJobStatus]JobStatus{
		"Created":      JobStatusInProgress,
		"InProgress":   JobStatusInProgress,
		"Success":      JobStatusSuccess,
		"ServiceError": JobStatusFailed,
		"ClientError":  JobStatusFailed,
	}
	for in, want := range cases {
		if got := MapStatus(in); got != want {
			t.Fatalf("MapStatus(%q) = %q, want %q", in, got, want)
		}
	}
}
