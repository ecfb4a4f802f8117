package bda

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockdataautomationruntime"
	rttypes "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomationruntime/types"
	"github.com/h2non/filetype"

	"bda-pipeline/internal/shared/storage/object"
	"bda-pipeline/internal/shared/telemetry"
	"bda-pipeline/internal/shared/util"
)

type JobStatus string

const (
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusSuccess    JobStatus = "success"
	JobStatusFailed     JobStatus = "failed"
	JobStatusTimedOut   JobStatus = "timed_out"
)

// Terminal reports whether polling can stop on this status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed || s == JobStatusTimedOut
}

const (
	MediaImage = "image"
	MediaVideo = "video"
)

// JobSpec is everything needed to start one invocation.
type JobSpec struct {
	InputURI   string
	OutputURI  string
	ProfileARN string
	ProjectARN string
	Stage      string
	MediaHint  string
	// ClientToken overrides the token derived from the other fields.
	ClientToken string
}

// InferenceJob is a submitted invocation.
type InferenceJob struct {
	InputURI      string
	OutputURI     string
	ProfileARN    string
	ProjectARN    string
	Stage         string
	MediaHint     string
	InvocationARN string
	Status        JobStatus
}

// InvocationID is the trailing identifier of the invocation ARN.
func (j InferenceJob) InvocationID() string {
	return InvocationID(j.InvocationARN)
}

func InvocationID(invocationARN string) string {
	if i := strings.LastIndex(invocationARN, "/"); i >= 0 {
		return invocationARN[i+1:]
	}
	return invocationARN
}

type Submitter struct {
	api      RuntimeAPI
	profiles *ProfileResolver
}

// NewSubmitter builds a submitter. profiles may be nil when every JobSpec
// carries an explicit profile ARN.
func NewSubmitter(api RuntimeAPI, profiles *ProfileResolver) *Submitter {
	return &Submitter{api: api, profiles: profiles}
}

// Submit validates spec and starts an asynchronous invocation. Validation
// failures never reach the service. The call is not retried.
func (s *Submitter) Submit(ctx context.Context, spec JobSpec) (InferenceJob, error) {
	if err := validateInput(spec.InputURI); err != nil {
		return InferenceJob{}, err
	}
	if _, err := object.ParseURI(spec.OutputURI); err != nil {
		return InferenceJob{}, fmt.Errorf("%w: output: %v", ErrInvalidLocation, err)
	}
	if strings.TrimSpace(spec.ProjectARN) == "" {
		return InferenceJob{}, fmt.Errorf("%w: project arn is required", ErrProjectNotFound)
	}
	if p := strings.TrimSpace(spec.ProfileARN); p != "" && !validARN(p) {
		return InferenceJob{}, fmt.Errorf("%w: %q", ErrInvalidProfile, spec.ProfileARN)
	}

	profile, err := s.profiles.Resolve(ctx, spec.ProfileARN)
	if err != nil {
		return InferenceJob{}, err
	}
	if !validARN(profile) {
		return InferenceJob{}, fmt.Errorf("%w: %q", ErrInvalidProfile, profile)
	}

	stage := normalizeStage(spec.Stage)
	hint := spec.MediaHint
	if hint == "" {
		hint = DetectMediaHint(spec.InputURI)
	}
	token := spec.ClientToken
	if token == "" {
		token = util.ClientToken(spec.InputURI, spec.OutputURI, spec.ProjectARN, stage, profile)
	}

	out, err := s.api.InvokeDataAutomationAsync(ctx, &bedrockdataautomationruntime.InvokeDataAutomationAsyncInput{
		InputConfiguration:  &rttypes.InputConfiguration{S3Uri: aws.String(spec.InputURI)},
		OutputConfiguration: &rttypes.OutputConfiguration{S3Uri: aws.String(spec.OutputURI)},
		DataAutomationConfiguration: &rttypes.DataAutomationConfiguration{
			DataAutomationProjectArn: aws.String(spec.ProjectARN),
			Stage:                    rttypes.DataAutomationStage(stage),
		},
		DataAutomationProfileArn: aws.String(profile),
		ClientToken:              aws.String(token),
	})
	if err != nil {
		return InferenceJob{}, fmt.Errorf("invoke data automation: %w", err)
	}

	job := InferenceJob{
		InputURI:      spec.InputURI,
		OutputURI:     spec.OutputURI,
		ProfileARN:    profile,
		ProjectARN:    spec.ProjectARN,
		Stage:         stage,
		MediaHint:     hint,
		InvocationARN: aws.ToString(out.InvocationArn),
		Status:        JobStatusInProgress,
	}
	telemetry.Info("bda.job.submitted", map[string]any{
		"invocation_arn": job.InvocationARN,
		"input_uri":      job.InputURI,
		"media_hint":     job.MediaHint,
	})
	return job, nil
}

func validateInput(uri string) error {
	loc, err := object.ParseURI(uri)
	if err != nil {
		return fmt.Errorf("%w: input: %v", ErrInvalidLocation, err)
	}
	if loc.Key == "" || strings.HasSuffix(loc.Key, "/") {
		return fmt.Errorf("%w: input %q has no object key", ErrInvalidLocation, uri)
	}
	return nil
}

// DetectMediaHint guesses image or video from the input's file extension.
// Anything else yields an empty hint.
func DetectMediaHint(inputURI string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(inputURI)), ".")
	if ext == "" {
		return ""
	}
	kind := filetype.GetType(ext)
	switch kind.MIME.Type {
	case "image":
		return MediaImage
	case "video":
		return MediaVideo
	default:
		return ""
	}
}
