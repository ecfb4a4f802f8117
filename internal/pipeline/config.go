package pipeline

import (
	"fmt"
	"strings"

	"bda-pipeline/internal/bda"
	"bda-pipeline/internal/export"
	"bda-pipeline/internal/normalize"
	"bda-pipeline/internal/shared/config"
	"bda-pipeline/internal/shared/storage/object"
)

// Config is everything one run needs, resolved up front.
type Config struct {
	Project         bda.ProjectSpec
	InputURI        string
	OutputURI       string
	ProfileARN      string
	MediaHint       string
	ResultPrefix    string
	ResultFormat    export.Format
	Poll            bda.PollerConfig
	EmptyListPolicy normalize.EmptyListPolicy
}

// FromBDAConfig maps the environment/run-file settings onto a run Config.
func FromBDAConfig(c config.BDAConfig) (Config, error) {
	format, err := export.ParseFormat(c.ResultFormat)
	if err != nil {
		return Config{}, err
	}
	policy, err := normalize.ParseEmptyListPolicy(c.EmptyListPolicy)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Project: bda.ProjectSpec{
			Name:          c.ProjectName,
			Description:   c.ProjectDescription,
			Stage:         c.ProjectStage,
			ARN:           c.ProjectARN,
			BlueprintName: c.BlueprintName,
		},
		InputURI:     c.InputURI,
		OutputURI:    c.OutputURI,
		ProfileARN:   c.ProfileARN,
		MediaHint:    c.MediaHint,
		ResultPrefix: c.ResultPrefix,
		ResultFormat: format,
		Poll: bda.PollerConfig{
			Interval:    c.PollInterval,
			MaxAttempts: c.PollMaxAttempts,
			Timeout:     c.PollTimeout,
		},
		EmptyListPolicy: policy,
	}, nil
}

// resultPrefix defaults to s3://<output bucket>/output.
func (c Config) resultPrefix() (string, error) {
	if p := strings.TrimSpace(c.ResultPrefix); p != "" {
		if _, err := object.ParseURI(p); err != nil {
			return "", fmt.Errorf("%w: result prefix: %v", bda.ErrInvalidLocation, err)
		}
		return p, nil
	}
	loc, err := object.ParseURI(c.OutputURI)
	if err != nil {
		return "", fmt.Errorf("%w: output: %v", bda.ErrInvalidLocation, err)
	}
	return object.Location{Bucket: loc.Bucket, Key: "output"}.String(), nil
}
