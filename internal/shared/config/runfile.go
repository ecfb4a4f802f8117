package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RunFile is the YAML document accepted by the bda-run command.
//
//	project:
//	  name: BedrockDataAutomationProject
//	  stage: LIVE
//	  blueprint: Advertisement
//	job:
//	  input: s3://bucket/input/teamsConversation.mp4
//	  output: s3://bucket/inference_results
//	  media: video
//	poll:
//	  interval: 10s
//	  max_attempts: 360
type RunFile struct {
	Project RunFileProject `yaml:"project"`
	Job     RunFileJob     `yaml:"job"`
	Poll    RunFilePoll    `yaml:"poll"`
	Result  RunFileResult  `yaml:"result"`
}

// RunFileProject describes the project section.
type RunFileProject struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Stage       string `yaml:"stage"`
	ARN         string `yaml:"arn"`
	Blueprint   string `yaml:"blueprint"`
}

// RunFileJob describes the job section.
type RunFileJob struct {
	Input   string `yaml:"input"`
	Output  string `yaml:"output"`
	Profile string `yaml:"profile"`
	Media   string `yaml:"media"`
}

// RunFilePoll describes the poll section.
type RunFilePoll struct {
	Interval    string `yaml:"interval"`
	MaxAttempts int    `yaml:"max_attempts"`
	Timeout     string `yaml:"timeout"`
}

// RunFileResult describes the result section.
type RunFileResult struct {
	Prefix          string `yaml:"prefix"`
	Format          string `yaml:"format"`
	EmptyListPolicy string `yaml:"empty_list_policy"`
}

// LoadRunFile reads and parses a YAML run file.
func LoadRunFile(path string) (RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunFile{}, fmt.Errorf("read run file: %w", err)
	}
	return ParseRunFile(data)
}

// ParseRunFile parses YAML run file bytes.
func ParseRunFile(data []byte) (RunFile, error) {
	var rf RunFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return RunFile{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return rf, nil
}

// Apply overlays the non-empty run file values on top of base.
func (rf RunFile) Apply(base BDAConfig) (BDAConfig, error) {
	out := base
	setString(&out.ProjectName, rf.Project.Name)
	setString(&out.ProjectDescription, rf.Project.Description)
	setString(&out.ProjectARN, rf.Project.ARN)
	setString(&out.BlueprintName, rf.Project.Blueprint)
	if strings.TrimSpace(rf.Project.Stage) != "" {
		out.ProjectStage = NormalizeStage(rf.Project.Stage)
	}
	setString(&out.InputURI, rf.Job.Input)
	setString(&out.OutputURI, rf.Job.Output)
	setString(&out.ProfileARN, rf.Job.Profile)
	if strings.TrimSpace(rf.Job.Media) != "" {
		out.MediaHint = NormalizeMediaHint(rf.Job.Media)
	}
	if strings.TrimSpace(rf.Poll.Interval) != "" {
		d, err := time.ParseDuration(rf.Poll.Interval)
		if err != nil {
			return BDAConfig{}, fmt.Errorf("poll.interval: %w", err)
		}
		out.PollInterval = d
	}
	if strings.TrimSpace(rf.Poll.Timeout) != "" {
		d, err := time.ParseDuration(rf.Poll.Timeout)
		if err != nil {
			return BDAConfig{}, fmt.Errorf("poll.timeout: %w", err)
		}
		out.PollTimeout = d
	}
	if rf.Poll.MaxAttempts > 0 {
		out.PollMaxAttempts = rf.Poll.MaxAttempts
	}
	setString(&out.ResultPrefix, rf.Result.Prefix)
	if strings.TrimSpace(rf.Result.Format) != "" {
		out.ResultFormat = NormalizeResultFormat(rf.Result.Format)
	}
	if strings.TrimSpace(rf.Result.EmptyListPolicy) != "" {
		out.EmptyListPolicy = NormalizeEmptyListPolicy(rf.Result.EmptyListPolicy)
	}
	return out, nil
}

func setString(dst *string, v string) {
	if trimmed := strings.TrimSpace(v); trimmed != "" {
		*dst = trimmed
	}
}
