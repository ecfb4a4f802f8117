package bda

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockdataautomation"
	bdatypes "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomation/types"

	"bda-pipeline/internal/shared/telemetry"
)

const (
	StageLive        = "LIVE"
	StageDevelopment = "DEVELOPMENT"
)

// Project is a data automation project as seen by the pipeline.
type Project struct {
	Name        string
	Description string
	Stage       string
	ARN         string
	Status      string
	CreatedAt   time.Time
}

// ProjectSpec describes the project a run should use. When ARN is set the
// project is fetched directly and no creation is attempted.
type ProjectSpec struct {
	Name          string
	Description   string
	Stage         string
	ARN           string
	BlueprintName string
}

type Resolver struct {
	api ProjectsAPI
}

func NewResolver(api ProjectsAPI) *Resolver {
	return &Resolver{api: api}
}

// Resolve returns the project described by spec, creating it when needed.
// A create that conflicts with an existing project of the same name falls
// back to that project, so repeated calls yield the same ARN.
func (r *Resolver) Resolve(ctx context.Context, spec ProjectSpec) (Project, error) {
	stage := normalizeStage(spec.Stage)
	if strings.TrimSpace(spec.ARN) != "" {
		return r.Get(ctx, spec.ARN, stage)
	}
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return Project{}, fmt.Errorf("%w: project name is required", ErrProjectNotFound)
	}

	var blueprintARN string
	if strings.TrimSpace(spec.BlueprintName) != "" {
		arn, err := r.BlueprintARN(ctx, spec.BlueprintName)
		if err != nil {
			if !errors.Is(err, ErrBlueprintNotFound) {
				return Project{}, err
			}
			// Without the blueprint nothing can be created, but an existing
			// project of that name is still usable.
			existing, findErr := r.FindARNByName(ctx, name)
			if findErr != nil {
				if errors.Is(findErr, ErrProjectNotFound) {
					return Project{}, err
				}
				return Project{}, findErr
			}
			telemetry.Warn("bda.project.blueprint_missing", map[string]any{
				"project":   name,
				"blueprint": spec.BlueprintName,
			})
			return r.Get(ctx, existing, stage)
		}
		blueprintARN = arn
	}

	input := &bedrockdataautomation.CreateDataAutomationProjectInput{
		ProjectName:                 aws.String(name),
		ProjectStage:                bdatypes.DataAutomationProjectStage(stage),
		StandardOutputConfiguration: standardOutputConfiguration(),
	}
	if desc := strings.TrimSpace(spec.Description); desc != "" {
		input.ProjectDescription = aws.String(desc)
	}
	if blueprintARN != "" {
		input.CustomOutputConfiguration = &bdatypes.CustomOutputConfiguration{
			Blueprints: []bdatypes.BlueprintItem{{
				BlueprintArn:   aws.String(blueprintARN),
				BlueprintStage: bdatypes.BlueprintStage(StageLive),
			}},
		}
	}

	out, err := r.api.CreateDataAutomationProject(ctx, input)
	if err != nil {
		var conflict *bdatypes.ConflictException
		if !errors.As(err, &conflict) {
			return Project{}, fmt.Errorf("create data automation project %q: %w", name, err)
		}
		telemetry.Info("bda.project.exists", map[string]any{"project": name})
		arn, findErr := r.FindARNByName(ctx, name)
		if findErr != nil {
			return Project{}, findErr
		}
		return r.Get(ctx, arn, stage)
	}

	arn := aws.ToString(out.ProjectArn)
	telemetry.Info("bda.project.created", map[string]any{
		"project":     name,
		"project_arn": arn,
		"status":      string(out.Status),
	})
	return r.Get(ctx, arn, stage)
}

// Get fetches a project by ARN at the given stage.
func (r *Resolver) Get(ctx context.Context, arn, stage string) (Project, error) {
	out, err := r.api.GetDataAutomationProject(ctx, &bedrockdataautomation.GetDataAutomationProjectInput{
		ProjectArn:   aws.String(arn),
		ProjectStage: bdatypes.DataAutomationProjectStage(normalizeStage(stage)),
	})
	if err != nil {
		if isNotFound(err) {
			return Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, arn)
		}
		return Project{}, fmt.Errorf("get data automation project %s: %w", arn, err)
	}
	if out.Project == nil {
		return Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, arn)
	}
	p := out.Project
	project := Project{
		Name:        aws.ToString(p.ProjectName),
		Description: aws.ToString(p.ProjectDescription),
		Stage:       string(p.ProjectStage),
		ARN:         aws.ToString(p.ProjectArn),
		Status:      string(p.Status),
	}
	if p.CreationTime != nil {
		project.CreatedAt = p.CreationTime.UTC()
	}
	if project.ARN == "" {
		project.ARN = arn
	}
	return project, nil
}

// FindARNByName pages through the account's projects looking for name.
func (r *Resolver) FindARNByName(ctx context.Context, name string) (string, error) {
	var next *string
	for {
		out, err := r.api.ListDataAutomationProjects(ctx, &bedrockdataautomation.ListDataAutomationProjectsInput{
			NextToken: next,
		})
		if err != nil {
			return "", fmt.Errorf("list data automation projects: %w", err)
		}
		for _, p := range out.Projects {
			if aws.ToString(p.ProjectName) == name {
				return aws.ToString(p.ProjectArn), nil
			}
		}
		if aws.ToString(out.NextToken) == "" {
			return "", fmt.Errorf("%w: %s", ErrProjectNotFound, name)
		}
		next = out.NextToken
	}
}

// BlueprintARN looks a blueprint up by name among the service-provided ones.
func (r *Resolver) BlueprintARN(ctx context.Context, name string) (string, error) {
	var next *string
	for {
		out, err := r.api.ListBlueprints(ctx, &bedrockdataautomation.ListBlueprintsInput{
			ResourceOwner: bdatypes.ResourceOwner("SERVICE"),
			NextToken:     next,
		})
		if err != nil {
			return "", fmt.Errorf("list blueprints: %w", err)
		}
		for _, bp := range out.Blueprints {
			if aws.ToString(bp.BlueprintName) == name {
				return aws.ToString(bp.BlueprintArn), nil
			}
		}
		if aws.ToString(out.NextToken) == "" {
			return "", fmt.Errorf("%w: %s", ErrBlueprintNotFound, name)
		}
		next = out.NextToken
	}
}

func normalizeStage(stage string) string {
	if strings.EqualFold(strings.TrimSpace(stage), StageDevelopment) {
		return StageDevelopment
	}
	return StageLive
}

func isNotFound(err error) bool {
	var nf *bdatypes.ResourceNotFoundException
	return errors.As(err, &nf)
}
