package bda

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
)

func TestResolveCreatesProjectWithBlueprint(t *testing.T) {
	api := newFakeProjects()
	r := NewResolver(api)

	p, err := r.Resolve(context.Background(), ProjectSpec{
		Name:          "ads",
		Description:   "ad pipeline",
		BlueprintName: "Advertisement",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.ARN != api.projects["ads"] {
		t.Fatalf("unexpected arn %q", p.ARN)
	}
	if p.Status != "COMPLETED" || p.Stage != StageLive {
		t.Fatalf("unexpected project %+v", p)
	}
	if len(api.creates) != 1 {
		t.Fatalf("expected one create, got %d", len(api.creates))
	}
	in := api.creates[0]
	if in.CustomOutputConfiguration == nil || len(in.CustomOutputConfiguration.Blueprints) != 1 {
		t.Fatalf("expected one custom blueprint")
	}
	bp := in.CustomOutputConfiguration.Blueprints[0]
	if aws.ToString(bp.BlueprintArn) != api.blueprints["Advertisement"] || string(bp.BlueprintStage) != StageLive {
		t.Fatalf("unexpected blueprint item %+v", bp)
	}
	std := in.StandardOutputConfiguration
	if std == nil || std.Document == nil || std.Image == nil || std.Video == nil || std.Audio == nil {
		t.Fatalf("expected all modalities configured")
	}
	if aws.ToString(in.ProjectDescription) != "ad pipeline" {
		t.Fatalf("description not forwarded")
	}
}

func TestResolveIsIdempotentOnConflict(t *testing.T) {
	api := newFakeProjects()
	api.pageSize = 1
	api.projects["other"] = "arn:aws:bedrock:us-east-1:123456789012:data-automation-project/other"
	r := NewResolver(api)

	first, err := r.Resolve(context.Background(), ProjectSpec{Name: "ads"})
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	getsBefore := len(api.gets)

	second, err := r.Resolve(context.Background(), ProjectSpec{Name: "ads"})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first.ARN != second.ARN {
		t.Fatalf("expected same arn, got %q and %q", first.ARN, second.ARN)
	}
	if api.lists == 0 {
		t.Fatalf("expected lookup by name after conflict")
	}
	if len(api.gets) != getsBefore+1 || api.gets[len(api.gets)-1] != first.ARN {
		t.Fatalf("expected fetch of existing project, gets=%v", api.gets)
	}
}

func TestResolveByARNSkipsCreate(t *testing.T) {
	api := newFakeProjects()
	arn := "arn:aws:bedrock:us-east-1:123456789012:data-automation-project/existing"
	api.projects["existing"] = arn
	r := NewResolver(api)

	p, err := r.Resolve(context.Background(), ProjectSpec{ARN: arn, Stage: "development"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(api.creates) != 0 {
		t.Fatalf("expected no create call")
	}
	if p.Name != "existing" || p.Stage != StageDevelopment {
		t.Fatalf("unexpected project %+v", p)
	}
}

func TestResolveUnknownARN(t *testing.T) {
	r := NewResolver(newFakeProjects())
	_, err := r.Resolve(context.Background(), ProjectSpec{ARN: "arn:aws:bedrock:us-east-1:1:data-automation-project/nope"})
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestResolveMissingBlueprint(t *testing.T) {
	api := newFakeProjects()
	r := NewResolver(api)
	_, err := r.Resolve(context.Background(), ProjectSpec{Name: "ads", BlueprintName: "Missing"})
	if !errors.Is(err, ErrBlueprintNotFound) {
		t.Fatalf("expected ErrBlueprintNotFound, got %v", err)
	}
	if len(api.creates) != 0 {
		t.Fatalf("create must not run without blueprint")
	}
}

func TestResolveMissingBlueprintReusesExistingProject(t *testing.T) {
	api := newFakeProjects()
	arn := "arn:aws:bedrock:us-east-1:123456789012:data-automation-project/ads"
	api.projects["ads"] = arn
	r := NewResolver(api)

	p, err := r.Resolve(context.Background(), ProjectSpec{Name: "ads", BlueprintName: "Missing"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.ARN != arn {
		t.Fatalf("expected existing project, got %q", p.ARN)
	}
	if len(api.creates) != 0 {
		t.Fatalf("expected no create call")
	}
}

func TestResolveOtherCreateErrorIsFatal(t *testing.T) {
	api := newFakeProjects()
	api.createErr = errors.New("access denied")
	r := NewResolver(api)
	_, err := r.Resolve(context.Background(), ProjectSpec{Name: "ads"})
	if err == nil || !errors.Is(err, api.createErr) {
		t.Fatalf("expected wrapped create error, got %v", err)
	}
	if api.lists != 0 {
		t.Fatalf("expected no name lookup")
	}
}

func TestBlueprintARNPaginates(t *testing.T) {
	api := newFakeProjects()
	api.pageSize = 1
	api.blueprints["Zeta"] = "arn:aws:bedrock:us-east-1:aws:blueprint/zeta"
	r := NewResolver(api)
	arn, err := r.BlueprintARN(context.Background(), "Zeta")
	if err != nil {
		t.Fatalf("blueprint arn: %v", err)
	}
	if arn != "arn:aws:bedrock:us-east-1:aws:blueprint/zeta" {
		t.Fatalf("unexpected arn %q", arn)
	}
}
