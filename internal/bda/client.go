// Package bda wraps Amazon Bedrock Data Automation: project lifecycle,
// asynchronous invocation, and status polling.
package bda

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockdataautomation"
	"github.com/aws/aws-sdk-go-v2/service/bedrockdataautomationruntime"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ProjectsAPI is the subset of the control-plane client used here.
type ProjectsAPI interface {
	CreateDataAutomationProject(ctx context.Context, params *bedrockdataautomation.CreateDataAutomationProjectInput, optFns ...func(*bedrockdataautomation.Options)) (*bedrockdataautomation.CreateDataAutomationProjectOutput, error)
	GetDataAutomationProject(ctx context.Context, params *bedrockdataautomation.GetDataAutomationProjectInput, optFns ...func(*bedrockdataautomation.Options)) (*bedrockdataautomation.GetDataAutomationProjectOutput, error)
	ListDataAutomationProjects(ctx context.Context, params *bedrockdataautomation.ListDataAutomationProjectsInput, optFns ...func(*bedrockdataautomation.Options)) (*bedrockdataautomation.ListDataAutomationProjectsOutput, error)
	ListBlueprints(ctx context.Context, params *bedrockdataautomation.ListBlueprintsInput, optFns ...func(*bedrockdataautomation.Options)) (*bedrockdataautomation.ListBlueprintsOutput, error)
}

// RuntimeAPI is the subset of the runtime client used here.
type RuntimeAPI interface {
	InvokeDataAutomationAsync(ctx context.Context, params *bedrockdataautomationruntime.InvokeDataAutomationAsyncInput, optFns ...func(*bedrockdataautomationruntime.Options)) (*bedrockdataautomationruntime.InvokeDataAutomationAsyncOutput, error)
	GetDataAutomationStatus(ctx context.Context, params *bedrockdataautomationruntime.GetDataAutomationStatusInput, optFns ...func(*bedrockdataautomationruntime.Options)) (*bedrockdataautomationruntime.GetDataAutomationStatusOutput, error)
}

// IdentityAPI resolves the calling account.
type IdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Clients groups the AWS clients a pipeline run needs.
type Clients struct {
	Region   string
	Projects ProjectsAPI
	Runtime  RuntimeAPI
	Identity IdentityAPI
}

// NewClients loads the default AWS configuration for region and builds the clients.
func NewClients(ctx context.Context, region string) (*Clients, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Clients{
		Region:   cfg.Region,
		Projects: bedrockdataautomation.NewFromConfig(cfg),
		Runtime:  bedrockdataautomationruntime.NewFromConfig(cfg),
		Identity: sts.NewFromConfig(cfg),
	}, nil
}
