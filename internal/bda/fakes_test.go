package bda

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockdataautomation"
	bdatypes "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomation/types"
	"github.com/aws/aws-sdk-go-v2/service/bedrockdataautomationruntime"
	rttypes "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomationruntime/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// fakeProjects keeps projects by name and reports a conflict on duplicate creates.
type fakeProjects struct {
	mu         sync.Mutex
	projects   map[string]string // name -> arn
	blueprints map[string]string // name -> arn
	createErr  error
	pageSize   int

	creates []*bedrockdataautomation.CreateDataAutomationProjectInput
	gets    []string
	lists   int
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{
		projects:   map[string]string{},
		blueprints: map[string]string{"Advertisement": "arn:aws:bedrock:us-east-1:aws:blueprint/bedrock-data-automation-public-advertisement"},
	}
}

func (f *fakeProjects) CreateDataAutomationProject(ctx context.Context, params *bedrockdataautomation.CreateDataAutomationProjectInput, optFns ...func(*bedrockdataautomation.Options)) (*bedrockdataautomation.CreateDataAutomationProjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, params)
	if f.createErr != nil {
		return nil, f.createErr
	}
	name := aws.ToString(params.ProjectName)
	if _, ok := f.projects[name]; ok {
		return nil, &bdatypes.ConflictException{Message: aws.String("project already exists")}
	}
	arn := "arn:aws:bedrock:us-east-1:123456789012:data-automation-project/" + name
	f.projects[name] = arn
	return &bedrockdataautomation.CreateDataAutomationProjectOutput{
		ProjectArn: aws.String(arn),
		Status:     bdatypes.DataAutomationProjectStatus("IN_PROGRESS"),
	}, nil
}

func (f *fakeProjects) GetDataAutomationProject(ctx context.Context, params *bedrockdataautomation.GetDataAutomationProjectInput, optFns ...func(*bedrockdataautomation.Options)) (*bedrockdataautomation.GetDataAutomationProjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	arn := aws.ToString(params.ProjectArn)
	f.gets = append(f.gets, arn)
	for name, a := range f.projects {
		if a == arn {
			return &bedrockdataautomation.GetDataAutomationProjectOutput{
				Project: &bdatypes.DataAutomationProject{
					ProjectArn:   aws.String(arn),
					ProjectName:  aws.String(name),
					ProjectStage: params.ProjectStage,
					Status:       bdatypes.DataAutomationProjectStatus("COMPLETED"),
				},
			}, nil
		}
	}
	return nil, &bdatypes.ResourceNotFoundException{Message: aws.String("not found")}
}

func (f *fakeProjects) ListDataAutomationProjects(ctx context.Context, params *bedrockdataautomation.ListDataAutomationProjectsInput, optFns ...func(*bedrockdataautomation.Options)) (*bedrockdataautomation.ListDataAutomationProjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	var all []bdatypes.DataAutomationProjectSummary
	for _, name := range sortedKeys(f.projects) {
		all = append(all, bdatypes.DataAutomationProjectSummary{
			ProjectName: aws.String(name),
			ProjectArn:  aws.String(f.projects[name]),
		})
	}
	page, next := paginate(len(all), f.pageSize, aws.ToString(params.NextToken))
	out := &bedrockdataautomation.ListDataAutomationProjectsOutput{Projects: all[page[0]:page[1]]}
	if next != "" {
		out.NextToken = aws.String(next)
	}
	return out, nil
}

func (f *fakeProjects) ListBlueprints(ctx context.Context, params *bedrockdataautomation.ListBlueprintsInput, optFns ...func(*bedrockdataautomation.Options)) (*bedrockdataautomation.ListBlueprintsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if string(params.ResourceOwner) != "SERVICE" {
		return nil, errors.New("unexpected resource owner")
	}
	var all []bdatypes.BlueprintSummary
	for _, name := range sortedKeys(f.blueprints) {
		all = append(all, bdatypes.BlueprintSummary{
			BlueprintName: aws.String(name),
			BlueprintArn:  aws.String(f.blueprints[name]),
		})
	}
	page, next := paginate(len(all), f.pageSize, aws.ToString(params.NextToken))
	out := &bedrockdataautomation.ListBlueprintsOutput{Blueprints: all[page[0]:page[1]]}
	if next != "" {
		out.NextToken = aws.String(next)
	}
	return out, nil
}

// fakeRuntime replays a fixed status sequence; the last entry repeats.
type fakeRuntime struct {
	mu        sync.Mutex
	statuses  []rttypes.AutomationJobStatus
	outputURI string
	invokeErr error
	statusErr error

	invokes     []*bedrockdataautomationruntime.InvokeDataAutomationAsyncInput
	statusCalls int
}

func (f *fakeRuntime) InvokeDataAutomationAsync(ctx context.Context, params *bedrockdataautomationruntime.InvokeDataAutomationAsyncInput, optFns ...func(*bedrockdataautomationruntime.Options)) (*bedrockdataautomationruntime.InvokeDataAutomationAsyncOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invokes = append(f.invokes, params)
	if f.invokeErr != nil {
		return nil, f.invokeErr
	}
	return &bedrockdataautomationruntime.InvokeDataAutomationAsyncOutput{
		InvocationArn: aws.String("arn:aws:bedrock:us-east-1:123456789012:data-automation-invocation/inv-123"),
	}, nil
}

func (f *fakeRuntime) GetDataAutomationStatus(ctx context.Context, params *bedrockdataautomationruntime.GetDataAutomationStatusInput, optFns ...func(*bedrockdataautomationruntime.Options)) (*bedrockdataautomationruntime.GetDataAutomationStatusOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	idx := f.statusCalls - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	status := f.statuses[idx]
	out := &bedrockdataautomationruntime.GetDataAutomationStatusOutput{Status: status}
	if f.outputURI != "" {
		out.OutputConfiguration = &rttypes.OutputConfiguration{S3Uri: aws.String(f.outputURI)}
	}
	if status == "ClientError" {
		out.ErrorType = aws.String("Client.InvalidInput")
		out.ErrorMessage = aws.String("unsupported file")
	}
	return out, nil
}

func (f *fakeRuntime) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

type fakeIdentity struct {
	account string
	calls   int
}

func (f *fakeIdentity) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	f.calls++
	return &sts.GetCallerIdentityOutput{Account: aws.String(f.account)}, nil
}
