package normalize

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/job_metadata.json
var jobMetadataSchemaJSON []byte

var (
	jobMetadataSchemaOnce sync.Once
	jobMetadataSchema     *jsonschema.Schema
	jobMetadataSchemaErr  error
)

func compiledJobMetadataSchema() (*jsonschema.Schema, error) {
	jobMetadataSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("job_metadata.json", bytes.NewReader(jobMetadataSchemaJSON)); err != nil {
			jobMetadataSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		jobMetadataSchema, jobMetadataSchemaErr = compiler.Compile("job_metadata.json")
	})
	return jobMetadataSchema, jobMetadataSchemaErr
}

// JobMetadata is the decoded job_metadata.json of one invocation.
type JobMetadata map[string]any

func (m JobMetadata) Modality() string {
	s, _ := m["semantic_modality"].(string)
	return s
}

// ValidateJobMetadata decodes data and checks it against the job metadata schema.
func ValidateJobMetadata(data []byte) (JobMetadata, error) {
	schema, err := compiledJobMetadataSchema()
	if err != nil {
		return nil, fmt.Errorf("compile job metadata schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected object", ErrMalformedDocument)
	}
	return JobMetadata(obj), nil
}
