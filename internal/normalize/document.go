package normalize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"bda-pipeline/internal/shared/storage/object"
)

const maxDocumentBytes = 64 << 20

// readObject loads one stored document in full.
func readObject(ctx context.Context, store object.ObjectStore, uri string) ([]byte, error) {
	rc, err := store.Open(ctx, uri)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s: %v", ErrDocumentUnavailable, uri, err)
		}
		return nil, fmt.Errorf("open %s: %w", uri, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	if len(data) > maxDocumentBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrMalformedDocument, uri, maxDocumentBytes)
	}
	return data, nil
}

// DecodeRecords accepts a single JSON object, an array of objects, or
// newline-delimited objects, and returns them in order.
func DecodeRecords(data []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var out []map[string]any
	for {
		var v any
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		switch t := v.(type) {
		case map[string]any:
			out = append(out, t)
		case []any:
			for i, item := range t {
				obj, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("%w: array element %d is not an object", ErrMalformedDocument, i)
				}
				out = append(out, obj)
			}
		default:
			return nil, fmt.Errorf("%w: expected object, got %T", ErrMalformedDocument, v)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedDocument)
	}
	return out, nil
}
