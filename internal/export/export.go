// Package export writes normalized result tables as parquet or xlsx files.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bda-pipeline/internal/normalize"
	"bda-pipeline/internal/shared/storage/object"
	"bda-pipeline/internal/shared/util"
)

type Format string

const (
	FormatParquet Format = "parquet"
	FormatXLSX    Format = "xlsx"
)

const resultBaseName = "final_result"

var ErrUnsupportedFormat = errors.New("unsupported result format")

// Writer encodes a table in one file format.
type Writer interface {
	Format() Format
	ContentType() string
	Write(w io.Writer, t *normalize.Table) error
}

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))) {
	case "", FormatParquet:
		return FormatParquet, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

func NewWriter(f Format) (Writer, error) {
	switch f {
	case FormatParquet, "":
		return ParquetWriter{}, nil
	case FormatXLSX:
		return XLSXWriter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// ResultURI builds <prefix>/<project>/<invocation id>/final_result.<ext>.
func ResultURI(prefix, project, invocationID string, f Format) (string, error) {
	projectSeg, err := util.SanitizePathSegment(project)
	if err != nil {
		return "", fmt.Errorf("project name: %w", err)
	}
	invocationSeg, err := util.SanitizePathSegment(invocationID)
	if err != nil {
		return "", fmt.Errorf("invocation id: %w", err)
	}
	if f == "" {
		f = FormatParquet
	}
	return object.JoinURI(prefix, projectSeg, invocationSeg, resultBaseName+"."+string(f))
}

// Save encodes t with w and stores it at uri, returning the bytes written.
func Save(ctx context.Context, store object.ObjectStore, uri string, w Writer, t *normalize.Table) (int64, error) {
	var buf bytes.Buffer
	if err := w.Write(&buf, t); err != nil {
		return 0, fmt.Errorf("encode %s: %w", w.Format(), err)
	}
	n, err := store.Save(ctx, uri, w.ContentType(), bytes.NewReader(buf.Bytes()))
	if err != nil {
		return 0, fmt.Errorf("save %s: %w", uri, err)
	}
	return n, nil
}

// CellString renders a value for a string column. The boolean is false for
// null. Nested objects and lists are JSON-encoded.
func CellString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t), true
		}
		return string(b), true
	}
}

// columns falls back to a single placeholder column for an empty table.
func columns(t *normalize.Table) []string {
	if t == nil || len(t.Columns) == 0 {
		return []string{"job_id"}
	}
	return t.Columns
}

func rows(t *normalize.Table) []normalize.Record {
	if t == nil {
		return nil
	}
	return t.Rows
}
