package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/apache/arrow/go/v15/parquet"
	"github.com/apache/arrow/go/v15/parquet/compress"
	"github.com/apache/arrow/go/v15/parquet/pqarrow"

	"bda-pipeline/internal/normalize"
)

// ParquetWriter writes every column as nullable UTF-8.
type ParquetWriter struct{}

func (ParquetWriter) Format() Format      { return FormatParquet }
func (ParquetWriter) ContentType() string { return "application/vnd.apache.parquet" }

func (ParquetWriter) Write(w io.Writer, t *normalize.Table) error {
	cols := columns(t)
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{Name: c, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	for _, row := range rows(t) {
		for i, c := range cols {
			sb := b.Field(i).(*array.StringBuilder)
			if s, ok := CellString(row[c]); ok {
				sb.Append(s)
			} else {
				sb.AppendNull()
			}
		}
	}
	rec := b.NewRecord()
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	fw, err := pqarrow.NewFileWriter(schema, w, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("parquet writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return fmt.Errorf("parquet write: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("parquet close: %w", err)
	}
	return nil
}
