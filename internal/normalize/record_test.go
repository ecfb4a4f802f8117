package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlattenNestedObjects(t *testing.T) {
	got := Flatten(map[string]any{
		"metadata": map[string]any{"asset_id": "0", "s3_bucket": "b"},
		"image": map[string]any{
			"summary":    "a poster",
			"text_words": []any{map[string]any{"text": "SALE"}},
		},
		"empty": map[string]any{},
		"top":   "x",
	})
	require.Equal(t, Record{
		"metadata.asset_id":  "0",
		"metadata.s3_bucket": "b",
		"image.summary":      "a poster",
		"image.text_words":   []any{map[string]any{"text": "SALE"}},
		"empty":              map[string]any{},
		"top":                "x",
	}, got)
}

func TestLookupWalksNestedRemainder(t *testing.T) {
	r := Record{"video.transcript": map[string]any{"representation": map[string]any{"text": "hello"}}}
	v, ok := r.Lookup("video.transcript.representation.text")
	require.True(t, ok)
	require.Equal(t, "hello", v)

	_, ok = r.Lookup("video.summary")
	require.False(t, ok)
}

func TestBuildTableOrdersColumns(t *testing.T) {
	rows := []Record{
		{"zeta": 1, "asset_id": 0, "alpha": 2},
		{"job_id": "j", "beta": 3},
	}
	tbl := BuildTable(rows, "job_id", "asset_id", "missing")
	require.Equal(t, []string{"job_id", "asset_id", "alpha", "beta", "zeta"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
}
