package normalize

import (
	"context"
	"fmt"
	"strings"

	"bda-pipeline/internal/shared/storage/object"
	"bda-pipeline/internal/shared/telemetry"
)

const (
	ColSourceIndex    = "source_index"
	ColSourceFile     = "source_file"
	ColBlueprintName  = "blueprint_name"
	ColSummary        = "summary"
	ColTextWords      = "extracted_text_words"
	ColTextLines      = "extracted_text_lines"
	ColTranscript     = "extracted_transcript"
	segmentListField  = "segment_metadata"
	assetListField    = "output_metadata"
	standardPathField = "standard_output_path"
	customPathField   = "custom_output_path"
	inferencePrefix   = "inference_result."
	standardPrefix    = "standard."
)

var leadingColumns = []string{
	"job_id", "job_status", "semantic_modality", "asset_id",
	standardPathField, customPathField, "custom_output_status",
	ColSourceIndex, ColSourceFile, ColBlueprintName,
	ColSummary, ColTextWords, ColTextLines, ColTranscript,
}

type Normalizer struct {
	Store  object.ObjectStore
	Policy EmptyListPolicy
	// ModalityHint stands in for semantic_modality when a segment lacks it.
	ModalityHint string
}

func New(store object.ObjectStore, policy EmptyListPolicy) *Normalizer {
	if policy == "" {
		policy = EmptyListKeepRow
	}
	return &Normalizer{Store: store, Policy: policy}
}

// Normalize reads the job metadata at metadataURI and every document it
// references, producing one row per segment. Any unreadable document fails
// the whole call.
func (n *Normalizer) Normalize(ctx context.Context, metadataURI string) (*Table, error) {
	data, err := readObject(ctx, n.Store, metadataURI)
	if err != nil {
		return nil, err
	}
	meta, err := ValidateJobMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", metadataURI, err)
	}

	segments := SegmentRows(meta, n.Policy)
	rows := make([]Record, 0, len(segments))
	for idx, seg := range segments {
		merged, err := n.segment(ctx, idx, seg)
		if err != nil {
			return nil, err
		}
		rows = append(rows, merged)
	}

	telemetry.Info("normalize.table.built", map[string]any{
		"metadata_uri": metadataURI,
		"segments":     len(segments),
		"rows":         len(rows),
	})
	return BuildTable(rows, leadingColumns...), nil
}

// SegmentRows flattens the job metadata into one record per segment,
// carrying job-level scalars and asset fields onto every row.
func SegmentRows(meta JobMetadata, policy EmptyListPolicy) []Record {
	job := Record{}
	for k, v := range meta {
		if k == assetListField {
			continue
		}
		if _, isList := v.([]any); isList {
			continue
		}
		job[k] = v
	}
	job = Flatten(job)

	assets, _ := meta[assetListField].([]any)
	base := make([]Record, 0, len(assets))
	for _, a := range assets {
		obj, ok := a.(map[string]any)
		if !ok {
			continue
		}
		row := job.Clone()
		for k, v := range Flatten(obj) {
			row[k] = v
		}
		base = append(base, row)
	}
	return Explode(base, segmentListField, policy)
}

func (n *Normalizer) segment(ctx context.Context, idx int, seg Record) (Record, error) {
	var standard, custom Record

	if path := stringField(seg, standardPathField); path != "" {
		doc, err := n.loadOne(ctx, path)
		if err != nil {
			return nil, err
		}
		standard = Flatten(doc)
		standard[ColSourceIndex] = idx
		standard[ColSourceFile] = path
		modality := stringField(seg, "semantic_modality")
		if modality == "" {
			modality = n.ModalityHint
		}
		for k, v := range ModalityColumns(modality, standard) {
			standard[k] = v
		}
	}

	if path := stringField(seg, customPathField); path != "" {
		doc, err := n.loadOne(ctx, path)
		if err != nil {
			return nil, err
		}
		custom = CustomColumns(Flatten(doc))
	}

	return Merge(seg, standard, custom), nil
}

// loadOne reads a per-segment document, which must hold exactly one record
// so that every segment contributes one row.
func (n *Normalizer) loadOne(ctx context.Context, uri string) (map[string]any, error) {
	docs, err := n.load(ctx, uri)
	if err != nil {
		return nil, err
	}
	if len(docs) != 1 {
		return nil, fmt.Errorf("%w: %s holds %d records, want 1", ErrMalformedDocument, uri, len(docs))
	}
	return docs[0], nil
}

func (n *Normalizer) load(ctx context.Context, uri string) ([]map[string]any, error) {
	data, err := readObject(ctx, n.Store, uri)
	if err != nil {
		return nil, err
	}
	docs, err := DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}
	return docs, nil
}

// ModalityColumns picks the headline fields of a flattened standard output
// document for the given semantic modality.
func ModalityColumns(modality string, std Record) Record {
	out := Record{}
	pick := func(col, path string) {
		if v, ok := std.Lookup(path); ok {
			out[col] = v
		}
	}
	switch strings.ToUpper(modality) {
	case "IMAGE":
		pick(ColSummary, "image.summary")
		pick(ColTextWords, "image.text_words")
		pick(ColTextLines, "image.text_lines")
	case "VIDEO":
		pick(ColSummary, "video.summary")
		pick(ColTranscript, "video.transcript.representation.text")
	case "AUDIO":
		pick(ColSummary, "audio.summary")
		pick(ColTranscript, "audio.transcript.representation.text")
	case "DOCUMENT":
		pick(ColSummary, "document.summary")
	}
	return out
}

// CustomColumns lifts a flattened custom output document: the matched
// blueprint's name becomes blueprint_name and inference_result fields drop
// their prefix.
func CustomColumns(doc Record) Record {
	out := Record{}
	for k, v := range doc {
		if name, ok := strings.CutPrefix(k, inferencePrefix); ok {
			out[name] = v
			continue
		}
		out[k] = v
	}
	if v, ok := doc.Lookup("matched_blueprint.name"); ok {
		out[ColBlueprintName] = v
	}
	return out
}

// Merge joins one segment row with its standard and custom records. A
// standard value colliding with a segment column is kept as standard.<name>.
// Custom values win every collision; the value they displace moves to
// standard.<name> unless that column is already filled, in which case the
// standard document's value stays there.
func Merge(seg, standard, custom Record) Record {
	row := seg.Clone()
	for k, v := range standard {
		if _, taken := seg[k]; taken {
			row[standardPrefix+k] = v
			continue
		}
		row[k] = v
	}
	for k, v := range custom {
		if prev, taken := row[k]; taken {
			if _, kept := row[standardPrefix+k]; !kept {
				row[standardPrefix+k] = prev
			}
		}
		row[k] = v
	}
	return row
}

func stringField(r Record, key string) string {
	s, _ := r[key].(string)
	return strings.TrimSpace(s)
}
