// Package normalize turns a finished invocation's output documents into a
// single row-per-segment table.
package normalize

import (
	"sort"
	"strings"
)

// Record is one schema-free row: column name to value.
type Record map[string]any

func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Keys returns the record's column names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flatten expands nested objects into dotted column names. Lists are left
// as values; use Explode to turn them into rows.
func Flatten(v map[string]any) Record {
	out := Record{}
	flattenInto(out, "", v)
	return out
}

func flattenInto(out Record, prefix string, v map[string]any) {
	for k, val := range v {
		key := joinKey(prefix, k)
		if nested, ok := val.(map[string]any); ok && len(nested) > 0 {
			flattenInto(out, key, nested)
			continue
		}
		out[key] = val
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// Lookup reads a dotted path from a flattened record, falling back to
// walking nested maps stored under a shorter prefix.
func (r Record) Lookup(path string) (any, bool) {
	if v, ok := r[path]; ok {
		return v, true
	}
	parts := strings.Split(path, ".")
	for i := len(parts) - 1; i > 0; i-- {
		head, ok := r[strings.Join(parts[:i], ".")]
		if !ok {
			continue
		}
		cur := head
		for _, p := range parts[i:] {
			m, ok := cur.(map[string]any)
			if !ok {
				cur = nil
				break
			}
			cur = m[p]
		}
		if cur != nil {
			return cur, true
		}
	}
	return nil, false
}

// Table is an ordered set of columns and the rows that fill them.
type Table struct {
	Columns []string
	Rows    []Record
}

// BuildTable orders columns with the leading names that occur in any row
// first, then every other column sorted by name.
func BuildTable(rows []Record, leading ...string) *Table {
	present := map[string]struct{}{}
	for _, r := range rows {
		for k := range r {
			present[k] = struct{}{}
		}
	}
	t := &Table{Rows: rows}
	for _, c := range leading {
		if _, ok := present[c]; ok {
			t.Columns = append(t.Columns, c)
			delete(present, c)
		}
	}
	rest := make([]string, 0, len(present))
	for k := range present {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	t.Columns = append(t.Columns, rest...)
	return t
}

func (t *Table) Len() int {
	return len(t.Rows)
}
