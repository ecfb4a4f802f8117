package normalize

import "fmt"

type EmptyListPolicy string

const (
	// EmptyListKeepRow keeps one row with the list field set to null.
	EmptyListKeepRow EmptyListPolicy = "keep"
	// EmptyListDrop removes rows whose list field is empty.
	EmptyListDrop EmptyListPolicy = "drop"
)

func ParseEmptyListPolicy(s string) (EmptyListPolicy, error) {
	switch EmptyListPolicy(s) {
	case "", EmptyListKeepRow:
		return EmptyListKeepRow, nil
	case EmptyListDrop:
		return EmptyListDrop, nil
	default:
		return "", fmt.Errorf("unknown empty list policy %q", s)
	}
}

// Explode turns the list held in field into one row per element, copying
// every other column onto each new row. Object elements are flattened
// into the row without the field prefix; other elements stay under field.
// A missing field counts as an empty list. A column already on the row
// wins over an element column of the same name, which is then kept as
// field.<name>.
func Explode(rows []Record, field string, policy EmptyListPolicy) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		items, isList := row[field].([]any)
		if !isList {
			if v, present := row[field]; present && v != nil {
				out = append(out, row.Clone())
				continue
			}
		}
		if len(items) == 0 {
			if policy == EmptyListDrop {
				continue
			}
			r := row.Clone()
			r[field] = nil
			out = append(out, r)
			continue
		}
		for _, item := range items {
			r := row.Clone()
			delete(r, field)
			obj, ok := item.(map[string]any)
			if !ok {
				r[field] = item
				out = append(out, r)
				continue
			}
			for k, v := range Flatten(obj) {
				if _, taken := r[k]; taken {
					r[joinKey(field, k)] = v
					continue
				}
				r[k] = v
			}
			out = append(out, r)
		}
	}
	return out
}
