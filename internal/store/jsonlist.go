package store

import "encoding/json"

// encodeList serializes an ordered string list for a JSON text column.
// nil and empty both encode as "[]" so list columns are never NULL.
func encodeList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decodeList parses a JSON list column. Malformed data degrades to an
// empty list — these are advisory fields and must never fail a read.
func decodeList(raw string) []string {
	if raw == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	return items
}
