package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// marshalFields converts document fields to JSON TEXT for storage.
// HTML escaping is disabled so stored text matches what clients sent.
func marshalFields(fields map[string]any) (string, error) {
	if len(fields) == 0 {
		return "{}", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fields); err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalFields parses stored JSON TEXT back into a field map.
func unmarshalFields(data string) (map[string]any, error) {
	fields := map[string]any{}
	if data == "" || data == "{}" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return fields, nil
}

// sortClause builds the ORDER BY clause for a sort spec.
// Field names are passed to json_extract as a bound parameter; only the
// direction keyword is interpolated.
func sortClause(spec *SortSpec) (string, []any) {
	if spec == nil {
		return "ORDER BY seq ASC", nil
	}
	dir := "ASC"
	if spec.Descending {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY json_extract(data, ?) %s, seq ASC", dir), []any{jsonPath(spec.Field)}
}

// jsonPath quotes a field name as a SQLite JSON path.
func jsonPath(field string) string {
	return `$."` + strings.ReplaceAll(field, `"`, `\"`) + `"`
}
