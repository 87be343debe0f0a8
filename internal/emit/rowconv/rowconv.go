// Package rowconv converts a raw CSV cell string into the Go native value
// its inferred field type implies, shared by every convert emitter so a SQL
// column, a Parquet value, and a spreadsheet cell all agree on what
// "integer" or "datetime" means for the same field.
package rowconv

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/kindly/csvs-convert/internal/model"
)

// goLayouts maps every strftime pattern the classifier can produce to the
// equivalent time.Parse reference layout. The set is fixed and small, since
// classify.go only ever emits one of these seven patterns.
var goLayouts = map[string]string{
	"%Y-%m-%dT%H:%M:%S": "2006-01-02T15:04:05",
	"%Y-%m-%d %H:%M:%S": "2006-01-02 15:04:05",
	"%Y-%m-%d %H:%M":    "2006-01-02 15:04",
	"%Y-%m-%d":          "2006-01-02",
	"%d/%m/%Y":          "02/01/2006",
	"%H:%M:%S":          "15:04:05",
	"%H:%M":             "15:04",
}

// Convert turns one trimmed, non-empty cell into the native value implied
// by field's inferred type. An empty cell always converts to nil,
// regardless of type. A value that fails to parse against its own inferred
// type (which should not happen, since the type was inferred from this
// same corpus) falls back to the raw trimmed string.
func Convert(cell string, field model.Field) any {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return nil
	}

	switch field.Type {
	case "boolean":
		if v, err := strconv.ParseBool(strings.ToLower(trimmed)); err == nil {
			return v
		}
	case "integer":
		if v, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return v
		}
	case "number":
		if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return v
		}
	case "date", "datetime", "time":
		if layout, ok := goLayouts[field.Format]; ok {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return t
			}
		}
	case "array":
		var v []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	case "object":
		var v map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return trimmed
}
