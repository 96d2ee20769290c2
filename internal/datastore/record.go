package datastore

import (
	"fmt"
	"strconv"
)

// Record is one result row keyed by column name. Drivers differ in the Go
// types they return, so use the typed accessors instead of asserting.
type Record map[string]any

// Int64 returns the column as an integer, 0 when absent or NULL.
func (r Record) Int64(column string) int64 {
	switch v := r[column].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case uint64:
		return int64(v) //nolint:gosec // row ids and counts fit in int64
	case uint32:
		return int64(v)
	case float64:
		return int64(v)
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

// Float64 returns the column as a float, 0 when absent or NULL.
func (r Record) Float64(column string) float64 {
	switch v := r[column].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case []byte:
		f, _ := strconv.ParseFloat(string(v), 64)
		return f
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	case nil:
		return 0
	default:
		return float64(r.Int64(column))
	}
}

// String returns the column as text, "" when absent or NULL.
func (r Record) String(column string) string {
	switch v := r[column].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// IsNull reports whether the column is absent or NULL.
func (r Record) IsNull(column string) bool {
	v, ok := r[column]
	return !ok || v == nil
}
