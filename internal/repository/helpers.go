package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/concordance/api/internal/database"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

var errUnexpectedResult = errors.New("unexpected result format")

// isUniqueConstraintError checks if an error is a unique index violation
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, database.ErrDuplicate) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "already contains") ||
		strings.Contains(errStr, "already exists")
}

// convertSurrealID converts a SurrealDB ID (which may be a complex object) to a string
func convertSurrealID(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%s:%v", v.Table, v.ID)
		}
		return ""
	case map[string]interface{}:
		tb, _ := v["tb"].(string)
		if tb == "" {
			tb, _ = v["Table"].(string)
		}
		idPart := ""
		if idVal, ok := v["id"]; ok {
			idPart = extractIDValue(idVal)
		} else if idVal, ok := v["ID"]; ok {
			idPart = extractIDValue(idVal)
		}
		if tb != "" && idPart != "" {
			return tb + ":" + idPart
		}
		if idPart != "" {
			return idPart
		}
	}
	return fmt.Sprintf("%v", id)
}

// extractIDValue extracts the ID value which may be nested
func extractIDValue(val interface{}) string {
	if str, ok := val.(string); ok {
		return str
	}
	if m, ok := val.(map[string]interface{}); ok {
		if s, ok := m["String"].(string); ok {
			return s
		}
	}
	return fmt.Sprintf("%v", val)
}

// parseTime parses time from the formats the driver returns
func parseTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
	case models.CustomDateTime:
		return t.Time, true
	case *models.CustomDateTime:
		if t != nil {
			return t.Time, true
		}
	}
	return time.Time{}, false
}

// firstRecord unwraps a QueryOne or Query result down to its first record.
// It returns database.ErrNotFound when there is none.
func firstRecord(result interface{}) (map[string]interface{}, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}
	if arr, ok := result.([]interface{}); ok {
		if len(arr) == 0 {
			return nil, database.ErrNotFound
		}
		result = arr[0]
	}
	if resp, ok := result.(map[string]interface{}); ok {
		if status, ok := resp["status"].(string); ok && status == "OK" {
			result = resp["result"]
			if arr, ok := result.([]interface{}); ok {
				if len(arr) == 0 {
					return nil, database.ErrNotFound
				}
				result = arr[0]
			}
		}
	}
	data, ok := result.(map[string]interface{})
	if !ok || data == nil {
		return nil, errUnexpectedResult
	}
	return data, nil
}

// statementRecords returns the records of the last statement of a Query result
func statementRecords(results []interface{}) []map[string]interface{} {
	if len(results) == 0 {
		return nil
	}
	resp, ok := results[len(results)-1].(map[string]interface{})
	if !ok {
		return nil
	}
	rows, ok := resp["result"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		if data, ok := row.(map[string]interface{}); ok {
			out = append(out, data)
		}
	}
	return out
}

// decodeRecord turns a SurrealDB record into T. Record links listed in
// links are flattened to "table:id" strings and datetimes to time.Time
// before the JSON round trip.
func decodeRecord[T any](data map[string]interface{}, links ...string) (*T, error) {
	clean := make(map[string]interface{}, len(data))
	for k, v := range data {
		clean[k] = v
	}
	clean["id"] = convertSurrealID(data["id"])
	for _, key := range links {
		if v, ok := data[key]; ok && v != nil {
			clean[key] = convertSurrealID(v)
		}
	}
	for _, key := range []string{"created_on", "updated_on"} {
		if t, ok := parseTime(data[key]); ok {
			clean[key] = t
		}
	}

	raw, err := json.Marshal(clean)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// decodeRecords decodes every record of the last statement of a Query result
func decodeRecords[T any](results []interface{}, links ...string) ([]*T, error) {
	rows := statementRecords(results)
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		item, err := decodeRecord[T](row, links...)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// getOne runs a single-record query and decodes it. A missing record yields (nil, nil).
func getOne[T any](result interface{}, err error, links ...string) (*T, error) {
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	data, err := firstRecord(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[T](data, links...)
}
