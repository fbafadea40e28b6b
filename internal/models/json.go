package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

// JSON is an opaque JSON document stored as json/jsonb text.
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(v any) error {
	switch t := v.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0], t...)
	case string:
		*j = JSON(t)
	default:
		return fmt.Errorf("models.JSON: unsupported scan type %T", v)
	}
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(b []byte) error {
	if j == nil {
		return errors.New("models.JSON: UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[:0], b...)
	return nil
}

// IsEmpty treats null, {}, [] and "" as absent.
func (j JSON) IsEmpty() bool {
	switch string(j) {
	case "", "null", "{}", "[]", `""`:
		return true
	}
	return false
}
