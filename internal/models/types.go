package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// StringSlice represents a slice of strings that can be stored in the database
type StringSlice []string

// Value converts the slice to a JSON string for storage
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	return json.Marshal(s)
}

// Scan converts the database value back to a slice
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported type for StringSlice")
	}
}

// Contains reports whether the slice holds the given value
func (s StringSlice) Contains(value string) bool {
	for _, v := range s {
		if v == value {
			return true
		}
	}
	return false
}
