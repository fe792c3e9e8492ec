package reimbursement

import (
	"database/sql/driver"
	"encoding/json"
	"slices"

	"github.com/google/uuid"
)

// UUIDList is a JSONB-backed list of ids
type UUIDList []uuid.UUID

// Contains reports whether id is in the list
func (l UUIDList) Contains(id uuid.UUID) bool {
	return slices.Contains(l, id)
}

// Value implements driver.Valuer for JSONB storage
func (l UUIDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSONB storage
func (l *UUIDList) Scan(value any) error {
	b, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		*l = UUIDList{}
		return nil
	}
	return json.Unmarshal(b, l)
}

// StringList is a JSONB-backed list of strings
type StringList []string

// Contains reports whether s is in the list
func (l StringList) Contains(s string) bool {
	return slices.Contains(l, s)
}

// Value implements driver.Valuer for JSONB storage
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSONB storage
func (l *StringList) Scan(value any) error {
	b, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(b, l)
}
