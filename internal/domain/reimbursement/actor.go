package reimbursement

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"

	"github.com/reimburse/backend/internal/domain/shared"
)

// Role gates what an actor may do
type Role string

const (
	RoleUser     Role = "user"
	RoleApprover Role = "approver"
	RoleAdmin    Role = "admin"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleApprover, RoleAdmin:
		return true
	}
	return false
}

// CanApprove reports whether the role may approve, reject and settle requests
func (r Role) CanApprove() bool {
	return r == RoleApprover || r == RoleAdmin
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// Actor is the authenticated caller of an operation.
// It is passed explicitly into every lifecycle operation.
type Actor struct {
	UID   string
	Name  string
	Email string
	Role  Role
}

// IsAuthenticated reports whether the actor carries an identity
func (a Actor) IsAuthenticated() bool {
	return strings.TrimSpace(a.UID) != ""
}

// Snapshot returns an immutable copy of the actor's identity
func (a Actor) Snapshot() UserSnapshot {
	return UserSnapshot{UID: a.UID, Name: a.Name, Email: a.Email}
}

// RequireAuthenticated fails with UNAUTHENTICATED when there is no caller identity
func (a Actor) RequireAuthenticated() error {
	if !a.IsAuthenticated() {
		return shared.ErrUnauthenticated
	}
	return nil
}

// RequireApprover fails unless the actor is an approver or admin
func (a Actor) RequireApprover() error {
	if err := a.RequireAuthenticated(); err != nil {
		return err
	}
	if !a.Role.CanApprove() {
		return shared.NewDomainError("FORBIDDEN", "Approver or admin role required")
	}
	return nil
}

// RequireAdmin fails unless the actor is an admin
func (a Actor) RequireAdmin() error {
	if err := a.RequireAuthenticated(); err != nil {
		return err
	}
	if a.Role != RoleAdmin {
		return shared.NewDomainError("FORBIDDEN", "Admin role required")
	}
	return nil
}

// UserSnapshot is a point-in-time copy of a user's identity.
// Later profile edits never change a stored snapshot.
type UserSnapshot struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Value implements driver.Valuer for JSONB storage
func (s UserSnapshot) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSONB storage
func (s *UserSnapshot) Scan(value any) error {
	b, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		*s = UserSnapshot{}
		return nil
	}
	return json.Unmarshal(b, s)
}

// jsonBytes normalises a driver value read from a json/jsonb/text column
func jsonBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("unsupported type for json column")
	}
}
