package reimbursement

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/shared"
)

// AppUser is the stored profile of an identity-provider user.
// It is keyed by the provider uid and carries the role used for authorization.
type AppUser struct {
	UID              string
	Email            string
	Name             string
	DisplayName      string
	Phone            string
	BankName         string
	BankAccount      string
	DefaultCommittee Committee
	Signature        string
	Role             Role
	ProjectIDs       UUIDList
	BankBookURL      string
	BankBookPath     string
	// BankBookImage is the legacy embedded bank book image, superseded by BankBookURL
	BankBookImage string
	SchemaVersion int
	// Version is the optimistic lock; the repository bumps it on every save
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAppUser provisions a profile with the plain user role
func NewAppUser(uid, email, name string) (*AppUser, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, shared.ErrUnauthenticated
	}
	now := time.Now().UTC()
	return &AppUser{
		UID:              uid,
		Email:            strings.TrimSpace(email),
		Name:             strings.TrimSpace(name),
		DefaultCommittee: CommitteeOperations,
		Role:             RoleUser,
		ProjectIDs:       UUIDList{},
		SchemaVersion:    shared.CurrentSchemaVersion,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Label returns the display name, falling back to the provider name
func (u *AppUser) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}

// Actor returns the caller identity backed by this profile
func (u *AppUser) Actor() Actor {
	return Actor{UID: u.UID, Name: u.Label(), Email: u.Email, Role: u.Role}
}

// ProfileUpdate carries the self-editable profile fields
type ProfileUpdate struct {
	DisplayName      string
	Phone            string
	BankName         string
	BankAccount      string
	DefaultCommittee Committee
	Signature        string
}

// UpdateProfile replaces the self-editable fields
func (u *AppUser) UpdateProfile(p ProfileUpdate) error {
	if p.DefaultCommittee != "" && !p.DefaultCommittee.IsValid() {
		return shared.NewDomainError("INVALID_ARGUMENT", MsgCommitteeInvalid)
	}
	u.DisplayName = strings.TrimSpace(p.DisplayName)
	u.Phone = strings.TrimSpace(p.Phone)
	u.BankName = strings.TrimSpace(p.BankName)
	u.BankAccount = strings.TrimSpace(p.BankAccount)
	if p.DefaultCommittee != "" {
		u.DefaultCommittee = p.DefaultCommittee
	}
	u.Signature = p.Signature
	u.touch()
	return nil
}

// RememberBanking copies submitted contact and bank details onto the profile.
// It returns false when nothing changed.
func (u *AppUser) RememberBanking(phone, bankName, bankAccount string) bool {
	phone, bankName, bankAccount = strings.TrimSpace(phone), strings.TrimSpace(bankName), strings.TrimSpace(bankAccount)
	if u.Phone == phone && u.BankName == bankName && u.BankAccount == bankAccount {
		return false
	}
	u.Phone = phone
	u.BankName = bankName
	u.BankAccount = bankAccount
	u.touch()
	return true
}

// SetBankBook records an uploaded bank book and drops any legacy embedded image
func (u *AppUser) SetBankBook(url, storagePath string) {
	u.BankBookURL = url
	u.BankBookPath = storagePath
	u.BankBookImage = ""
	u.touch()
}

// HasBankBook reports whether a bank book file is registered
func (u *AppUser) HasBankBook() bool {
	return u.BankBookURL != ""
}

// ClearEmbeddedBankBook drops the legacy image once a URL exists.
// It returns false when there was nothing to clear or no URL to fall back on.
func (u *AppUser) ClearEmbeddedBankBook() bool {
	if u.BankBookURL == "" || u.BankBookImage == "" {
		return false
	}
	u.BankBookImage = ""
	u.touch()
	return true
}

// ChangeRole sets the role of u. Only admins may do this, and never on themselves.
func (u *AppUser) ChangeRole(actor Actor, role Role) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ARGUMENT", "Unknown role")
	}
	if actor.UID == u.UID {
		return shared.NewDomainError("FORBIDDEN", "Admins cannot change their own role")
	}
	u.Role = role
	u.touch()
	return nil
}

// JoinProject adds the project to the user's list
func (u *AppUser) JoinProject(id uuid.UUID) bool {
	if u.ProjectIDs.Contains(id) {
		return false
	}
	u.ProjectIDs = append(u.ProjectIDs, id)
	u.touch()
	return true
}

// LeaveProject removes the project from the user's list
func (u *AppUser) LeaveProject(id uuid.UUID) bool {
	for i, pid := range u.ProjectIDs {
		if pid == id {
			u.ProjectIDs = append(u.ProjectIDs[:i:i], u.ProjectIDs[i+1:]...)
			u.touch()
			return true
		}
	}
	return false
}

func (u *AppUser) touch() {
	u.UpdatedAt = time.Now().UTC()
}
