package models

import (
	"time"

	"github.com/reimburse/backend/internal/domain/reimbursement"
)

// UserModel is the GORM model for the users table.
// Rows are keyed by the identity-provider uid.
type UserModel struct {
	UID              string                  `gorm:"column:uid;type:varchar(128);primaryKey"`
	Email            string                  `gorm:"type:varchar(200)"`
	Name             string                  `gorm:"type:varchar(200)"`
	DisplayName      string                  `gorm:"type:varchar(200)"`
	Phone            string                  `gorm:"type:varchar(50)"`
	BankName         string                  `gorm:"type:varchar(100)"`
	BankAccount      string                  `gorm:"type:varchar(100)"`
	DefaultCommittee reimbursement.Committee `gorm:"type:varchar(20)"`
	Signature        string                  `gorm:"type:text"`
	Role             reimbursement.Role      `gorm:"type:varchar(20);not null;default:'user';index"`
	ProjectIDs       reimbursement.UUIDList  `gorm:"column:project_ids;type:jsonb;not null"`
	BankBookURL      string                  `gorm:"column:bank_book_url;type:text"`
	BankBookPath     string                  `gorm:"column:bank_book_path;type:text"`
	BankBookImage    string                  `gorm:"column:bank_book_image;type:text"`
	SchemaVersion    int                     `gorm:"not null;default:2"`
	Version          int                     `gorm:"not null;default:1"`
	CreatedAt        time.Time               `gorm:"not null"`
	UpdatedAt        time.Time               `gorm:"not null"`
}

// TableName returns the table name for UserModel
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to domain AppUser
func (m *UserModel) ToDomain() *reimbursement.AppUser {
	return &reimbursement.AppUser{
		UID:              m.UID,
		Email:            m.Email,
		Name:             m.Name,
		DisplayName:      m.DisplayName,
		Phone:            m.Phone,
		BankName:         m.BankName,
		BankAccount:      m.BankAccount,
		DefaultCommittee: m.DefaultCommittee,
		Signature:        m.Signature,
		Role:             m.Role,
		ProjectIDs:       m.ProjectIDs,
		BankBookURL:      m.BankBookURL,
		BankBookPath:     m.BankBookPath,
		BankBookImage:    m.BankBookImage,
		SchemaVersion:    m.SchemaVersion,
		Version:          m.Version,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// UserModelFromDomain creates a UserModel from a domain AppUser
func UserModelFromDomain(u *reimbursement.AppUser) *UserModel {
	m := &UserModel{
		UID:              u.UID,
		Email:            u.Email,
		Name:             u.Name,
		DisplayName:      u.DisplayName,
		Phone:            u.Phone,
		BankName:         u.BankName,
		BankAccount:      u.BankAccount,
		DefaultCommittee: u.DefaultCommittee,
		Signature:        u.Signature,
		Role:             u.Role,
		ProjectIDs:       u.ProjectIDs,
		BankBookURL:      u.BankBookURL,
		BankBookPath:     u.BankBookPath,
		BankBookImage:    u.BankBookImage,
		SchemaVersion:    u.SchemaVersion,
		Version:          u.Version,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
	if m.ProjectIDs == nil {
		m.ProjectIDs = reimbursement.UUIDList{}
	}
	return m
}
