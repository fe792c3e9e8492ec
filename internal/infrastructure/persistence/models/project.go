package models

import (
	"github.com/reimburse/backend/internal/domain/reimbursement"
)

// ProjectModel is the GORM model for the projects table
type ProjectModel struct {
	AggregateModel
	Name                      string                     `gorm:"type:varchar(200);not null"`
	Description               string                     `gorm:"type:text"`
	DocumentNo                string                     `gorm:"column:document_no;type:varchar(100)"`
	BudgetConfig              reimbursement.BudgetConfig `gorm:"type:jsonb;not null"`
	DirectorApprovalThreshold int64                      `gorm:"not null;default:600000"`
	BudgetWarningThreshold    int                        `gorm:"not null;default:85"`
	MemberUIDs                reimbursement.StringList   `gorm:"column:member_uids;type:jsonb;not null"`
	IsActive                  bool                       `gorm:"not null;default:true"`
	CreatedBy                 reimbursement.UserSnapshot `gorm:"type:jsonb;not null"`
}

// TableName returns the table name for ProjectModel
func (ProjectModel) TableName() string {
	return "projects"
}

// ToDomain converts ProjectModel to domain Project
func (m *ProjectModel) ToDomain() *reimbursement.Project {
	return &reimbursement.Project{
		BaseAggregateRoot:         m.AggregateModel.ToDomainAggregateRoot(),
		Name:                      m.Name,
		Description:               m.Description,
		DocumentNo:                m.DocumentNo,
		BudgetConfig:              m.BudgetConfig,
		DirectorApprovalThreshold: m.DirectorApprovalThreshold,
		BudgetWarningThreshold:    m.BudgetWarningThreshold,
		MemberUIDs:                m.MemberUIDs,
		IsActive:                  m.IsActive,
		CreatedBy:                 m.CreatedBy,
	}
}

// ProjectModelFromDomain creates a ProjectModel from a domain Project
func ProjectModelFromDomain(p *reimbursement.Project) *ProjectModel {
	m := &ProjectModel{
		Name:                      p.Name,
		Description:               p.Description,
		DocumentNo:                p.DocumentNo,
		BudgetConfig:              p.BudgetConfig,
		DirectorApprovalThreshold: p.DirectorApprovalThreshold,
		BudgetWarningThreshold:    p.BudgetWarningThreshold,
		MemberUIDs:                p.MemberUIDs,
		IsActive:                  p.IsActive,
		CreatedBy:                 p.CreatedBy,
	}
	if m.MemberUIDs == nil {
		m.MemberUIDs = reimbursement.StringList{}
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}
