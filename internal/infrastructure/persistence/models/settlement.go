package models

import (
	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/reimbursement"
)

// SettlementModel is the GORM model for the settlements table
type SettlementModel struct {
	AggregateModel
	ProjectID            *uuid.UUID                  `gorm:"type:uuid;index"`
	Committee            reimbursement.Committee     `gorm:"type:varchar(20);not null"`
	Session              string                      `gorm:"type:varchar(50)"`
	Payee                string                      `gorm:"type:varchar(200);not null;index"`
	Phone                string                      `gorm:"type:varchar(50)"`
	BankName             string                      `gorm:"type:varchar(100)"`
	BankAccount          string                      `gorm:"type:varchar(100)"`
	Items                reimbursement.LineItems     `gorm:"type:jsonb;not null"`
	TotalAmount          int64                       `gorm:"not null"`
	RequestIDs           reimbursement.UUIDList      `gorm:"column:request_ids;type:jsonb;not null"`
	Receipts             reimbursement.Receipts      `gorm:"type:jsonb;not null"`
	RequestedBySignature string                      `gorm:"type:text"`
	ApprovalSignature    string                      `gorm:"type:text"`
	ApprovedBy           *reimbursement.UserSnapshot `gorm:"type:jsonb"`
	CreatedBy            reimbursement.UserSnapshot  `gorm:"type:jsonb;not null"`
}

// TableName returns the table name for SettlementModel
func (SettlementModel) TableName() string {
	return "settlements"
}

// ToDomain converts SettlementModel to domain Settlement
func (m *SettlementModel) ToDomain() *reimbursement.Settlement {
	return &reimbursement.Settlement{
		BaseAggregateRoot:    m.AggregateModel.ToDomainAggregateRoot(),
		ProjectID:            m.ProjectID,
		Committee:            m.Committee,
		Session:              m.Session,
		Payee:                m.Payee,
		Phone:                m.Phone,
		BankName:             m.BankName,
		BankAccount:          m.BankAccount,
		Items:                m.Items,
		TotalAmount:          m.TotalAmount,
		RequestIDs:           m.RequestIDs,
		Receipts:             m.Receipts,
		RequestedBySignature: m.RequestedBySignature,
		ApprovalSignature:    m.ApprovalSignature,
		ApprovedBy:           m.ApprovedBy,
		CreatedBy:            m.CreatedBy,
	}
}

// FromDomain populates the model from a domain Settlement
func (m *SettlementModel) FromDomain(s *reimbursement.Settlement) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.ProjectID = s.ProjectID
	m.Committee = s.Committee
	m.Session = s.Session
	m.Payee = s.Payee
	m.Phone = s.Phone
	m.BankName = s.BankName
	m.BankAccount = s.BankAccount
	m.Items = s.Items
	m.TotalAmount = s.TotalAmount
	m.RequestIDs = s.RequestIDs
	m.Receipts = s.Receipts
	m.RequestedBySignature = s.RequestedBySignature
	m.ApprovalSignature = s.ApprovalSignature
	m.ApprovedBy = s.ApprovedBy
	m.CreatedBy = s.CreatedBy
}

// SettlementModelFromDomain creates a SettlementModel from a domain Settlement
func SettlementModelFromDomain(s *reimbursement.Settlement) *SettlementModel {
	m := &SettlementModel{}
	m.FromDomain(s)
	return m
}
