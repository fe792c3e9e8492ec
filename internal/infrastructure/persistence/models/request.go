package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/reimbursement"
)

// PaymentRequestModel is the GORM model for the requests table
type PaymentRequestModel struct {
	AggregateModel
	Status            reimbursement.Status        `gorm:"type:varchar(20);not null;index"`
	ProjectID         *uuid.UUID                  `gorm:"type:uuid;index"`
	Payee             string                      `gorm:"type:varchar(200);not null"`
	Phone             string                      `gorm:"type:varchar(50);not null"`
	BankName          string                      `gorm:"type:varchar(100);not null"`
	BankAccount       string                      `gorm:"type:varchar(100);not null"`
	Date              string                      `gorm:"type:varchar(10);not null"`
	Session           string                      `gorm:"type:varchar(50)"`
	Committee         reimbursement.Committee     `gorm:"type:varchar(20);not null"`
	Items             reimbursement.LineItems     `gorm:"type:jsonb;not null"`
	TotalAmount       int64                       `gorm:"not null"`
	Receipts          reimbursement.Receipts      `gorm:"type:jsonb;not null"`
	Comments          string                      `gorm:"type:text"`
	RequestedByUID    string                      `gorm:"column:requested_by_uid;type:varchar(128);not null;index"`
	RequestedBy       reimbursement.UserSnapshot  `gorm:"type:jsonb;not null"`
	ApprovedBy        *reimbursement.UserSnapshot `gorm:"type:jsonb"`
	ApprovalSignature string                      `gorm:"type:text"`
	ApprovedAt        *time.Time
	RejectionReason   string     `gorm:"type:text"`
	SettlementID      *uuid.UUID `gorm:"type:uuid;index"`
	OriginalRequestID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for PaymentRequestModel
func (PaymentRequestModel) TableName() string {
	return "requests"
}

// ToDomain converts PaymentRequestModel to domain PaymentRequest
func (m *PaymentRequestModel) ToDomain() *reimbursement.PaymentRequest {
	return &reimbursement.PaymentRequest{
		BaseAggregateRoot: m.AggregateModel.ToDomainAggregateRoot(),
		Status:            m.Status,
		ProjectID:         m.ProjectID,
		Payee:             m.Payee,
		Phone:             m.Phone,
		BankName:          m.BankName,
		BankAccount:       m.BankAccount,
		Date:              m.Date,
		Session:           m.Session,
		Committee:         m.Committee,
		Items:             m.Items,
		TotalAmount:       m.TotalAmount,
		Receipts:          m.Receipts,
		Comments:          m.Comments,
		RequestedBy:       m.RequestedBy,
		ApprovedBy:        m.ApprovedBy,
		ApprovalSignature: m.ApprovalSignature,
		ApprovedAt:        m.ApprovedAt,
		RejectionReason:   m.RejectionReason,
		SettlementID:      m.SettlementID,
		OriginalRequestID: m.OriginalRequestID,
	}
}

// FromDomain populates the model from a domain PaymentRequest
func (m *PaymentRequestModel) FromDomain(r *reimbursement.PaymentRequest) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.Status = r.Status
	m.ProjectID = r.ProjectID
	m.Payee = r.Payee
	m.Phone = r.Phone
	m.BankName = r.BankName
	m.BankAccount = r.BankAccount
	m.Date = r.Date
	m.Session = r.Session
	m.Committee = r.Committee
	m.Items = r.Items
	if m.Items == nil {
		m.Items = reimbursement.LineItems{}
	}
	m.TotalAmount = r.TotalAmount
	m.Receipts = r.Receipts
	if m.Receipts == nil {
		m.Receipts = reimbursement.Receipts{}
	}
	m.Comments = r.Comments
	m.RequestedByUID = r.RequestedBy.UID
	m.RequestedBy = r.RequestedBy
	m.ApprovedBy = r.ApprovedBy
	m.ApprovalSignature = r.ApprovalSignature
	m.ApprovedAt = r.ApprovedAt
	m.RejectionReason = r.RejectionReason
	m.SettlementID = r.SettlementID
	m.OriginalRequestID = r.OriginalRequestID
}

// PaymentRequestModelFromDomain creates a PaymentRequestModel from a domain PaymentRequest
func PaymentRequestModelFromDomain(r *reimbursement.PaymentRequest) *PaymentRequestModel {
	m := &PaymentRequestModel{}
	m.FromDomain(r)
	return m
}
