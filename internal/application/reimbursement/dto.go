package reimbursement

import (
	"time"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/reimbursement"
)

// LineItemDTO is a single expense line
type LineItemDTO struct {
	Description string `json:"description"`
	BudgetCode  int    `json:"budget_code"`
	Amount      int64  `json:"amount"`
}

// ReceiptDTO is a stored receipt. Legacy drive receipts only carry the drive fields.
type ReceiptDTO struct {
	FileName    string `json:"file_name,omitempty"`
	URL         string `json:"url,omitempty"`
	StoragePath string `json:"storage_path,omitempty"`
	DriveFileID string `json:"drive_file_id,omitempty"`
	DriveURL    string `json:"drive_url,omitempty"`
}

// UserSnapshotDTO identifies a submitter or approver
type UserSnapshotDTO struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RequestInput is the content of a new or resubmitted request
type RequestInput struct {
	ProjectID   *uuid.UUID
	Payee       string
	Phone       string
	BankName    string
	BankAccount string
	Date        string
	Session     string
	Committee   string
	Items       []LineItemDTO
	Receipts    []ReceiptDTO
	Comments    string
}

func (in RequestInput) toDraft() reimbursement.RequestDraft {
	items := make([]reimbursement.LineItem, len(in.Items))
	for i, it := range in.Items {
		items[i] = reimbursement.LineItem{Description: it.Description, BudgetCode: it.BudgetCode, Amount: it.Amount}
	}
	receipts := make([]reimbursement.Receipt, 0, len(in.Receipts))
	for _, r := range in.Receipts {
		receipts = append(receipts, fromReceiptDTO(r))
	}
	return reimbursement.RequestDraft{
		ProjectID:   in.ProjectID,
		Payee:       in.Payee,
		Phone:       in.Phone,
		BankName:    in.BankName,
		BankAccount: in.BankAccount,
		Date:        in.Date,
		Session:     in.Session,
		Committee:   reimbursement.Committee(in.Committee),
		Items:       items,
		Receipts:    receipts,
		Comments:    in.Comments,
	}
}

// ListRequestsInput filters request listings
type ListRequestsInput struct {
	Status      string
	Committee   string
	ProjectID   *uuid.UUID
	RequestedBy string
	// Mine restricts the listing to the caller's own requests
	Mine     bool
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// PaymentRequestResponse is a payment request in API responses
type PaymentRequestResponse struct {
	ID                uuid.UUID        `json:"id"`
	Status            string           `json:"status"`
	ProjectID         *uuid.UUID       `json:"project_id"`
	Payee             string           `json:"payee"`
	Phone             string           `json:"phone"`
	BankName          string           `json:"bank_name"`
	BankAccount       string           `json:"bank_account"`
	Date              string           `json:"date"`
	Session           string           `json:"session"`
	Committee         string           `json:"committee"`
	Items             []LineItemDTO    `json:"items"`
	TotalAmount       int64            `json:"total_amount"`
	Receipts          []ReceiptDTO     `json:"receipts"`
	Comments          string           `json:"comments"`
	RequestedBy       UserSnapshotDTO  `json:"requested_by"`
	ApprovedBy        *UserSnapshotDTO `json:"approved_by,omitempty"`
	ApprovalSignature string           `json:"approval_signature,omitempty"`
	ApprovedAt        *time.Time       `json:"approved_at,omitempty"`
	RejectionReason   string           `json:"rejection_reason,omitempty"`
	SettlementID      *uuid.UUID       `json:"settlement_id,omitempty"`
	OriginalRequestID *uuid.UUID       `json:"original_request_id,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	Version           int              `json:"version"`
}

// ApprovalResponse is the approved request plus the director sign-off advisory
type ApprovalResponse struct {
	Request                   PaymentRequestResponse `json:"request"`
	RequiresDirectorApproval  bool                   `json:"requires_director_approval"`
	DirectorApprovalThreshold int64                  `json:"director_approval_threshold"`
}

// SettleInput selects approved requests for one settlement
type SettleInput struct {
	RequestIDs           []uuid.UUID
	RequestedBySignature string
	ApprovalSignature    string
}

// ListSettlementsInput filters settlement listings
type ListSettlementsInput struct {
	ProjectID *uuid.UUID
	Committee string
	Payee     string
	Page      int
	PageSize  int
}

// SettlementResponse is a settlement in API responses
type SettlementResponse struct {
	ID                   uuid.UUID        `json:"id"`
	ProjectID            *uuid.UUID       `json:"project_id"`
	Committee            string           `json:"committee"`
	Session              string           `json:"session"`
	Payee                string           `json:"payee"`
	Phone                string           `json:"phone"`
	BankName             string           `json:"bank_name"`
	BankAccount          string           `json:"bank_account"`
	Items                []LineItemDTO    `json:"items"`
	TotalAmount          int64            `json:"total_amount"`
	RequestIDs           []uuid.UUID      `json:"request_ids"`
	Receipts             []ReceiptDTO     `json:"receipts"`
	RequestedBySignature string           `json:"requested_by_signature,omitempty"`
	ApprovalSignature    string           `json:"approval_signature,omitempty"`
	ApprovedBy           *UserSnapshotDTO `json:"approved_by,omitempty"`
	CreatedBy            UserSnapshotDTO  `json:"created_by"`
	CreatedAt            time.Time        `json:"created_at"`
	Version              int              `json:"version"`
}

// BudgetUsageResponse is the budget consumption of a project
type BudgetUsageResponse struct {
	ProjectID                 uuid.UUID                  `json:"project_id"`
	Budget                    reimbursement.BudgetStatus `json:"budget"`
	ByCode                    []reimbursement.CodeUsage  `json:"by_code"`
	DirectorApprovalThreshold int64                      `json:"director_approval_threshold"`
}

// ProjectInput is the editable content of a project
type ProjectInput struct {
	Name                      string
	Description               string
	DocumentNo                string
	TotalBudget               int64
	BudgetByCode              map[int]int64
	DirectorApprovalThreshold int64
	BudgetWarningThreshold    int
	IsActive                  *bool
}

func (in ProjectInput) toDraft() reimbursement.ProjectDraft {
	return reimbursement.ProjectDraft{
		Name:                      in.Name,
		Description:               in.Description,
		DocumentNo:                in.DocumentNo,
		BudgetConfig:              reimbursement.BudgetConfig{TotalBudget: in.TotalBudget, ByCode: in.BudgetByCode},
		DirectorApprovalThreshold: in.DirectorApprovalThreshold,
		BudgetWarningThreshold:    in.BudgetWarningThreshold,
		Active:                    in.IsActive,
	}
}

// ProjectResponse is a project in API responses
type ProjectResponse struct {
	ID                        uuid.UUID     `json:"id"`
	Name                      string        `json:"name"`
	Description               string        `json:"description"`
	DocumentNo                string        `json:"document_no"`
	TotalBudget               int64         `json:"total_budget"`
	BudgetByCode              map[int]int64 `json:"budget_by_code,omitempty"`
	DirectorApprovalThreshold int64         `json:"director_approval_threshold"`
	BudgetWarningThreshold    int           `json:"budget_warning_threshold"`
	MemberUIDs                []string      `json:"member_uids"`
	IsActive                  bool          `json:"is_active"`
	CreatedAt                 time.Time     `json:"created_at"`
	UpdatedAt                 time.Time     `json:"updated_at"`
	Version                   int           `json:"version"`
}

// MembershipResponse reports a membership change
type MembershipResponse struct {
	Project ProjectResponse `json:"project"`
	Added   []string        `json:"added"`
	Removed []string        `json:"removed"`
}

// UpdateProfileInput carries the self-editable profile fields
type UpdateProfileInput struct {
	DisplayName      string
	Phone            string
	BankName         string
	BankAccount      string
	DefaultCommittee string
	Signature        string
}

// ListUsersInput filters user listings
type ListUsersInput struct {
	Role     string
	Search   string
	Page     int
	PageSize int
}

// UserResponse is a user profile in API responses
type UserResponse struct {
	UID              string      `json:"uid"`
	Email            string      `json:"email"`
	Name             string      `json:"name"`
	DisplayName      string      `json:"display_name"`
	Phone            string      `json:"phone"`
	BankName         string      `json:"bank_name"`
	BankAccount      string      `json:"bank_account"`
	DefaultCommittee string      `json:"default_committee"`
	Signature        string      `json:"signature,omitempty"`
	Role             string      `json:"role"`
	ProjectIDs       []uuid.UUID `json:"project_ids"`
	BankBookURL      string      `json:"bank_book_url,omitempty"`
	HasBankBook      bool        `json:"has_bank_book"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// GlobalSettingsResponse is the global settings document
type GlobalSettingsResponse struct {
	DefaultProjectID *uuid.UUID `json:"default_project_id"`
}

// BudgetConfigResponse is the legacy application-wide budget configuration
type BudgetConfigResponse struct {
	TotalBudget int64         `json:"total_budget"`
	ByCode      map[int]int64 `json:"by_code"`
}

// UploadFile is one file of an upload call, carried as a base64 data URI
type UploadFile struct {
	Name string
	Data string
}

// UploadReceiptsInput is a batch of receipt files for one committee
type UploadReceiptsInput struct {
	Files     []UploadFile
	Committee string
	ProjectID *uuid.UUID
}

// UploadResult is the outcome for a single uploaded file
type UploadResult struct {
	FileName    string `json:"file_name"`
	URL         string `json:"url,omitempty"`
	StoragePath string `json:"storage_path,omitempty"`
	Error       string `json:"error,omitempty"`
}

// OK reports whether the file was stored
func (r UploadResult) OK() bool {
	return r.Error == ""
}

// FetchedFile is a downloaded object
type FetchedFile struct {
	Data        []byte
	ContentType string
	FileName    string
}

// DownloadedFile is a downloaded object encoded for JSON transport
type DownloadedFile struct {
	Data        string `json:"data"`
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name"`
}

// Archive is a generated zip file
type Archive struct {
	FileName string
	Data     []byte
	Entries  int
	Skipped  int
}

// ExportedReport is a rendered settlement report
type ExportedReport struct {
	FileName    string
	ContentType string
	Data        []byte
}

func toReceiptDTO(r reimbursement.Receipt) ReceiptDTO {
	return ReceiptDTO{
		FileName:    r.FileName,
		URL:         r.URL,
		StoragePath: r.StoragePath,
		DriveFileID: r.DriveFileID,
		DriveURL:    r.DriveURL,
	}
}

func fromReceiptDTO(r ReceiptDTO) reimbursement.Receipt {
	return reimbursement.Receipt{
		FileName:    r.FileName,
		URL:         r.URL,
		StoragePath: r.StoragePath,
		DriveFileID: r.DriveFileID,
		DriveURL:    r.DriveURL,
	}
}

func toReceiptDTOs(receipts reimbursement.Receipts) []ReceiptDTO {
	out := make([]ReceiptDTO, len(receipts))
	for i, r := range receipts {
		out[i] = toReceiptDTO(r)
	}
	return out
}

func toLineItemDTOs(items reimbursement.LineItems) []LineItemDTO {
	out := make([]LineItemDTO, len(items))
	for i, it := range items {
		out[i] = LineItemDTO{Description: it.Description, BudgetCode: it.BudgetCode, Amount: it.Amount}
	}
	return out
}

func toSnapshotDTO(s reimbursement.UserSnapshot) UserSnapshotDTO {
	return UserSnapshotDTO{UID: s.UID, Name: s.Name, Email: s.Email}
}

func toSnapshotDTOPtr(s *reimbursement.UserSnapshot) *UserSnapshotDTO {
	if s == nil {
		return nil
	}
	dto := toSnapshotDTO(*s)
	return &dto
}

// ToPaymentRequestResponse converts a domain request to its response
func ToPaymentRequestResponse(r *reimbursement.PaymentRequest) PaymentRequestResponse {
	return PaymentRequestResponse{
		ID:                r.ID,
		Status:            string(r.Status),
		ProjectID:         r.ProjectID,
		Payee:             r.Payee,
		Phone:             r.Phone,
		BankName:          r.BankName,
		BankAccount:       r.BankAccount,
		Date:              r.Date,
		Session:           r.Session,
		Committee:         string(r.Committee),
		Items:             toLineItemDTOs(r.Items),
		TotalAmount:       r.TotalAmount,
		Receipts:          toReceiptDTOs(r.Receipts),
		Comments:          r.Comments,
		RequestedBy:       toSnapshotDTO(r.RequestedBy),
		ApprovedBy:        toSnapshotDTOPtr(r.ApprovedBy),
		ApprovalSignature: r.ApprovalSignature,
		ApprovedAt:        r.ApprovedAt,
		RejectionReason:   r.RejectionReason,
		SettlementID:      r.SettlementID,
		OriginalRequestID: r.OriginalRequestID,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		Version:           r.Version,
	}
}

// ToSettlementResponse converts a domain settlement to its response
func ToSettlementResponse(s *reimbursement.Settlement) SettlementResponse {
	return SettlementResponse{
		ID:                   s.ID,
		ProjectID:            s.ProjectID,
		Committee:            string(s.Committee),
		Session:              s.Session,
		Payee:                s.Payee,
		Phone:                s.Phone,
		BankName:             s.BankName,
		BankAccount:          s.BankAccount,
		Items:                toLineItemDTOs(s.Items),
		TotalAmount:          s.TotalAmount,
		RequestIDs:           append([]uuid.UUID(nil), s.RequestIDs...),
		Receipts:             toReceiptDTOs(s.Receipts),
		RequestedBySignature: s.RequestedBySignature,
		ApprovalSignature:    s.ApprovalSignature,
		ApprovedBy:           toSnapshotDTOPtr(s.ApprovedBy),
		CreatedBy:            toSnapshotDTO(s.CreatedBy),
		CreatedAt:            s.CreatedAt,
		Version:              s.Version,
	}
}

// ToProjectResponse converts a domain project to its response
func ToProjectResponse(p *reimbursement.Project) ProjectResponse {
	members := append([]string{}, p.MemberUIDs...)
	return ProjectResponse{
		ID:                        p.ID,
		Name:                      p.Name,
		Description:               p.Description,
		DocumentNo:                p.DocumentNo,
		TotalBudget:               p.BudgetConfig.TotalBudget,
		BudgetByCode:              p.BudgetConfig.ByCode,
		DirectorApprovalThreshold: p.DirectorApprovalThreshold,
		BudgetWarningThreshold:    p.BudgetWarningThreshold,
		MemberUIDs:                members,
		IsActive:                  p.IsActive,
		CreatedAt:                 p.CreatedAt,
		UpdatedAt:                 p.UpdatedAt,
		Version:                   p.Version,
	}
}

// ToUserResponse converts a profile to its response
func ToUserResponse(u *reimbursement.AppUser) UserResponse {
	return UserResponse{
		UID:              u.UID,
		Email:            u.Email,
		Name:             u.Name,
		DisplayName:      u.DisplayName,
		Phone:            u.Phone,
		BankName:         u.BankName,
		BankAccount:      u.BankAccount,
		DefaultCommittee: string(u.DefaultCommittee),
		Signature:        u.Signature,
		Role:             string(u.Role),
		ProjectIDs:       append([]uuid.UUID{}, u.ProjectIDs...),
		BankBookURL:      u.BankBookURL,
		HasBankBook:      u.HasBankBook(),
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}
