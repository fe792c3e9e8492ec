package reimbursement

import "time"

// SettlementReportView is everything the settlement report layout needs
type SettlementReportView struct {
	Title          string
	ProjectName    string
	DocumentNo     string
	SettlementDate time.Time
	Payee          string
	Phone          string
	Session        string
	BankName       string
	BankAccount    string
	Committee      string
	Items          []ReportLine
	TotalAmount    int64
	RequestCount   int
	ReceiptCount   int
	RequestedBy    ReportSignature
	ApprovedBy     ReportSignature
	Receipts       []ReportReceipt
}

// ReportLine is one row of the items table
type ReportLine struct {
	Index       int
	Description string
	BudgetCode  int
	Amount      int64
}

// ReportSignature is a signature block; Image is a data URL or empty
type ReportSignature struct {
	Name  string
	Image string
}

// ReportReceipt is a preloaded receipt. An empty DataURL renders as a placeholder.
type ReportReceipt struct {
	FileName string
	DataURL  string
}

// Loaded reports whether the receipt image is available
func (r ReportReceipt) Loaded() bool {
	return r.DataURL != ""
}
