package reimbursement

import "github.com/google/uuid"

var (
	submitter = Actor{UID: "u-1", Name: "Kim", Email: "kim@example.com", Role: RoleUser}
	stranger  = Actor{UID: "u-2", Name: "Lee", Email: "lee@example.com", Role: RoleUser}
	approver  = Actor{UID: "a-1", Name: "Park", Email: "park@example.com", Role: RoleApprover}
	admin     = Actor{UID: "ad-1", Name: "Choi", Email: "choi@example.com", Role: RoleAdmin}
)

func validDraft() RequestDraft {
	return RequestDraft{
		Payee:       "Kim",
		Phone:       "010-1234-5678",
		BankName:    "KB",
		BankAccount: "123-456",
		Date:        "2024-03-01",
		Session:     "2024-1",
		Committee:   CommitteeOperations,
		Items: []LineItem{
			{Description: "Snacks", BudgetCode: 101, Amount: 12000},
			{Description: "Printing", BudgetCode: 102, Amount: 8000},
		},
		Receipts: []Receipt{{FileName: "a.jpg", URL: "https://x/a.jpg", StoragePath: "receipts/default/operations/1_a.jpg"}},
	}
}

func approvedRequest(t interface{ Fatalf(string, ...any) }, draft RequestDraft) *PaymentRequest {
	r, err := NewPaymentRequest(submitter, draft)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.Approve(approver, "data:image/png;base64,AAAA"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	return r
}

func projectPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
