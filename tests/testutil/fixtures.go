package testutil

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/reimbursement"
)

// Fixtures builds randomised but valid domain values
type Fixtures struct {
	faker *gofakeit.Faker
}

// NewFixtures creates fixtures; seed 0 picks a random seed
func NewFixtures(seed uint64) *Fixtures {
	return &Fixtures{faker: gofakeit.New(seed)}
}

// Actor returns a caller with the given role
func (f *Fixtures) Actor(role reimbursement.Role) reimbursement.Actor {
	return reimbursement.Actor{
		UID:   f.faker.UUID(),
		Name:  f.faker.Name(),
		Email: f.faker.Email(),
		Role:  role,
	}
}

// User returns a stored profile for actor with banking details filled in
func (f *Fixtures) User(actor reimbursement.Actor) *reimbursement.AppUser {
	u, _ := reimbursement.NewAppUser(actor.UID, actor.Email, actor.Name)
	u.Role = actor.Role
	u.Phone = f.faker.Phone()
	u.BankName = f.faker.Company()
	u.BankAccount = f.faker.AchAccount()
	return u
}

// LineItems returns n kept items with budget codes 100..199
func (f *Fixtures) LineItems(n int) []reimbursement.LineItem {
	items := make([]reimbursement.LineItem, n)
	for i := range items {
		items[i] = reimbursement.LineItem{
			Description: f.faker.ProductName(),
			BudgetCode:  f.faker.Number(100, 199),
			Amount:      int64(f.faker.Number(1, 500) * 100),
		}
	}
	return items
}

// Receipt returns a stored receipt for committee
func (f *Fixtures) Receipt(committee reimbursement.Committee) reimbursement.Receipt {
	name := fmt.Sprintf("%s.jpg", f.faker.Word())
	path := fmt.Sprintf("receipts/default/%s/%d_%s", committee, f.faker.Number(1, 1<<30), name)
	return reimbursement.Receipt{
		FileName:    name,
		URL:         "https://storage.googleapis.com/receipts-test/" + path,
		StoragePath: path,
	}
}

// Draft returns a valid request draft paid to payee
func (f *Fixtures) Draft(payee string, projectID *uuid.UUID) reimbursement.RequestDraft {
	return reimbursement.RequestDraft{
		ProjectID:   projectID,
		Payee:       payee,
		Phone:       f.faker.Phone(),
		BankName:    f.faker.Company(),
		BankAccount: f.faker.AchAccount(),
		Date:        f.faker.Date().Format(reimbursement.DateLayout),
		Session:     fmt.Sprintf("%d-%d", f.faker.Year(), f.faker.Number(1, 2)),
		Committee:   reimbursement.CommitteeOperations,
		Items:       f.LineItems(f.faker.Number(1, 4)),
		Receipts:    []reimbursement.Receipt{f.Receipt(reimbursement.CommitteeOperations)},
		Comments:    f.faker.Sentence(5),
	}
}

// ApprovedRequest creates a request by submitter and approves it with approver
func (f *Fixtures) ApprovedRequest(submitter, approver reimbursement.Actor, projectID *uuid.UUID) *reimbursement.PaymentRequest {
	r, err := reimbursement.NewPaymentRequest(submitter, f.Draft(submitter.Name, projectID))
	if err != nil {
		panic(err)
	}
	if err := r.Approve(approver, ""); err != nil {
		panic(err)
	}
	r.ClearDomainEvents()
	return r
}
