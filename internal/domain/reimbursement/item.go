package reimbursement

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// MaxLineItems is the largest number of line items a single request may carry
const MaxLineItems = 10

// LineItem is one expense line of a request. Amount is in whole currency units.
type LineItem struct {
	Description string `json:"description"`
	BudgetCode  int    `json:"budgetCode"`
	Amount      int64  `json:"amount"`
}

// IsKept reports whether the item survives input filtering
func (i LineItem) IsKept() bool {
	return strings.TrimSpace(i.Description) != "" && i.Amount > 0
}

// LineItems is the JSONB-backed list of line items
type LineItems []LineItem

// FilterLineItems drops items with an empty description or a non-positive amount.
// Dropped items are not reported as errors.
func FilterLineItems(items []LineItem) LineItems {
	kept := make(LineItems, 0, len(items))
	for _, item := range items {
		if item.IsKept() {
			kept = append(kept, item)
		}
	}
	return kept
}

// Total sums the amounts of all items
func (l LineItems) Total() int64 {
	var total int64
	for _, item := range l {
		total += item.Amount
	}
	return total
}

// SumByCode groups item amounts by budget code
func (l LineItems) SumByCode() map[int]int64 {
	sums := make(map[int]int64)
	for _, item := range l {
		sums[item.BudgetCode] += item.Amount
	}
	return sums
}

// Equal compares two item lists field by field, in order
func (l LineItems) Equal(other LineItems) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

// Value implements driver.Valuer for JSONB storage
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSONB storage
func (l *LineItems) Scan(value any) error {
	b, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		*l = LineItems{}
		return nil
	}
	return json.Unmarshal(b, l)
}
