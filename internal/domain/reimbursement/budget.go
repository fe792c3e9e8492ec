package reimbursement

import (
	"database/sql/driver"
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
)

// Project-level defaults for the budget policy
const (
	DefaultDirectorApprovalThreshold int64 = 600000
	DefaultBudgetWarningThreshold    int   = 85
)

// BudgetStatus is the evaluated usage of a budget
type BudgetStatus struct {
	Spent            int64 `json:"spent"`
	TotalBudget      int64 `json:"totalBudget"`
	Percent          int   `json:"percent"`
	WarningThreshold int   `json:"warningThreshold"`
	Warning          bool  `json:"warning"`
	Exceeded         bool  `json:"exceeded"`
}

var hundred = decimal.NewFromInt(100)

// UsagePercent returns round(100*spent/total), rounding half away from zero.
// A non-positive total yields 0.
func UsagePercent(spent, total int64) int {
	if total <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(spent).Mul(hundred).Div(decimal.NewFromInt(total)).Round(0)
	return int(pct.IntPart())
}

// EvaluateBudget computes the usage percentage and the warning and exceeded flags.
// Both flags stay false when no budget is configured.
func EvaluateBudget(spent, totalBudget int64, warningThreshold int) BudgetStatus {
	status := BudgetStatus{
		Spent:            spent,
		TotalBudget:      totalBudget,
		WarningThreshold: warningThreshold,
	}
	if totalBudget <= 0 {
		return status
	}
	status.Percent = UsagePercent(spent, totalBudget)
	status.Warning = status.Percent >= warningThreshold
	status.Exceeded = status.Percent >= 100
	return status
}

// RequiresDirectorApproval reports whether an amount needs director sign-off.
// The result is advisory and never blocks a transition.
func RequiresDirectorApproval(amount, threshold int64) bool {
	return amount >= threshold
}

// BudgetConfig is the allocated budget of a project, overall and per budget code
type BudgetConfig struct {
	TotalBudget int64         `json:"totalBudget"`
	ByCode      map[int]int64 `json:"byCode,omitempty"`
}

// Value implements driver.Valuer for JSONB storage
func (c BudgetConfig) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSONB storage
func (c *BudgetConfig) Scan(value any) error {
	b, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		*c = BudgetConfig{}
		return nil
	}
	return json.Unmarshal(b, c)
}

// CodeUsage is the usage of a single budget code
type CodeUsage struct {
	BudgetCode int   `json:"budgetCode"`
	Allocated  int64 `json:"allocated"`
	Spent      int64 `json:"spent"`
	Percent    int   `json:"percent"`
	Warning    bool  `json:"warning"`
	Exceeded   bool  `json:"exceeded"`
}

// EvaluateByCode evaluates every code that is either allocated or spent, ordered by code
func EvaluateByCode(cfg BudgetConfig, spentByCode map[int]int64, warningThreshold int) []CodeUsage {
	codes := make(map[int]struct{}, len(cfg.ByCode)+len(spentByCode))
	for code := range cfg.ByCode {
		codes[code] = struct{}{}
	}
	for code := range spentByCode {
		codes[code] = struct{}{}
	}

	usage := make([]CodeUsage, 0, len(codes))
	for code := range codes {
		st := EvaluateBudget(spentByCode[code], cfg.ByCode[code], warningThreshold)
		usage = append(usage, CodeUsage{
			BudgetCode: code,
			Allocated:  st.TotalBudget,
			Spent:      st.Spent,
			Percent:    st.Percent,
			Warning:    st.Warning,
			Exceeded:   st.Exceeded,
		})
	}
	sort.Slice(usage, func(i, j int) bool { return usage[i].BudgetCode < usage[j].BudgetCode })
	return usage
}

// CommittedSpend is what approved and settled requests of a project add up to
type CommittedSpend struct {
	Total  int64
	ByCode map[int]int64
}
