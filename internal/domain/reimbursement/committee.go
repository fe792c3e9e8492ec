package reimbursement

// Committee is the budget-scoping partition a request belongs to
type Committee string

const (
	CommitteeOperations  Committee = "operations"  // 운영 위원회
	CommitteePreparation Committee = "preparation" // 준비 위원회
)

// IsValid checks if the committee is known
func (c Committee) IsValid() bool {
	switch c {
	case CommitteeOperations, CommitteePreparation:
		return true
	}
	return false
}

// String returns the string representation of Committee
func (c Committee) String() string {
	return string(c)
}

// DisplayName returns the label printed on reports
func (c Committee) DisplayName() string {
	switch c {
	case CommitteeOperations:
		return "운영 위원회"
	case CommitteePreparation:
		return "준비 위원회"
	default:
		return string(c)
	}
}
