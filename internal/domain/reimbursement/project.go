package reimbursement

import (
	"strings"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/shared"
)

// DefaultProjectID is the fixed id of the project created by the project-layer migration
var DefaultProjectID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// DefaultProjectName is the name given to the default project
const DefaultProjectName = "Default Project"

// Project scopes requests, settlements and budgets
type Project struct {
	shared.BaseAggregateRoot
	Name                      string
	Description               string
	DocumentNo                string
	BudgetConfig              BudgetConfig
	DirectorApprovalThreshold int64
	BudgetWarningThreshold    int
	MemberUIDs                StringList
	IsActive                  bool
	CreatedBy                 UserSnapshot
}

// ProjectDraft carries editable project fields. Zero thresholds mean "use the default".
type ProjectDraft struct {
	Name                      string
	Description               string
	DocumentNo                string
	BudgetConfig              BudgetConfig
	DirectorApprovalThreshold int64
	BudgetWarningThreshold    int
	// Active is left unchanged when nil
	Active *bool
}

func (d ProjectDraft) validate() error {
	var errs ValidationErrors
	if strings.TrimSpace(d.Name) == "" {
		errs.Add("Project name is required")
	}
	if d.DirectorApprovalThreshold < 0 {
		errs.Add("Director approval threshold cannot be negative")
	}
	if d.BudgetWarningThreshold < 0 || d.BudgetWarningThreshold > 100 {
		errs.Add("Budget warning threshold must be between 0 and 100")
	}
	if d.BudgetConfig.TotalBudget < 0 {
		errs.Add("Total budget cannot be negative")
	}
	return errs.Err()
}

// NewProject creates an active project. Only admins may create projects.
func NewProject(actor Actor, d ProjectDraft) (*Project, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	p := &Project{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MemberUIDs:        StringList{},
		IsActive:          true,
		CreatedBy:         actor.Snapshot(),
	}
	p.apply(d)
	return p, nil
}

// NewDefaultProject builds the default project seeded from legacy settings
func NewDefaultProject(cfg BudgetConfig, documentNo string) *Project {
	p := &Project{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MemberUIDs:        StringList{},
		IsActive:          true,
		CreatedBy:         UserSnapshot{UID: "system", Name: "system"},
	}
	p.ID = DefaultProjectID
	p.apply(ProjectDraft{Name: DefaultProjectName, DocumentNo: documentNo, BudgetConfig: cfg})
	return p
}

func (p *Project) apply(d ProjectDraft) {
	p.Name = strings.TrimSpace(d.Name)
	p.Description = strings.TrimSpace(d.Description)
	p.DocumentNo = strings.TrimSpace(d.DocumentNo)
	p.BudgetConfig = d.BudgetConfig
	p.DirectorApprovalThreshold = d.DirectorApprovalThreshold
	if p.DirectorApprovalThreshold == 0 {
		p.DirectorApprovalThreshold = DefaultDirectorApprovalThreshold
	}
	p.BudgetWarningThreshold = d.BudgetWarningThreshold
	if p.BudgetWarningThreshold == 0 {
		p.BudgetWarningThreshold = DefaultBudgetWarningThreshold
	}
	if d.Active != nil {
		p.IsActive = *d.Active
	}
}

// Update replaces the editable fields
func (p *Project) Update(actor Actor, d ProjectDraft) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	if err := d.validate(); err != nil {
		return err
	}
	p.apply(d)
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetActive toggles whether new requests may target the project
func (p *Project) SetActive(actor Actor, active bool) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	p.IsActive = active
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetMembers replaces the member list and reports who joined and who left
func (p *Project) SetMembers(actor Actor, uids []string) (added, removed []string, err error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, nil, err
	}
	next := make(StringList, 0, len(uids))
	for _, uid := range uids {
		uid = strings.TrimSpace(uid)
		if uid == "" || next.Contains(uid) {
			continue
		}
		next = append(next, uid)
		if !p.MemberUIDs.Contains(uid) {
			added = append(added, uid)
		}
	}
	for _, uid := range p.MemberUIDs {
		if !next.Contains(uid) {
			removed = append(removed, uid)
		}
	}
	p.MemberUIDs = next
	p.Touch()
	p.IncrementVersion()
	return added, removed, nil
}

// HasMember reports whether uid belongs to the project
func (p *Project) HasMember(uid string) bool {
	return p.MemberUIDs.Contains(uid)
}

// Budget evaluates the project budget against committed spend
func (p *Project) Budget(spent CommittedSpend) (BudgetStatus, []CodeUsage) {
	return EvaluateBudget(spent.Total, p.BudgetConfig.TotalBudget, p.BudgetWarningThreshold),
		EvaluateByCode(p.BudgetConfig, spent.ByCode, p.BudgetWarningThreshold)
}
