package reimbursement

import "github.com/google/uuid"

// Settings keys
const (
	SettingsKeyGlobal       = "global"
	SettingsKeyBudgetConfig = "budget-config"
	SettingsKeyDocumentNo   = "document-no"
)

// GlobalSettings are application-wide settings
type GlobalSettings struct {
	DefaultProjectID *uuid.UUID `json:"defaultProjectId,omitempty"`
}

// DocumentNoSetting is the legacy single document number used before projects existed
type DocumentNoSetting struct {
	Value string `json:"value"`
}
