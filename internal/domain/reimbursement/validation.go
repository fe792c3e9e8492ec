package reimbursement

import (
	"errors"
	"strings"
)

// ValidationErrors collects every unmet input condition of a single operation.
// It is returned as one error so callers can display all problems at once.
type ValidationErrors []string

// Add appends a message
func (v *ValidationErrors) Add(msg string) {
	*v = append(*v, msg)
}

// Code returns the error code used by the HTTP layer
func (v ValidationErrors) Code() string {
	return "VALIDATION_ERROR"
}

// Error implements the error interface
func (v ValidationErrors) Error() string {
	return strings.Join(v, "; ")
}

// Err returns nil when there are no messages
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// AsValidationErrors extracts a ValidationErrors from err
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// Validation messages
const (
	MsgPayeeRequired       = "Payee is required"
	MsgPhoneRequired       = "Phone number is required"
	MsgBankNameRequired    = "Bank name is required"
	MsgBankAccountRequired = "Bank account is required"
	MsgDateRequired        = "Date is required"
	MsgDateInvalid         = "Date must be in YYYY-MM-DD format"
	MsgItemsRequired       = "At least one item is required"
	MsgBudgetCodeRequired  = "Every item needs a budget code"
	MsgReceiptsRequired    = "At least one receipt is required"
	MsgCommitteeInvalid    = "Unknown committee"
	MsgTooManyItems        = "No more than 10 items are allowed"
	MsgBankBookRequired    = "A bank book must be registered before resubmitting"
	MsgNoChanges           = "Nothing was changed from the rejected request"
	MsgProjectNotFound     = "Project not found"
	MsgProjectArchived     = "Project is archived"
)

// WithProblem adds msg to the validation errors carried by err. A nil err
// becomes a single-message ValidationErrors; other errors are returned unchanged.
func WithProblem(err error, msg string) error {
	if err == nil {
		return ValidationErrors{msg}
	}
	if v, ok := AsValidationErrors(err); ok {
		return append(append(ValidationErrors(nil), v...), msg)
	}
	return err
}
