// Package reimbursement holds the payment request and settlement domain.
//
// A PaymentRequest is created by its submitter and moves pending -> approved -> settled,
// or pending -> rejected, or any non-terminal state -> cancelled. A rejected request is
// never edited; resubmission creates a new request that points back at it.
//
// A Settlement is built from a group of approved requests by SettleRequests, which is
// the only place that transitions requests to settled. Repositories persist the
// settlement and the request transitions in one transaction with a status and version
// precondition on every request row.
package reimbursement
