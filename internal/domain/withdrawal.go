package domain

import "time"

// ─── Withdrawal State Machine ───────────────────────────────────────────────
// pending → paid (approval and payment are one atomic business step)
// pending → rejected
// Terminal states never transition again.

// RequestStatus is the lifecycle status of a withdrawal request.
type RequestStatus string

const (
	RequestPending RequestStatus = "pending"
	// RequestApproved is transient: a request observed mid-resolution.
	// It is never the at-rest state of a persisted request.
	RequestApproved RequestStatus = "approved"
	RequestPaid     RequestStatus = "paid"
	RequestRejected RequestStatus = "rejected"
)

// Decision is the resolution verdict for a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// BankAccount is the destination-account snapshot embedded in a request.
// Immutable after creation.
type BankAccount struct {
	AccountName   string `json:"account_name,omitempty"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	IFSCCode      string `json:"ifsc_code,omitempty"`
}

// Empty reports whether the snapshot lacks the required routing fields.
func (a BankAccount) Empty() bool {
	return a.AccountNumber == "" || a.BankName == ""
}

// WithdrawalRequest tracks a member's payout request through the state
// machine. Amount is a positive magnitude in paise. EntryID links the ledger
// entry written at terminal resolution and doubles as the commit marker for
// crash recovery: a non-pending status always has it set.
type WithdrawalRequest struct {
	ID          string        `json:"id"`
	MemberID    string        `json:"user_id"`
	UserName    string        `json:"user_name"`
	Amount      int64         `json:"amount"` // positive paise
	Status      RequestStatus `json:"status"`
	Account     BankAccount   `json:"account_details"`
	RequestedAt time.Time     `json:"request_date"`
	ProcessedAt *time.Time    `json:"processed_date,omitempty"`
	EntryID     string        `json:"transaction_id,omitempty"`
	Remarks     string        `json:"remarks,omitempty"`
}

// Terminal reports whether the request reached a final state.
func (r *WithdrawalRequest) Terminal() bool {
	return r.Status == RequestPaid || r.Status == RequestRejected
}

// Validate checks a request at creation time.
func (r *WithdrawalRequest) Validate() error {
	if r.MemberID == "" {
		return Invalidf("member id required")
	}
	if r.Amount <= 0 {
		return Invalidf("withdrawal amount must be positive")
	}
	if r.Account.Empty() {
		return Invalidf("destination account details required")
	}
	return nil
}
