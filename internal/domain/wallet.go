package domain

// Wallet is a member's single spendable balance, in signed paise. The
// balance is only ever mutated through atomic settlement deltas; at rest it
// equals the sum of the member's completed balance-affecting ledger entries.
type Wallet struct {
	MemberID string `json:"user_id"`
	Balance  int64  `json:"balance"`
}
