// Package domain contains the pure business types of the rewards platform.
// This is the innermost ring — it depends on no infrastructure.
package domain

import "time"

// ─── Ledger Categories ──────────────────────────────────────────────────────

// Category is the business reason for a ledger entry. The set is closed:
// unknown categories are rejected at the boundary.
type Category string

const (
	CategoryRetailProfit    Category = "retail_profit"
	CategoryReferralBonus   Category = "referral_bonus"
	CategoryTeamMatching    Category = "team_matching"
	CategoryRoyaltyBonus    Category = "royalty_bonus"
	CategoryRepurchaseBonus Category = "repurchase_bonus"
	CategoryAwardReward     Category = "award_reward"
	CategoryWithdrawal      Category = "withdrawal"
	CategoryReversal        Category = "withdrawal_reversal"
	CategoryAdminFee        Category = "admin_fee_collection"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryRetailProfit,
	CategoryReferralBonus,
	CategoryTeamMatching,
	CategoryRoyaltyBonus,
	CategoryRepurchaseBonus,
	CategoryAwardReward,
	CategoryWithdrawal,
	CategoryReversal,
	CategoryAdminFee,
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Earning reports whether entries of this category count toward total
// earnings. Withdrawals and their reversals move money out of (or back into)
// the wallet without being earnings.
func (c Category) Earning() bool {
	return c.Valid() && c != CategoryWithdrawal && c != CategoryReversal
}

// ─── Entry Status ───────────────────────────────────────────────────────────

// EntryStatus is the lifecycle status of a ledger entry.
type EntryStatus string

const (
	EntryPending   EntryStatus = "pending"
	EntryCompleted EntryStatus = "completed"
	EntryRejected  EntryStatus = "rejected"
)

// Valid reports whether s is a known entry status.
func (s EntryStatus) Valid() bool {
	return s == EntryPending || s == EntryCompleted || s == EntryRejected
}

// ─── Ledger Entry ───────────────────────────────────────────────────────────

// LedgerEntry is one immutable financial event. Amounts are signed minor
// units (paise); withdrawal-type entries carry negative amounts, reversals
// positive. Once completed, amount and category never change — corrections
// are new entries.
type LedgerEntry struct {
	ID          string      `json:"id"`
	MemberID    string      `json:"user_id"`
	Amount      int64       `json:"amount"` // signed paise
	Category    Category    `json:"type"`
	Description string      `json:"description"`
	OccurredAt  time.Time   `json:"date"`
	Status      EntryStatus `json:"status"`

	// Audit linkage — reporting only, never part of settlement math.
	RelatedMemberID string `json:"related_user_id,omitempty"`
	Level           int    `json:"level,omitempty"`
	Pairs           int    `json:"pairs,omitempty"`
}

// Validate checks the write-once financial fields.
func (e *LedgerEntry) Validate() error {
	if e.MemberID == "" {
		return Invalidf("member id required")
	}
	if e.Amount == 0 {
		return Invalidf("amount must be non-zero")
	}
	if !e.Category.Valid() {
		return Invalidf("unknown category %q", e.Category)
	}
	if !e.Status.Valid() {
		return Invalidf("unknown status %q", e.Status)
	}
	if e.Description == "" {
		return Invalidf("description required")
	}
	return nil
}

// EntryFilter restricts a ledger query. Empty slices mean "no restriction";
// non-empty slices are inclusion tests, combined as a conjunction.
type EntryFilter struct {
	Categories []Category
	Statuses   []EntryStatus
}
