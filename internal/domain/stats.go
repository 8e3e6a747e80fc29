package domain

import "time"

// ─── Dashboard Stats ────────────────────────────────────────────────────────

// RootMemberID is the reserved member identifier for the global stats
// aggregate. Member registration rejects it, so it can never collide with a
// real account.
const RootMemberID = "root"

// RecentActivityLimit bounds the recent-activity list.
const RecentActivityLimit = 10

// TimelinePoint is one calendar day's running earnings total. Amount is the
// running total as of that day, not the day's delta.
type TimelinePoint struct {
	Date   time.Time `json:"date"`
	Amount int64     `json:"amount"`
}

// DashboardStats is the per-member (or root) rolling aggregate derived from
// settlements. PendingWithdrawals and CompletedWithdrawals are positive
// magnitudes driven exclusively by the withdrawal state machine.
type DashboardStats struct {
	MemberID             string             `json:"user_id"`
	TotalEarnings        int64              `json:"total_earnings"`
	PendingWithdrawals   int64              `json:"pending_withdrawals"`
	CompletedWithdrawals int64              `json:"completed_withdrawals"`
	RecentActivity       []string           `json:"recent_transactions"` // entry ids, newest first
	CategoryTotals       map[Category]int64 `json:"earnings_by_type"`
	Timeline             []TimelinePoint    `json:"earnings_timeline"`
}

// StatContribution computes how a completed ledger entry moves the stats
// aggregate: the total-earnings delta and the category-total delta.
//
//   - earning categories contribute their signed amount to both;
//   - withdrawals contribute a negative magnitude to the category total only;
//   - reversals contribute a positive magnitude to the category total only.
func StatContribution(c Category, amount int64) (earnings, category int64) {
	switch c {
	case CategoryWithdrawal:
		return 0, -abs(amount)
	case CategoryReversal:
		return 0, abs(amount)
	default:
		return amount, amount
	}
}

// Day truncates a timestamp to its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
