package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vantage-network/vantage/internal/domain"
)

// ─── Stats Aggregator ───────────────────────────────────────────────────────
// All counter mutations are single atomic increments. AdjustPending and
// AdjustCompleted are reserved for the withdrawal state machine.

// EnsureStats creates an empty stats aggregate if none exists.
func (s *Store) EnsureStats(memberID string) error {
	_, err := s.q.Exec(`
		INSERT OR IGNORE INTO dashboard_stats (member_id) VALUES (?)
	`, memberID)
	if err != nil {
		return fmt.Errorf("ensure stats: %w", err)
	}
	return nil
}

// AddEarnings atomically increments total earnings.
func (s *Store) AddEarnings(memberID string, delta int64) error {
	_, err := s.q.Exec(`
		UPDATE dashboard_stats SET total_earnings = total_earnings + ?
		WHERE member_id = ?
	`, delta, memberID)
	if err != nil {
		return fmt.Errorf("add earnings: %w", err)
	}
	return nil
}

// AdjustPending atomically moves the pending-withdrawals counter.
func (s *Store) AdjustPending(memberID string, delta int64) error {
	_, err := s.q.Exec(`
		UPDATE dashboard_stats SET pending_withdrawals = pending_withdrawals + ?
		WHERE member_id = ?
	`, delta, memberID)
	if err != nil {
		return fmt.Errorf("adjust pending withdrawals: %w", err)
	}
	return nil
}

// AdjustCompleted atomically moves the completed-withdrawals counter.
func (s *Store) AdjustCompleted(memberID string, delta int64) error {
	_, err := s.q.Exec(`
		UPDATE dashboard_stats SET completed_withdrawals = completed_withdrawals + ?
		WHERE member_id = ?
	`, delta, memberID)
	if err != nil {
		return fmt.Errorf("adjust completed withdrawals: %w", err)
	}
	return nil
}

// AddCategoryTotal atomically adds a signed contribution to a category's
// cumulative total.
func (s *Store) AddCategoryTotal(memberID string, cat domain.Category, delta int64) error {
	_, err := s.q.Exec(`
		INSERT INTO category_totals (member_id, category, total) VALUES (?, ?, ?)
		ON CONFLICT(member_id, category) DO UPDATE SET total = total + excluded.total
	`, memberID, string(cat), delta)
	if err != nil {
		return fmt.Errorf("add category total: %w", err)
	}
	return nil
}

// PushRecentActivity records a ledger-entry reference at the front of the
// recent-activity window and trims the window to its bound, ordered by
// occurrence time descending with ties broken by insertion order.
func (s *Store) PushRecentActivity(memberID, entryID string, occurredAt time.Time) error {
	if _, err := s.q.Exec(`
		INSERT INTO recent_activity (member_id, entry_id, occurred_at) VALUES (?, ?, ?)
	`, memberID, entryID, encodeTime(occurredAt)); err != nil {
		return fmt.Errorf("push recent activity: %w", err)
	}
	_, err := s.q.Exec(`
		DELETE FROM recent_activity
		WHERE member_id = ? AND seq NOT IN (
			SELECT seq FROM recent_activity WHERE member_id = ?
			ORDER BY occurred_at DESC, seq DESC LIMIT ?
		)
	`, memberID, memberID, domain.RecentActivityLimit)
	if err != nil {
		return fmt.Errorf("trim recent activity: %w", err)
	}
	return nil
}

// ApplyTimeline folds a settlement's net signed effect into the daily
// running-total timeline. An existing point for the entry's calendar day is
// incremented in place; otherwise a new point is appended carrying forward
// the most recently inserted point's running total. Points are never
// reordered, so a backdated day still chains off the latest point — the
// documented limitation, preserved deliberately.
func (s *Store) ApplyTimeline(memberID string, day time.Time, net int64) error {
	dayStr := day.UTC().Format(time.DateOnly)

	res, err := s.q.Exec(`
		UPDATE earnings_timeline SET amount = amount + ?
		WHERE member_id = ? AND day = ?
	`, net, memberID, dayStr)
	if err != nil {
		return fmt.Errorf("update timeline: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update timeline: %w", err)
	} else if n > 0 {
		return nil
	}

	var latest int64
	err = s.q.QueryRow(`
		SELECT amount FROM earnings_timeline WHERE member_id = ?
		ORDER BY seq DESC LIMIT 1
	`, memberID).Scan(&latest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read latest timeline point: %w", err)
	}

	if _, err := s.q.Exec(`
		INSERT INTO earnings_timeline (member_id, day, amount) VALUES (?, ?, ?)
	`, memberID, dayStr, latest+net); err != nil {
		return fmt.Errorf("append timeline point: %w", err)
	}
	return nil
}

// GetStats assembles a member's full dashboard aggregate. The root sentinel
// id returns the global aggregate.
func (s *Store) GetStats(memberID string) (*domain.DashboardStats, error) {
	st := domain.DashboardStats{
		MemberID:       memberID,
		CategoryTotals: make(map[domain.Category]int64),
	}
	err := s.q.QueryRow(`
		SELECT total_earnings, pending_withdrawals, completed_withdrawals
		FROM dashboard_stats WHERE member_id = ?
	`, memberID).Scan(&st.TotalEarnings, &st.PendingWithdrawals, &st.CompletedWithdrawals)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stats %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	rows, err := s.q.Query(`
		SELECT category, total FROM category_totals WHERE member_id = ?
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("get category totals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cat string
		var total int64
		if err := rows.Scan(&cat, &total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		st.CategoryTotals[domain.Category(cat)] = total
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	recent, err := s.q.Query(`
		SELECT entry_id FROM recent_activity WHERE member_id = ?
		ORDER BY occurred_at DESC, seq DESC
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("get recent activity: %w", err)
	}
	defer recent.Close()
	for recent.Next() {
		var id string
		if err := recent.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recent activity: %w", err)
		}
		st.RecentActivity = append(st.RecentActivity, id)
	}
	if err := recent.Err(); err != nil {
		return nil, err
	}

	timeline, err := s.q.Query(`
		SELECT day, amount FROM earnings_timeline WHERE member_id = ?
		ORDER BY seq
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("get timeline: %w", err)
	}
	defer timeline.Close()
	for timeline.Next() {
		var day string
		var amount int64
		if err := timeline.Scan(&day, &amount); err != nil {
			return nil, fmt.Errorf("scan timeline: %w", err)
		}
		d, _ := time.ParseInLocation(time.DateOnly, day, time.UTC)
		st.Timeline = append(st.Timeline, domain.TimelinePoint{Date: d, Amount: amount})
	}
	return &st, timeline.Err()
}
