package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vantage-network/vantage/internal/domain"
)

// ─── Ledger Entry Store ─────────────────────────────────────────────────────
// Entries are append-only; financial fields are never updated after insert.

// AppendEntry writes a new ledger entry.
func (s *Store) AppendEntry(e domain.LedgerEntry) error {
	_, err := s.q.Exec(`
		INSERT INTO ledger_entries
			(id, member_id, amount, category, description, occurred_at, status,
			 related_member_id, level, pairs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.MemberID, e.Amount, string(e.Category), e.Description,
		encodeTime(e.OccurredAt), string(e.Status),
		e.RelatedMemberID, e.Level, e.Pairs)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// GetEntry retrieves a single ledger entry.
func (s *Store) GetEntry(id string) (*domain.LedgerEntry, error) {
	row := s.q.QueryRow(`
		SELECT id, member_id, amount, category, description, occurred_at, status,
		       related_member_id, level, pairs
		FROM ledger_entries WHERE id = ?
	`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return e, nil
}

// ListEntries returns entries newest-first. memberID of "" lists all
// members. Filter slices are inclusion tests combined as a conjunction.
func (s *Store) ListEntries(memberID string, f domain.EntryFilter) ([]domain.LedgerEntry, error) {
	query := `
		SELECT id, member_id, amount, category, description, occurred_at, status,
		       related_member_id, level, pairs
		FROM ledger_entries WHERE 1=1`
	var args []any

	if memberID != "" {
		query += ` AND member_id = ?`
		args = append(args, memberID)
	}
	if len(f.Categories) > 0 {
		query += ` AND category IN (` + placeholders(len(f.Categories)) + `)`
		for _, c := range f.Categories {
			args = append(args, string(c))
		}
	}
	if len(f.Statuses) > 0 {
		query += ` AND status IN (` + placeholders(len(f.Statuses)) + `)`
		for _, st := range f.Statuses {
			args = append(args, string(st))
		}
	}
	query += ` ORDER BY occurred_at DESC, created_at DESC`

	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var out []domain.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// SumCompletedEntries returns the sum of signed amounts over a member's
// completed entries, restricted to balance-affecting categories. Used for
// reconciliation against the wallet balance.
func (s *Store) SumCompletedEntries(memberID string) (int64, error) {
	var sum sql.NullInt64
	err := s.q.QueryRow(`
		SELECT SUM(amount) FROM ledger_entries
		WHERE member_id = ? AND status = ?
	`, memberID, string(domain.EntryCompleted)).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum completed entries: %w", err)
	}
	return sum.Int64, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	var category, status, occurred string
	if err := r.Scan(&e.ID, &e.MemberID, &e.Amount, &category, &e.Description,
		&occurred, &status, &e.RelatedMemberID, &e.Level, &e.Pairs); err != nil {
		return nil, err
	}
	e.Category = domain.Category(category)
	e.Status = domain.EntryStatus(status)
	e.OccurredAt = decodeTime(occurred)
	return &e, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
