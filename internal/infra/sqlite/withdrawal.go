package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vantage-network/vantage/internal/domain"
)

// ─── Withdrawal Requests ────────────────────────────────────────────────────
// Requests are never deleted; terminal resolution sets status, processed
// timestamp, linked entry id and remarks in one statement guarded on the
// pending state.

// InsertRequest persists a new withdrawal request.
func (s *Store) InsertRequest(r domain.WithdrawalRequest) error {
	_, err := s.q.Exec(`
		INSERT INTO withdrawal_requests
			(id, member_id, user_name, amount, status,
			 account_name, account_number, bank_name, ifsc_code, requested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.MemberID, r.UserName, r.Amount, string(r.Status),
		r.Account.AccountName, r.Account.AccountNumber, r.Account.BankName,
		r.Account.IFSCCode, encodeTime(r.RequestedAt))
	if err != nil {
		return fmt.Errorf("insert withdrawal request: %w", err)
	}
	return nil
}

// GetRequest retrieves a withdrawal request.
func (s *Store) GetRequest(id string) (*domain.WithdrawalRequest, error) {
	row := s.q.QueryRow(selectRequest+` WHERE id = ?`, id)
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get withdrawal request: %w", err)
	}
	return r, nil
}

// ListRequests returns requests newest-first; memberID of "" lists all.
func (s *Store) ListRequests(memberID string) ([]domain.WithdrawalRequest, error) {
	query := selectRequest
	var args []any
	if memberID != "" {
		query += ` WHERE member_id = ?`
		args = append(args, memberID)
	}
	query += ` ORDER BY requested_at DESC`

	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list withdrawal requests: %w", err)
	}
	defer rows.Close()

	var out []domain.WithdrawalRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan withdrawal request: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// ResolveRequest moves a pending request to a terminal state, linking the
// settlement ledger entry. The WHERE guard makes the transition one-shot:
// zero rows affected means the request was not pending.
func (s *Store) ResolveRequest(id string, status domain.RequestStatus, entryID string, processedAt time.Time, remarks string) error {
	res, err := s.q.Exec(`
		UPDATE withdrawal_requests
		SET status = ?, entry_id = ?, processed_at = ?, remarks = ?
		WHERE id = ? AND status = ?
	`, string(status), entryID, encodeTime(processedAt), remarks,
		id, string(domain.RequestPending))
	if err != nil {
		return fmt.Errorf("resolve withdrawal request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve withdrawal request: %w", err)
	}
	if n == 0 {
		return domain.ErrConflict
	}
	return nil
}

// SumPendingRequests returns the total requested amount across a member's
// pending requests. Used to reconcile the stats pending-withdrawals counter.
func (s *Store) SumPendingRequests(memberID string) (int64, error) {
	var sum sql.NullInt64
	err := s.q.QueryRow(`
		SELECT SUM(amount) FROM withdrawal_requests
		WHERE member_id = ? AND status = ?
	`, memberID, string(domain.RequestPending)).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum pending requests: %w", err)
	}
	return sum.Int64, nil
}

const selectRequest = `
	SELECT id, member_id, user_name, amount, status,
	       account_name, account_number, bank_name, ifsc_code,
	       requested_at, processed_at, entry_id, remarks
	FROM withdrawal_requests`

func scanRequest(r rowScanner) (*domain.WithdrawalRequest, error) {
	var req domain.WithdrawalRequest
	var status, requested string
	var processed sql.NullString
	if err := r.Scan(&req.ID, &req.MemberID, &req.UserName, &req.Amount, &status,
		&req.Account.AccountName, &req.Account.AccountNumber,
		&req.Account.BankName, &req.Account.IFSCCode,
		&requested, &processed, &req.EntryID, &req.Remarks); err != nil {
		return nil, err
	}
	req.Status = domain.RequestStatus(status)
	req.RequestedAt = decodeTime(requested)
	if processed.Valid {
		t := decodeTime(processed.String)
		req.ProcessedAt = &t
	}
	return &req, nil
}
