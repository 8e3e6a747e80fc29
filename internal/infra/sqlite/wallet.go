package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/vantage-network/vantage/internal/domain"
)

// ─── Wallet Accessor ────────────────────────────────────────────────────────
// The balance is only ever changed by ApplyWalletDelta's single UPDATE, so
// concurrent settlements for one member commute without application locks.

// EnsureWallet creates a zero-balance wallet if none exists. Returns whether
// a wallet was created — at settlement time that is a data-integrity warning
// condition, not a failure.
func (s *Store) EnsureWallet(memberID string) (created bool, err error) {
	res, err := s.q.Exec(`
		INSERT OR IGNORE INTO wallets (member_id, balance) VALUES (?, 0)
	`, memberID)
	if err != nil {
		return false, fmt.Errorf("ensure wallet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ensure wallet: %w", err)
	}
	return n > 0, nil
}

// ApplyWalletDelta atomically adds a signed amount to the member's balance
// and returns the new balance. Fails with ErrWalletNotFound if no wallet
// exists.
func (s *Store) ApplyWalletDelta(memberID string, delta int64) (int64, error) {
	res, err := s.q.Exec(`
		UPDATE wallets SET balance = balance + ? WHERE member_id = ?
	`, delta, memberID)
	if err != nil {
		return 0, fmt.Errorf("apply wallet delta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("apply wallet delta: %w", err)
	}
	if n == 0 {
		return 0, domain.ErrWalletNotFound
	}

	var balance int64
	if err := s.q.QueryRow(`SELECT balance FROM wallets WHERE member_id = ?`, memberID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("read wallet balance: %w", err)
	}
	return balance, nil
}

// GetWallet retrieves a member's wallet.
func (s *Store) GetWallet(memberID string) (*domain.Wallet, error) {
	w := domain.Wallet{MemberID: memberID}
	err := s.q.QueryRow(`SELECT balance FROM wallets WHERE member_id = ?`, memberID).Scan(&w.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return &w, nil
}
