package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/vantage-network/vantage/internal/domain"
)

// ─── Member Directory ───────────────────────────────────────────────────────
// The settlement core only needs existence and a display name; everything
// else about a member lives outside this service.

// InsertMember registers a member and pre-creates its wallet and stats
// aggregate so settlements never hit the lazy-init path in normal operation.
func (s *Store) InsertMember(m domain.Member) error {
	_, err := s.q.Exec(`
		INSERT INTO members (id, name, joined_at) VALUES (?, ?, ?)
	`, m.ID, m.Name, encodeTime(m.JoinedAt))
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	if _, err := s.EnsureWallet(m.ID); err != nil {
		return err
	}
	return s.EnsureStats(m.ID)
}

// GetMember retrieves a member.
func (s *Store) GetMember(id string) (*domain.Member, error) {
	var m domain.Member
	var joined string
	err := s.q.QueryRow(`SELECT id, name, joined_at FROM members WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &joined)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	m.JoinedAt = decodeTime(joined)
	return &m, nil
}

// MemberExists reports whether a member is registered.
func (s *Store) MemberExists(id string) (bool, error) {
	var n int
	err := s.q.QueryRow(`SELECT COUNT(*) FROM members WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("member exists: %w", err)
	}
	return n > 0, nil
}
