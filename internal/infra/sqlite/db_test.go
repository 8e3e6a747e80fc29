package sqlite

import (
	"testing"
	"time"

	"github.com/vantage-network/vantage/internal/domain"
)

// newTestDB opens an in-memory database with migrations applied.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedMember registers a member with wallet and stats rows.
func seedMember(t *testing.T, db *DB, id, name string) {
	t.Helper()
	err := db.InsertMember(domain.Member{ID: id, Name: name, JoinedAt: time.Now()})
	if err != nil {
		t.Fatalf("InsertMember(%s) error: %v", id, err)
	}
}

func TestMigrations_TablesExist(t *testing.T) {
	db := newTestDB(t)

	tables := []string{
		"members",
		"ledger_entries",
		"wallets",
		"dashboard_stats",
		"category_totals",
		"recent_activity",
		"earnings_timeline",
		"withdrawal_requests",
	}
	for _, table := range tables {
		var count int
		err := db.db.QueryRow(
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s not found in database", table)
		}
	}
}

func TestInTx_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	seedMember(t, db, "m1", "Asha")

	wantErr := domain.Invalidf("boom")
	err := db.InTx(func(s *Store) error {
		if _, err := s.ApplyWalletDelta("m1", 100); err != nil {
			return err
		}
		return wantErr
	})
	if err == nil {
		t.Fatal("InTx() = nil, want error")
	}

	w, err := db.GetWallet("m1")
	if err != nil {
		t.Fatalf("GetWallet() error: %v", err)
	}
	if w.Balance != 0 {
		t.Errorf("balance after rollback = %d, want 0", w.Balance)
	}
}

func TestMembers_InsertAndGet(t *testing.T) {
	db := newTestDB(t)
	seedMember(t, db, "m1", "Asha Rao")

	m, err := db.GetMember("m1")
	if err != nil {
		t.Fatalf("GetMember() error: %v", err)
	}
	if m.Name != "Asha Rao" {
		t.Errorf("Name = %q, want %q", m.Name, "Asha Rao")
	}

	// Registration pre-creates the wallet and stats rows.
	if _, err := db.GetWallet("m1"); err != nil {
		t.Errorf("GetWallet() after registration error: %v", err)
	}
	if _, err := db.GetStats("m1"); err != nil {
		t.Errorf("GetStats() after registration error: %v", err)
	}

	exists, err := db.MemberExists("m1")
	if err != nil || !exists {
		t.Errorf("MemberExists(m1) = (%v, %v), want (true, nil)", exists, err)
	}
	exists, err = db.MemberExists("ghost")
	if err != nil || exists {
		t.Errorf("MemberExists(ghost) = (%v, %v), want (false, nil)", exists, err)
	}
}

func TestGetMember_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetMember("ghost")
	if err == nil {
		t.Fatal("GetMember(ghost) = nil, want error")
	}
}
