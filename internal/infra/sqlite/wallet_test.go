package sqlite

import (
	"errors"
	"sync"
	"testing"

	"github.com/vantage-network/vantage/internal/domain"
)

func TestEnsureWallet(t *testing.T) {
	db := newTestDB(t)

	created, err := db.EnsureWallet("m1")
	if err != nil {
		t.Fatalf("EnsureWallet() error: %v", err)
	}
	if !created {
		t.Error("first EnsureWallet() created = false, want true")
	}

	created, err = db.EnsureWallet("m1")
	if err != nil {
		t.Fatalf("EnsureWallet() error: %v", err)
	}
	if created {
		t.Error("second EnsureWallet() created = true, want false")
	}

	w, err := db.GetWallet("m1")
	if err != nil {
		t.Fatalf("GetWallet() error: %v", err)
	}
	if w.Balance != 0 {
		t.Errorf("new wallet balance = %d, want 0", w.Balance)
	}
}

func TestApplyWalletDelta(t *testing.T) {
	db := newTestDB(t)
	db.EnsureWallet("m1")

	balance, err := db.ApplyWalletDelta("m1", 50000)
	if err != nil {
		t.Fatalf("ApplyWalletDelta() error: %v", err)
	}
	if balance != 50000 {
		t.Errorf("balance = %d, want 50000", balance)
	}

	balance, err = db.ApplyWalletDelta("m1", -20000)
	if err != nil {
		t.Fatalf("ApplyWalletDelta() error: %v", err)
	}
	if balance != 30000 {
		t.Errorf("balance = %d, want 30000", balance)
	}
}

func TestApplyWalletDelta_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.ApplyWalletDelta("ghost", 100)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ApplyWalletDelta(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestApplyWalletDelta_Concurrent(t *testing.T) {
	db := newTestDB(t)
	db.EnsureWallet("m1")

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if _, err := db.ApplyWalletDelta("m1", 7); err != nil {
					t.Errorf("ApplyWalletDelta() error: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	w, err := db.GetWallet("m1")
	if err != nil {
		t.Fatalf("GetWallet() error: %v", err)
	}
	want := int64(workers * perWorker * 7)
	if w.Balance != want {
		t.Errorf("balance after concurrent deltas = %d, want %d", w.Balance, want)
	}
}
