// Package settlement is the ledger and settlement core. It drives the four
// derived records — ledger entry, wallet balance, dashboard stats and
// withdrawal request state — and keeps them mutually consistent: every
// multi-record mutation runs inside one storage transaction, ordered ledger
// entry first (the source of truth), then request, wallet, stats.
package settlement

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vantage-network/vantage/internal/domain"
	"github.com/vantage-network/vantage/internal/infra/observability"
	"github.com/vantage-network/vantage/internal/infra/sqlite"
)

// Service orchestrates settlements over the SQLite store.
type Service struct {
	db  *sqlite.DB
	log *zap.Logger
	now func() time.Time
}

// New creates a settlement service.
func New(db *sqlite.DB, log *zap.Logger) *Service {
	return &Service{
		db:  db,
		log: log,
		now: time.Now,
	}
}

// ─── Members ────────────────────────────────────────────────────────────────

// RegisterMember adds a member to the thin directory, pre-creating its
// wallet and stats aggregate.
func (s *Service) RegisterMember(id, name string) (*domain.Member, error) {
	m := domain.Member{ID: id, Name: name, JoinedAt: s.now().UTC().Truncate(time.Second)}
	if err := m.Validate(); err != nil {
		observability.SettlementErrorsTotal.WithLabelValues("validation").Inc()
		return nil, err
	}
	if err := s.db.InTx(func(st *sqlite.Store) error {
		exists, err := st.MemberExists(m.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("member %s already registered: %w", m.ID, domain.ErrConflict)
		}
		return st.InsertMember(m)
	}); err != nil {
		return nil, err
	}
	s.log.Info("member registered", zap.String("member_id", m.ID))
	return &m, nil
}

// Member looks up a registered member.
func (s *Service) Member(id string) (*domain.Member, error) {
	return s.db.GetMember(id)
}

// ─── Generic Ledger Entries ─────────────────────────────────────────────────

// EntryInput is the caller-supplied shape of a new ledger entry. Amount is
// signed paise; withdrawal-type categories arrive pre-signed negative.
type EntryInput struct {
	MemberID        string
	Amount          int64
	Category        domain.Category
	Description     string
	OccurredAt      time.Time // zero value means now
	Status          domain.EntryStatus
	RelatedMemberID string
	Level           int
	Pairs           int
}

// CreateEntry appends a ledger entry and settles its financial effect:
// completed entries move the wallet and stats; pending withdrawal entries
// adjust the pending counter only; anything else has no side effects.
func (s *Service) CreateEntry(in EntryInput) (*domain.LedgerEntry, error) {
	occurred := in.OccurredAt
	if occurred.IsZero() {
		occurred = s.now()
	}
	entry := domain.LedgerEntry{
		ID:              "txn-" + uuid.NewString(),
		MemberID:        in.MemberID,
		Amount:          in.Amount,
		Category:        in.Category,
		Description:     in.Description,
		OccurredAt:      occurred.UTC().Truncate(time.Second),
		Status:          in.Status,
		RelatedMemberID: in.RelatedMemberID,
		Level:           in.Level,
		Pairs:           in.Pairs,
	}
	if err := entry.Validate(); err != nil {
		observability.SettlementErrorsTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	exists, err := s.db.MemberExists(entry.MemberID)
	if err != nil {
		return nil, err
	}
	if !exists {
		observability.SettlementErrorsTotal.WithLabelValues("not_found").Inc()
		return nil, domain.ErrMemberNotFound
	}

	err = s.db.InTx(func(st *sqlite.Store) error {
		if err := st.AppendEntry(entry); err != nil {
			return err
		}
		switch {
		case entry.Status == domain.EntryCompleted:
			return s.settleCompleted(st, entry)
		case entry.Status == domain.EntryPending && entry.Category == domain.CategoryWithdrawal:
			// Balance is untouched until resolution; only the pending
			// counter moves.
			if err := st.EnsureStats(entry.MemberID); err != nil {
				return err
			}
			return st.AdjustPending(entry.MemberID, entry.Amount)
		default:
			return nil
		}
	})
	if err != nil {
		observability.SettlementErrorsTotal.WithLabelValues("storage").Inc()
		s.log.Error("ledger entry settlement failed",
			zap.String("entry_id", entry.ID),
			zap.String("member_id", entry.MemberID),
			zap.Error(err))
		return nil, err
	}

	if entry.Status == domain.EntryCompleted {
		observability.SettlementsTotal.WithLabelValues(string(entry.Category)).Inc()
	}
	s.log.Info("ledger entry recorded",
		zap.String("entry_id", entry.ID),
		zap.String("member_id", entry.MemberID),
		zap.String("category", string(entry.Category)),
		zap.Int64("amount", entry.Amount),
		zap.String("status", string(entry.Status)))
	return &entry, nil
}

// settleCompleted applies a completed entry's effect to the wallet and the
// stats aggregate. Runs inside the caller's transaction.
func (s *Service) settleCompleted(st *sqlite.Store, e domain.LedgerEntry) error {
	created, err := st.EnsureWallet(e.MemberID)
	if err != nil {
		return err
	}
	if created {
		// Settlement proceeds; the missing wallet is a warning, not a
		// reason to abort.
		observability.WalletLazyCreatesTotal.Inc()
		s.log.Warn("wallet missing at settlement time, created with zero balance",
			zap.String("member_id", e.MemberID),
			zap.String("entry_id", e.ID))
	}
	if _, err := st.ApplyWalletDelta(e.MemberID, e.Amount); err != nil {
		return err
	}

	if err := st.EnsureStats(e.MemberID); err != nil {
		return err
	}
	earnings, category := domain.StatContribution(e.Category, e.Amount)
	if earnings != 0 {
		if err := st.AddEarnings(e.MemberID, earnings); err != nil {
			return err
		}
	}
	if err := st.AddCategoryTotal(e.MemberID, e.Category, category); err != nil {
		return err
	}
	if err := st.PushRecentActivity(e.MemberID, e.ID, e.OccurredAt); err != nil {
		return err
	}
	return st.ApplyTimeline(e.MemberID, domain.Day(e.OccurredAt), e.Amount)
}

// Entry retrieves a single ledger entry.
func (s *Service) Entry(id string) (*domain.LedgerEntry, error) {
	return s.db.GetEntry(id)
}

// Entries lists a member's entries, newest first, with optional filters.
func (s *Service) Entries(memberID string, f domain.EntryFilter) ([]domain.LedgerEntry, error) {
	for _, c := range f.Categories {
		if !c.Valid() {
			return nil, domain.Invalidf("unknown category %q", c)
		}
	}
	for _, st := range f.Statuses {
		if !st.Valid() {
			return nil, domain.Invalidf("unknown status %q", st)
		}
	}
	return s.db.ListEntries(memberID, f)
}

// ─── Withdrawal Requests ────────────────────────────────────────────────────

// WithdrawalInput is the caller-supplied shape of a new withdrawal request.
// Amount is a positive magnitude in paise.
type WithdrawalInput struct {
	MemberID string
	UserName string
	Amount   int64
	Account  domain.BankAccount
}

// CreateWithdrawal persists a pending request and moves the member's
// pending-withdrawals counter.
func (s *Service) CreateWithdrawal(in WithdrawalInput) (*domain.WithdrawalRequest, error) {
	req := domain.WithdrawalRequest{
		ID:          "wdr-" + uuid.NewString(),
		MemberID:    in.MemberID,
		UserName:    in.UserName,
		Amount:      in.Amount,
		Status:      domain.RequestPending,
		Account:     in.Account,
		RequestedAt: s.now().UTC().Truncate(time.Second),
	}
	if err := req.Validate(); err != nil {
		observability.SettlementErrorsTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	exists, err := s.db.MemberExists(req.MemberID)
	if err != nil {
		return nil, err
	}
	if !exists {
		observability.SettlementErrorsTotal.WithLabelValues("not_found").Inc()
		return nil, domain.ErrMemberNotFound
	}

	err = s.db.InTx(func(st *sqlite.Store) error {
		if err := st.InsertRequest(req); err != nil {
			return err
		}
		if err := st.EnsureStats(req.MemberID); err != nil {
			return err
		}
		return st.AdjustPending(req.MemberID, req.Amount)
	})
	if err != nil {
		observability.SettlementErrorsTotal.WithLabelValues("storage").Inc()
		return nil, err
	}

	observability.WithdrawalRequestsTotal.Inc()
	s.log.Info("withdrawal requested",
		zap.String("request_id", req.ID),
		zap.String("member_id", req.MemberID),
		zap.Int64("amount", req.Amount))
	return &req, nil
}

// Resolve drives a pending request to its terminal state.
//
// Approve settles the payout: a completed withdrawal ledger entry for the
// negated amount, request → paid with the entry linked, wallet debited,
// pending moved to completed. Reject reverses the hold: a completed
// reversal entry for the positive amount, request → rejected, wallet
// credited back, pending released. A request already in a terminal state is
// returned unchanged with no ledger effect, so retries are safe.
func (s *Service) Resolve(requestID string, decision domain.Decision, remarks string) (*domain.WithdrawalRequest, error) {
	if !decision.Valid() {
		observability.SettlementErrorsTotal.WithLabelValues("validation").Inc()
		return nil, domain.Invalidf("unknown decision %q", decision)
	}

	var out *domain.WithdrawalRequest
	err := s.db.InTx(func(st *sqlite.Store) error {
		req, err := st.GetRequest(requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RequestPending {
			// Idempotent retry: report the current state, touch nothing.
			observability.ResolutionConflictsTotal.Inc()
			s.log.Info("resolution of non-pending request ignored",
				zap.String("request_id", req.ID),
				zap.String("status", string(req.Status)))
			out = req
			return nil
		}

		now := s.now().UTC().Truncate(time.Second)
		var entry domain.LedgerEntry
		var terminal domain.RequestStatus

		switch decision {
		case domain.DecisionApprove:
			terminal = domain.RequestPaid
			entry = domain.LedgerEntry{
				ID:          "wtx-" + uuid.NewString(),
				MemberID:    req.MemberID,
				Amount:      -req.Amount,
				Category:    domain.CategoryWithdrawal,
				Description: fmt.Sprintf("Withdrawal processed for request ID: %s", req.ID),
				OccurredAt:  now,
				Status:      domain.EntryCompleted,
			}
		case domain.DecisionReject:
			terminal = domain.RequestRejected
			entry = domain.LedgerEntry{
				ID:          "rev-" + uuid.NewString(),
				MemberID:    req.MemberID,
				Amount:      req.Amount,
				Category:    domain.CategoryReversal,
				Description: fmt.Sprintf("Reversal of rejected withdrawal request: %s", req.ID),
				OccurredAt:  now,
				Status:      domain.EntryCompleted,
			}
		}

		// Ledger entry first: its presence is the commit marker that makes
		// a partial sequence detectable and re-drivable.
		if err := st.AppendEntry(entry); err != nil {
			return fmt.Errorf("resolve %s step ledger: %w", req.ID, err)
		}
		if err := st.ResolveRequest(req.ID, terminal, entry.ID, now, remarks); err != nil {
			return fmt.Errorf("resolve %s step request: %w", req.ID, err)
		}

		created, err := st.EnsureWallet(req.MemberID)
		if err != nil {
			return fmt.Errorf("resolve %s step wallet: %w", req.ID, err)
		}
		if created {
			observability.WalletLazyCreatesTotal.Inc()
			s.log.Warn("wallet missing at settlement time, created with zero balance",
				zap.String("member_id", req.MemberID),
				zap.String("request_id", req.ID))
		}
		if _, err := st.ApplyWalletDelta(req.MemberID, entry.Amount); err != nil {
			return fmt.Errorf("resolve %s step wallet: %w", req.ID, err)
		}

		if err := st.EnsureStats(req.MemberID); err != nil {
			return fmt.Errorf("resolve %s step stats: %w", req.ID, err)
		}
		if err := st.AdjustPending(req.MemberID, -req.Amount); err != nil {
			return fmt.Errorf("resolve %s step stats: %w", req.ID, err)
		}
		if terminal == domain.RequestPaid {
			if err := st.AdjustCompleted(req.MemberID, req.Amount); err != nil {
				return fmt.Errorf("resolve %s step stats: %w", req.ID, err)
			}
		}
		if err := st.PushRecentActivity(req.MemberID, entry.ID, now); err != nil {
			return fmt.Errorf("resolve %s step stats: %w", req.ID, err)
		}

		out, err = st.GetRequest(req.ID)
		if err != nil {
			return err
		}

		observability.WithdrawalResolutionsTotal.WithLabelValues(string(decision)).Inc()
		s.log.Info("withdrawal resolved",
			zap.String("request_id", req.ID),
			zap.String("member_id", req.MemberID),
			zap.String("decision", string(decision)),
			zap.Int64("amount", req.Amount),
			zap.String("entry_id", entry.ID))
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			observability.SettlementErrorsTotal.WithLabelValues("storage").Inc()
			s.log.Error("withdrawal resolution failed",
				zap.String("request_id", requestID),
				zap.String("decision", string(decision)),
				zap.Error(err))
		}
		return nil, err
	}
	return out, nil
}

// Request retrieves a single withdrawal request.
func (s *Service) Request(id string) (*domain.WithdrawalRequest, error) {
	return s.db.GetRequest(id)
}

// Requests lists withdrawal requests, newest first; empty memberID lists all.
func (s *Service) Requests(memberID string) ([]domain.WithdrawalRequest, error) {
	return s.db.ListRequests(memberID)
}

// ─── Wallet and Stats reads ─────────────────────────────────────────────────

// WalletBalance returns a member's balance, lazily creating a zero wallet.
// Lazy initialization is deliberate policy, not an error path.
func (s *Service) WalletBalance(memberID string) (*domain.Wallet, error) {
	var w *domain.Wallet
	err := s.db.InTx(func(st *sqlite.Store) error {
		if _, err := st.EnsureWallet(memberID); err != nil {
			return err
		}
		var err error
		w, err = st.GetWallet(memberID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Stats returns the dashboard aggregate for a member, or the global
// aggregate for domain.RootMemberID.
func (s *Service) Stats(memberID string) (*domain.DashboardStats, error) {
	return s.db.GetStats(memberID)
}
