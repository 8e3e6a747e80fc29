package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vantage-network/vantage/internal/app/settlement"
	"github.com/vantage-network/vantage/internal/domain"
)

// ─── Wire types ─────────────────────────────────────────────────────────────
// Amounts cross the wire as decimal rupee strings; internally everything is
// signed paise. Field names follow the dashboard's existing contract.

type entryJSON struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	Amount        string `json:"amount"`
	Type          string `json:"type"`
	Description   string `json:"description"`
	Date          string `json:"date"`
	Status        string `json:"status"`
	RelatedUserID string `json:"relatedUserId,omitempty"`
	Level         int    `json:"level,omitempty"`
	Pairs         int    `json:"pairs,omitempty"`
}

func toEntryJSON(e *domain.LedgerEntry) entryJSON {
	return entryJSON{
		ID:            e.ID,
		UserID:        e.MemberID,
		Amount:        domain.FormatAmount(e.Amount),
		Type:          string(e.Category),
		Description:   e.Description,
		Date:          e.OccurredAt.Format(time.RFC3339),
		Status:        string(e.Status),
		RelatedUserID: e.RelatedMemberID,
		Level:         e.Level,
		Pairs:         e.Pairs,
	}
}

type accountJSON struct {
	AccountName   string `json:"accountName,omitempty"`
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
	IFSCCode      string `json:"ifscCode,omitempty"`
}

type withdrawalJSON struct {
	ID             string      `json:"id"`
	UserID         string      `json:"userId"`
	UserName       string      `json:"userName,omitempty"`
	Amount         string      `json:"amount"`
	Status         string      `json:"status"`
	AccountDetails accountJSON `json:"accountDetails"`
	RequestDate    string      `json:"requestDate"`
	ProcessedDate  string      `json:"processedDate,omitempty"`
	TransactionID  string      `json:"transactionId,omitempty"`
	Remarks        string      `json:"remarks,omitempty"`
}

func toWithdrawalJSON(r *domain.WithdrawalRequest) withdrawalJSON {
	out := withdrawalJSON{
		ID:       r.ID,
		UserID:   r.MemberID,
		UserName: r.UserName,
		Amount:   domain.FormatAmount(r.Amount),
		Status:   string(r.Status),
		AccountDetails: accountJSON{
			AccountName:   r.Account.AccountName,
			AccountNumber: r.Account.AccountNumber,
			BankName:      r.Account.BankName,
			IFSCCode:      r.Account.IFSCCode,
		},
		RequestDate:   r.RequestedAt.Format(time.RFC3339),
		TransactionID: r.EntryID,
		Remarks:       r.Remarks,
	}
	if r.ProcessedAt != nil {
		out.ProcessedDate = r.ProcessedAt.Format(time.RFC3339)
	}
	return out
}

type timelinePointJSON struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

type statsJSON struct {
	UserID               string              `json:"userId"`
	TotalEarnings        string              `json:"totalEarnings"`
	PendingWithdrawals   string              `json:"pendingWithdrawals"`
	CompletedWithdrawals string              `json:"completedWithdrawals"`
	RecentTransactions   []string            `json:"recentTransactions"`
	EarningsByType       map[string]string   `json:"earningsByType"`
	EarningsTimeline     []timelinePointJSON `json:"earningsTimeline"`
}

func toStatsJSON(st *domain.DashboardStats) statsJSON {
	out := statsJSON{
		UserID:               st.MemberID,
		TotalEarnings:        domain.FormatAmount(st.TotalEarnings),
		PendingWithdrawals:   domain.FormatAmount(st.PendingWithdrawals),
		CompletedWithdrawals: domain.FormatAmount(st.CompletedWithdrawals),
		RecentTransactions:   st.RecentActivity,
		EarningsByType:       make(map[string]string, len(st.CategoryTotals)),
		EarningsTimeline:     make([]timelinePointJSON, 0, len(st.Timeline)),
	}
	if out.RecentTransactions == nil {
		out.RecentTransactions = []string{}
	}
	for cat, total := range st.CategoryTotals {
		out.EarningsByType[string(cat)] = domain.FormatAmount(total)
	}
	for _, p := range st.Timeline {
		out.EarningsTimeline = append(out.EarningsTimeline, timelinePointJSON{
			Date:   p.Date.Format(time.DateOnly),
			Amount: domain.FormatAmount(p.Amount),
		})
	}
	return out
}

// ─── Members ────────────────────────────────────────────────────────────────

type registerMemberRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// POST /api/members
func (s *Server) handleRegisterMember(w http.ResponseWriter, r *http.Request) {
	var req registerMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	m, err := s.core.RegisterMember(req.ID, req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// GET /api/members/{id}
func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.core.Member(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ─── Ledger entries ─────────────────────────────────────────────────────────

type createEntryRequest struct {
	UserID        string `json:"userId"`
	Amount        string `json:"amount"`
	Type          string `json:"type"`
	Description   string `json:"description"`
	Date          string `json:"date,omitempty"`
	Status        string `json:"status,omitempty"`
	RelatedUserID string `json:"relatedUserId,omitempty"`
	Level         int    `json:"level,omitempty"`
	Pairs         int    `json:"pairs,omitempty"`
}

// POST /api/transactions
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var occurred time.Time
	if req.Date != "" {
		occurred, err = time.Parse(time.RFC3339, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be RFC 3339")
			return
		}
	}
	status := domain.EntryStatus(req.Status)
	if req.Status == "" {
		status = domain.EntryCompleted
	}

	e, err := s.core.CreateEntry(settlement.EntryInput{
		MemberID:        req.UserID,
		Amount:          amount,
		Category:        domain.Category(req.Type),
		Description:     req.Description,
		OccurredAt:      occurred,
		Status:          status,
		RelatedMemberID: req.RelatedUserID,
		Level:           req.Level,
		Pairs:           req.Pairs,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryJSON(e))
}

// GET /api/transactions?userId=&type=&status=
// type and status accept comma-separated lists; filters are conjunctive.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	var filter domain.EntryFilter
	for _, v := range splitList(r.URL.Query().Get("type")) {
		filter.Categories = append(filter.Categories, domain.Category(v))
	}
	for _, v := range splitList(r.URL.Query().Get("status")) {
		filter.Statuses = append(filter.Statuses, domain.EntryStatus(v))
	}

	entries, err := s.core.Entries(r.URL.Query().Get("userId"), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]entryJSON, 0, len(entries))
	for i := range entries {
		out = append(out, toEntryJSON(&entries[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/transactions/{id}
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.core.Entry(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryJSON(e))
}

// ─── Withdrawals ────────────────────────────────────────────────────────────

type createWithdrawalRequest struct {
	UserID         string      `json:"userId"`
	UserName       string      `json:"userName"`
	Amount         string      `json:"amount"`
	AccountDetails accountJSON `json:"accountDetails"`
}

// POST /api/withdrawals
func (s *Server) handleCreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req createWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out, err := s.core.CreateWithdrawal(settlement.WithdrawalInput{
		MemberID: req.UserID,
		UserName: req.UserName,
		Amount:   amount,
		Account: domain.BankAccount{
			AccountName:   req.AccountDetails.AccountName,
			AccountNumber: req.AccountDetails.AccountNumber,
			BankName:      req.AccountDetails.BankName,
			IFSCCode:      req.AccountDetails.IFSCCode,
		},
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWithdrawalJSON(out))
}

// GET /api/withdrawals?userId=
func (s *Server) handleListWithdrawals(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.core.Requests(r.URL.Query().Get("userId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]withdrawalJSON, 0, len(reqs))
	for i := range reqs {
		out = append(out, toWithdrawalJSON(&reqs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/withdrawals/{id}
func (s *Server) handleGetWithdrawal(w http.ResponseWriter, r *http.Request) {
	req, err := s.core.Request(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWithdrawalJSON(req))
}

type resolveRequest struct {
	Decision string `json:"decision"`
	Remarks  string `json:"remarks,omitempty"`
}

// POST /api/withdrawals/{id}/resolve
// Resolving a non-pending request returns it unchanged, so retries see 200.
func (s *Server) handleResolveWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	out, err := s.core.Resolve(chi.URLParam(r, "id"), domain.Decision(req.Decision), req.Remarks)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWithdrawalJSON(out))
}

// ─── Wallets and stats ──────────────────────────────────────────────────────

// GET /api/wallets/{memberId}
func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.core.WalletBalance(chi.URLParam(r, "memberId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"userId":  wallet.MemberID,
		"balance": domain.FormatAmount(wallet.Balance),
	})
}

// GET /api/stats/{identifier}
// The identifier "root" addresses the platform-wide aggregate.
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.core.Stats(chi.URLParam(r, "identifier"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsJSON(st))
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
