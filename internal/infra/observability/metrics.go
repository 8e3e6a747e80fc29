// Package observability exposes Prometheus metrics for the settlement core.
// Metrics are registered at import time via promauto and served on /metrics
// when enabled in config.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SettlementsTotal counts settled ledger entries by category.
var SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vantage_settlements_total",
	Help: "Ledger entries settled, by category",
}, []string{"category"})

// WithdrawalRequestsTotal counts created withdrawal requests.
var WithdrawalRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vantage_withdrawal_requests_total",
	Help: "Withdrawal requests created",
})

// WithdrawalResolutionsTotal counts terminal resolutions by decision.
var WithdrawalResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vantage_withdrawal_resolutions_total",
	Help: "Withdrawal requests resolved, by decision",
}, []string{"decision"})

// ResolutionConflictsTotal counts idempotent no-op resolutions of requests
// already in a terminal state.
var ResolutionConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vantage_withdrawal_resolution_conflicts_total",
	Help: "Resolutions attempted on non-pending requests (returned unchanged)",
})

// WalletLazyCreatesTotal counts wallets created at settlement time. A
// non-zero rate is a data-integrity warning: wallets should pre-exist.
var WalletLazyCreatesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vantage_wallet_lazy_creates_total",
	Help: "Wallets created defensively during settlement",
})

// SettlementErrorsTotal counts failed settlement operations by error kind.
var SettlementErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vantage_settlement_errors_total",
	Help: "Settlement operations rejected or failed, by kind",
}, []string{"kind"})
