package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		accountsCreatedTotal,
		referralsTotal,
		claimsTotal,
		membershipChecksTotal,
		storeWriteFailuresTotal,
	)
}

var (
	accountsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_accounts_created_total",
			Help: "Accounts created with the welcome bonus.",
		},
	)

	referralsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_referrals_total",
			Help: "Referral attempts by outcome.",
		},
		[]string{"outcome"}, // applied, self, already_referred, unknown_referrer, malformed_code
	)

	claimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_claims_total",
			Help: "Reward claims by kind and outcome.",
		},
		[]string{"kind", "outcome"}, // kind: daily, one_time
	)

	membershipChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_membership_checks_total",
			Help: "Required-channel checks by result.",
		},
		[]string{"result"}, // joined, not_joined, error
	)

	storeWriteFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_store_write_failures_total",
			Help: "Operations that failed to persist.",
		},
		[]string{"operation"},
	)
)

func IncAccountCreated() {
	accountsCreatedTotal.Inc()
}

func IncReferral(outcome string) {
	referralsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncClaim(kind, outcome string) {
	claimsTotal.WithLabelValues(norm(kind), norm(outcome)).Inc()
}

func IncMembershipCheck(result string) {
	membershipChecksTotal.WithLabelValues(norm(result)).Inc()
}

func IncStoreWriteFailure(operation string) {
	storeWriteFailuresTotal.WithLabelValues(norm(operation)).Inc()
}
