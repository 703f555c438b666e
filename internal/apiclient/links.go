package apiclient

// Remote API paths, relative to the configured base URL.
const (
	PathLogin   = "/auth/login"
	PathRefresh = "/auth/refresh"
	PathLogout  = "/auth/logout"
	PathMe      = "/auth/me"

	PathSummary             = "/admin/summary"
	PathTraders             = "/admin/traders"
	PathMarginCalls         = "/admin/margin-calls"
	PathActiveUsers         = "/admin/active-users"
	PathPendingTransactions = "/admin/pending-transactions"
	PathTransactions        = "/admin/transactions"
	PathUsersVerification   = "/admin/users-verification"
	PathUsers               = "/admin/users"
	PathAdminUsers          = "/admin/admin-users"

	PathPayment       = "/payment"
	PathDeposit       = "/deposit"
	PathCryptoDeposit = "/deposit/crypto"
)
