package models

// Reason explains an authorize decision.
type Reason string

const (
	// ReasonBypass: a personal provider credential exempts the user from
	// metering; the ledger is not touched.
	ReasonBypass Reason = "bypass"
	// ReasonMetered: the call was counted against the user's quota.
	ReasonMetered Reason = "metered"
	// ReasonQuotaExceeded: the ledger denied the call.
	ReasonQuotaExceeded Reason = "quota_exceeded"
)

// Counter is one user's consumption for one period. The ledger exclusively
// owns these rows; prior periods are retained unchanged for audit.
type Counter struct {
	UserID    string
	PeriodKey string
	CountUsed int
	Limit     int
}

// ConsumeResult is the outcome of an atomic check-and-increment.
type ConsumeResult struct {
	Allowed   bool
	Remaining int
}

// Grant is the outcome of an authorize decision.
type Grant struct {
	Allowed   bool
	Reason    Reason
	Remaining int
}

// Stats is the read-only usage snapshot served to clients.
type Stats struct {
	Used         int  `json:"used"`
	Limit        int  `json:"limit"`
	Remaining    int  `json:"remaining"`
	BypassActive bool `json:"bypass_active"`
}
