package types

// AccountStatus is the closed set of billing states an account can be in.
// Every transition between statuses is driven by exactly one applied
// webhook event.
type AccountStatus string

const (
	AccountStatusTrial      AccountStatus = "trial"
	AccountStatusActive     AccountStatus = "active"
	AccountStatusActiveFree AccountStatus = "active_free"
	AccountStatusCanceled   AccountStatus = "canceled"
	AccountStatusPaused     AccountStatus = "paused"
	AccountStatusPastDue    AccountStatus = "past_due"
	AccountStatusFrozen     AccountStatus = "frozen"
	AccountStatusDeleted    AccountStatus = "deleted"
)

// Terminal reports whether the status accepts no further transitions.
// Deleted accounts stay deleted; late webhook deliveries must not
// resurrect them.
func (s AccountStatus) Terminal() bool {
	return s == AccountStatusDeleted
}
