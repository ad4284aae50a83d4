package models

// CleanupStatus summarises the best-effort object deletion that follows a
// committed metadata delete.
type CleanupStatus string

const (
	// CleanupComplete means every object was deleted (or there were none).
	CleanupComplete CleanupStatus = "complete"
	// CleanupPartial means some objects were deleted and some remain.
	CleanupPartial CleanupStatus = "partial"
	// CleanupFailed means no object could be deleted.
	CleanupFailed CleanupStatus = "failed"
)

// CleanupReport lists what the object cleanup achieved. PendingKeys are the
// keys whose objects may still exist and need reconciliation.
type CleanupReport struct {
	Status      CleanupStatus `json:"status"`
	Attempted   int           `json:"attempted"`
	Deleted     int           `json:"deleted"`
	PendingKeys []string      `json:"pendingKeys,omitempty"`
}

// NewCleanupReport derives the status from the number of attempted deletes
// and the keys that failed.
func NewCleanupReport(attempted int, pending []string) CleanupReport {
	r := CleanupReport{
		Attempted:   attempted,
		Deleted:     attempted - len(pending),
		PendingKeys: pending,
	}

	switch {
	case len(pending) == 0:
		r.Status = CleanupComplete
	case len(pending) == attempted:
		r.Status = CleanupFailed
	default:
		r.Status = CleanupPartial
	}

	return r
}

// Complete reports whether no residual cleanup work remains.
func (r CleanupReport) Complete() bool {
	return r.Status == CleanupComplete
}
