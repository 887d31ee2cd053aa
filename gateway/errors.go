package gateway

import "fmt"

// PartialSyncError reports devices whose status could not be refreshed during
// a reconciliation cycle. It is logged, never surfaced to the user: the stale
// records simply remain visible until the next successful cycle.
type PartialSyncError struct {
	DeviceIDs []string
}

func (e *PartialSyncError) Error() string {
	return fmt.Sprintf("sync incomplete: %d device(s) failed to refresh", len(e.DeviceIDs))
}
