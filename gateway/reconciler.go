package gateway

import (
	"context"
	"log/slog"
	"sync"

	"smarthome-go-api/models"
	"smarthome-go-api/tuya"
)

// switchCodes are the capability codes recognized as the on/off data point,
// checked in priority order. Extend here when new device categories appear.
var switchCodes = []string{"switch_1", "switch"}

const defaultFanOut = 5

// DeviceStore is the persistence reconciliation writes through. Upserts are
// atomic per row; there is no cross-row transaction spanning a cycle.
type DeviceStore interface {
	UpsertDevice(ctx context.Context, rec models.DeviceRecord) error
	ListDevicesByUser(ctx context.Context, userID int64) ([]models.DeviceRecord, error)
	UpdateDeviceStatus(ctx context.Context, userID int64, deviceID, status string) error
}

// StatusFetcher returns the live data points of one device.
type StatusFetcher func(ctx context.Context, deviceID string) ([]tuya.Property, error)

// Reconciler merges a remote device snapshot into the local device table.
// Upsert only: devices that vanish from the remote list keep their last known
// state locally.
type Reconciler struct {
	store  DeviceStore
	fanOut int
}

func NewReconciler(store DeviceStore, fanOut int) *Reconciler {
	if fanOut <= 0 {
		fanOut = defaultFanOut
	}
	return &Reconciler{store: store, fanOut: fanOut}
}

// Reconcile refreshes each remote device's local record, fetching statuses
// with a bounded fan-out. One device failing does not abort the others; the
// failures come back as a *PartialSyncError once every device was attempted.
func (r *Reconciler) Reconcile(ctx context.Context, userID int64, devices []tuya.Device, fetch StatusFetcher) error {
	sem := make(chan struct{}, r.fanOut)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var failed []string

	for _, d := range devices {
		wg.Add(1)
		sem <- struct{}{}
		go func(d tuya.Device) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := r.reconcileOne(ctx, userID, d, fetch); err != nil {
				slog.Warn("device_refresh_failed",
					slog.String("device_id", d.ID),
					slog.Int64("user_id", userID),
					slog.Any("error", err),
				)
				mu.Lock()
				failed = append(failed, d.ID)
				mu.Unlock()
			}
		}(d)
	}
	wg.Wait()

	if len(failed) > 0 {
		return &PartialSyncError{DeviceIDs: failed}
	}
	return nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, userID int64, d tuya.Device, fetch StatusFetcher) error {
	props, err := fetch(ctx, d.ID)
	if err != nil {
		// The local record stays unmodified for this cycle.
		return err
	}

	return r.store.UpsertDevice(ctx, models.DeviceRecord{
		UserID:   userID,
		DeviceID: d.ID,
		Name:     d.Name,
		Type:     d.Category,
		Status:   DeriveStatus(d.Online, props),
	})
}

// DeriveStatus maps a device's online flag and data points to on/off/offline.
// An offline device is offline regardless of its cached switch value.
func DeriveStatus(online bool, props []tuya.Property) string {
	if !online {
		return models.StatusOffline
	}
	if on, ok := switchState(props); ok && on {
		return models.StatusOn
	}
	return models.StatusOff
}

// switchState finds the highest-priority recognized switch code and returns
// its boolean value.
func switchState(props []tuya.Property) (value, found bool) {
	for _, code := range switchCodes {
		for _, p := range props {
			if p.Code == code {
				b, ok := p.Value.(bool)
				return b, ok
			}
		}
	}
	return false, false
}

// switchCodeFor picks the command code to drive a device with: the first
// recognized code present in its live status, defaulting to the primary one.
func switchCodeFor(props []tuya.Property) string {
	for _, code := range switchCodes {
		for _, p := range props {
			if p.Code == code {
				return code
			}
		}
	}
	return switchCodes[0]
}
