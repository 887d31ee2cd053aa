package energy

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"smarthome-go-api/metrics"
	"smarthome-go-api/models"
)

// failureAlertThreshold is how many consecutive failed cycles trigger an ops
// notification.
const failureAlertThreshold = 3

// Store is the persistence the aggregator writes through, plus the device
// read it samples from. Energy upserts are additive per (device, day, hour).
type Store interface {
	ListActiveDevices(ctx context.Context) ([]models.DeviceRecord, error)
	AddEnergySample(ctx context.Context, entry models.EnergyLog) error
}

// Notifier delivers ops alerts; a nil-safe no-op is fine.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Aggregator periodically samples every non-offline device into hourly
// consumption buckets. It runs independently of request-driven sync; the two
// coordinate only through storage-level upserts.
type Aggregator struct {
	store    Store
	sampler  Sampler
	interval time.Duration
	notifier Notifier
	now      func() time.Time

	consecutiveFailures int
}

func NewAggregator(store Store, sampler Sampler, interval time.Duration, notifier Notifier) *Aggregator {
	return &Aggregator{
		store:    store,
		sampler:  sampler,
		interval: interval,
		notifier: notifier,
		now:      time.Now,
	}
}

// Start runs sampling cycles on the configured interval until the context is
// cancelled. A failed cycle leaves state as of the last successful one.
func (a *Aggregator) Start(ctx context.Context) {
	if a.interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := a.RunCycle(ctx); err != nil {
					slog.Error("energy_cycle_failed", slog.Any("error", err))
				}
			}
		}
	}()
}

// RunCycle samples every active device once. Per-device write failures do not
// abort the cycle; the cycle fails only when no device could be processed.
func (a *Aggregator) RunCycle(ctx context.Context) error {
	devices, err := a.store.ListActiveDevices(ctx)
	if err != nil {
		a.recordFailure(ctx, fmt.Errorf("list active devices: %w", err))
		return err
	}

	now := a.now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	written := 0
	for _, d := range devices {
		entry := models.EnergyLog{
			DeviceID:    d.DeviceID,
			UserID:      d.UserID,
			Consumption: round4(a.sampler.Sample(d.DeviceID)),
			Hour:        now.Hour(),
			Day:         day,
			Timestamp:   now,
		}
		if err := a.store.AddEnergySample(ctx, entry); err != nil {
			slog.Warn("energy_sample_failed",
				slog.String("device_id", d.DeviceID),
				slog.Any("error", err),
			)
			continue
		}
		metrics.EnergySampled()
		written++
	}

	if written == 0 && len(devices) > 0 {
		err := fmt.Errorf("all %d energy samples failed", len(devices))
		a.recordFailure(ctx, err)
		return err
	}

	a.consecutiveFailures = 0
	slog.Info("energy_cycle_done",
		slog.Int("devices", len(devices)),
		slog.Int("written", written),
	)
	return nil
}

func (a *Aggregator) recordFailure(ctx context.Context, err error) {
	metrics.EnergyCycleFailed()
	a.consecutiveFailures++
	if a.consecutiveFailures == failureAlertThreshold && a.notifier != nil {
		msg := fmt.Sprintf("[smarthome] energy aggregation failed %d cycles in a row: %v", a.consecutiveFailures, err)
		if nerr := a.notifier.Notify(ctx, msg); nerr != nil {
			slog.Warn("ops_notify_failed", slog.Any("error", nerr))
		}
	}
}

// round4 clamps a sample to the 4-decimal kWh precision of the log table.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
