package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"smarthome-go-api/metrics"
	"smarthome-go-api/models"
	"smarthome-go-api/tuya"
)

// CredentialStore reads a user's stored cloud credential pair.
type CredentialStore interface {
	CredentialByUser(ctx context.Context, userID int64) (tuya.Credential, error)
}

// Service is the gateway surface the HTTP handlers talk to: sync the device
// list, control a device, validate a credential pair.
type Service struct {
	registry   *Registry
	reconciler *Reconciler
	creds      CredentialStore
	store      DeviceStore
}

func NewService(registry *Registry, reconciler *Reconciler, creds CredentialStore, store DeviceStore) *Service {
	return &Service{
		registry:   registry,
		reconciler: reconciler,
		creds:      creds,
		store:      store,
	}
}

// ListAndSyncDevices pulls the remote snapshot, reconciles it into storage and
// reads back the user's full local device set ordered by name. A partial sync
// is not an error: refreshed records are current, failed ones stay stale.
func (s *Service) ListAndSyncDevices(ctx context.Context, userID int64) ([]models.DeviceRecord, error) {
	cred, err := s.creds.CredentialByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	client := s.registry.ClientFor(cred)

	devices, err := client.ListDevices(ctx)
	if err != nil {
		metrics.DeviceSync("error")
		return nil, err
	}

	if err := s.reconciler.Reconcile(ctx, userID, devices, client.GetDeviceStatus); err != nil {
		var partial *PartialSyncError
		if !errors.As(err, &partial) {
			metrics.DeviceSync("error")
			return nil, err
		}
		metrics.DeviceSync("partial")
		slog.Warn("device_sync_partial",
			slog.Int64("user_id", userID),
			slog.Int("failed", len(partial.DeviceIDs)),
		)
	} else {
		metrics.DeviceSync("ok")
	}

	return s.store.ListDevicesByUser(ctx, userID)
}

// ControlDevice switches a device on or off. The local status is written only
// after the cloud acknowledges the command, so a failed attempt leaves the
// last known status in place.
func (s *Service) ControlDevice(ctx context.Context, userID int64, deviceID, command string) error {
	if command != models.StatusOn && command != models.StatusOff {
		return fmt.Errorf("unsupported command %q", command)
	}

	cred, err := s.creds.CredentialByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}
	client := s.registry.ClientFor(cred)

	// Devices differ in which switch DP they expose; pick from the live
	// status and fall back to the primary code.
	code := switchCodes[0]
	if props, err := client.GetDeviceStatus(ctx, deviceID); err == nil && len(props) > 0 {
		code = switchCodeFor(props)
	}

	if err := client.SendCommand(ctx, deviceID, []tuya.Property{{Code: code, Value: command == models.StatusOn}}); err != nil {
		return err
	}

	if err := s.store.UpdateDeviceStatus(ctx, userID, deviceID, command); err != nil {
		// The cloud accepted the command; the next sync repairs the record.
		slog.Warn("status_write_failed",
			slog.String("device_id", deviceID),
			slog.Any("error", err),
		)
	}
	return nil
}

// ValidateCredential probes a credential pair by listing devices with it.
// Used at signup before the pair is stored.
func (s *Service) ValidateCredential(ctx context.Context, cred tuya.Credential) error {
	client := s.registry.ClientFor(cred)
	_, err := client.ListDevices(ctx)
	return err
}
