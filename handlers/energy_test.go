package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smarthome-go-api/energy"
	"smarthome-go-api/models"
)

type fakeEnergyReader struct {
	series []models.EnergyPoint
	err    error

	lastUserID   int64
	lastDeviceID string
	lastSince    time.Time
}

func (r *fakeEnergyReader) Summary(_ context.Context, userID int64, deviceID string, since time.Time) ([]models.EnergyPoint, error) {
	r.lastUserID = userID
	r.lastDeviceID = deviceID
	r.lastSince = since
	if r.err != nil {
		return nil, r.err
	}
	return r.series, nil
}

func newEnergyHandler(t *testing.T, reader *fakeEnergyReader) *EnergyHandler {
	t.Helper()
	tariff, err := energy.NewFixedTariff(0.12)
	if err != nil {
		t.Fatalf("NewFixedTariff error: %v", err)
	}
	return NewEnergyHandler(reader, tariff)
}

func TestSummaryTotalsAndCost(t *testing.T) {
	t.Parallel()

	reader := &fakeEnergyReader{series: []models.EnergyPoint{
		{Day: "2025-06-01", Hour: 9, Consumption: 0.5},
		{Day: "2025-06-01", Hour: 10, Consumption: 1.5},
	}}
	h := newEnergyHandler(t, reader)

	rec := httptest.NewRecorder()
	h.Summary(rec, authedRequest(http.MethodGet, "/api/energy/summary", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp models.EnergySummary
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.TotalConsumption != 2.0 {
		t.Errorf("total consumption = %v, want 2.0", resp.TotalConsumption)
	}
	if resp.TotalCost != 0.24 {
		t.Errorf("total cost = %v, want 0.24", resp.TotalCost)
	}
	if len(resp.Series) != 2 {
		t.Errorf("series length = %d, want 2", len(resp.Series))
	}
	if reader.lastUserID != 7 {
		t.Errorf("queried user = %d, want 7", reader.lastUserID)
	}
}

func TestSummaryDefaultPeriodIsToday(t *testing.T) {
	t.Parallel()

	reader := &fakeEnergyReader{}
	h := newEnergyHandler(t, reader)

	rec := httptest.NewRecorder()
	h.Summary(rec, authedRequest(http.MethodGet, "/api/energy/summary", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !reader.lastSince.Equal(today) {
		t.Errorf("since = %v, want %v", reader.lastSince, today)
	}
}

func TestSummaryDeviceFilterPassesThrough(t *testing.T) {
	t.Parallel()

	reader := &fakeEnergyReader{}
	h := newEnergyHandler(t, reader)

	rec := httptest.NewRecorder()
	h.Summary(rec, authedRequest(http.MethodGet, "/api/energy/summary?device_id=plug-1&period=week", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if reader.lastDeviceID != "plug-1" {
		t.Errorf("device filter = %q, want plug-1", reader.lastDeviceID)
	}
}

func TestSummaryInvalidPeriodIs400(t *testing.T) {
	t.Parallel()

	h := newEnergyHandler(t, &fakeEnergyReader{})

	rec := httptest.NewRecorder()
	h.Summary(rec, authedRequest(http.MethodGet, "/api/energy/summary?period=year", ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSummaryStoreFailureIs500(t *testing.T) {
	t.Parallel()

	h := newEnergyHandler(t, &fakeEnergyReader{err: errors.New("query failed")})

	rec := httptest.NewRecorder()
	h.Summary(rec, authedRequest(http.MethodGet, "/api/energy/summary", ""))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestSummaryWithoutIdentityIs401(t *testing.T) {
	t.Parallel()

	h := newEnergyHandler(t, &fakeEnergyReader{})

	rec := httptest.NewRecorder()
	h.Summary(rec, httptest.NewRequest(http.MethodGet, "/api/energy/summary", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestPeriodStart(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 13, 45, 0, 0, time.UTC)
	tests := []struct {
		period  string
		want    time.Time
		wantErr bool
	}{
		{period: "day", want: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)},
		{period: "week", want: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)},
		{period: "month", want: time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC)},
		{period: "year", wantErr: true},
		{period: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := periodStart(tt.period, now)
		if tt.wantErr {
			if err == nil {
				t.Errorf("periodStart(%q) expected error", tt.period)
			}
			continue
		}
		if err != nil {
			t.Errorf("periodStart(%q) error: %v", tt.period, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("periodStart(%q) = %v, want %v", tt.period, got, tt.want)
		}
	}
}
