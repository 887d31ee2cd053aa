package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"smarthome-go-api/energy"
	"smarthome-go-api/models"
	"smarthome-go-api/utils"
)

// EnergyReader reads aggregated consumption series.
type EnergyReader interface {
	Summary(ctx context.Context, userID int64, deviceID string, since time.Time) ([]models.EnergyPoint, error)
}

type EnergyHandler struct {
	Store  EnergyReader
	Tariff *energy.FixedTariff
}

func NewEnergyHandler(store EnergyReader, tariff *energy.FixedTariff) *EnergyHandler {
	return &EnergyHandler{Store: store, Tariff: tariff}
}

// Summary returns the hourly consumption series for a period plus totals.
// Cost is computed here from the tariff; it is never stored.
func (h *EnergyHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(int64)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	deviceID := r.URL.Query().Get("device_id")
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "day"
	}

	since, err := periodStart(period, time.Now().UTC())
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := h.Store.Summary(r.Context(), userID, deviceID, since)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	var total float64
	for _, p := range series {
		total += p.Consumption
	}

	utils.WriteJSON(w, http.StatusOK, models.EnergySummary{
		Series:           series,
		TotalConsumption: total,
		TotalCost:        h.Tariff.Cost(total),
	})
}

// periodStart maps a period name to the first day it covers, in UTC.
func periodStart(period string, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case "day":
		return today, nil
	case "week":
		return today.AddDate(0, 0, -6), nil
	case "month":
		return today.AddDate(0, 0, -29), nil
	default:
		return time.Time{}, fmt.Errorf("invalid period %q", period)
	}
}
