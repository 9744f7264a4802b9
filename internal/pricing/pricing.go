// Package pricing computes contract totals from an asset's unit rate.
// All functions are pure; callers validate the date range first.
package pricing

import "github.com/yourorg/assetlease/internal/domain"

// Basis selects how a rental period is charged.
type Basis string

const (
	Daily   Basis = "daily"
	Monthly Basis = "monthly"
)

// Total computes the contract price for a validated range.
//
// Daily charges per whole day (end minus start). Monthly rounds the day
// count to the nearest 30-day month, half-up at the 15-day boundary, with
// a one month minimum: 35 and 40 days charge 1 month, 45 days charges 2.
// An unrecognized basis falls back to daily.
func Total(rng domain.DateRange, basis Basis, unitRate float64) float64 {
	days := rng.Days()
	if days < 0 {
		days = 0
	}

	switch basis {
	case Monthly:
		return float64(months(days)) * unitRate
	default:
		return float64(days) * unitRate
	}
}

func months(days int) int {
	m := (days + 15) / 30
	if m < 1 {
		m = 1
	}
	return m
}
