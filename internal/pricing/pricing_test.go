package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/assetlease/internal/domain"
)

func rangeOfDays(days int) domain.DateRange {
	start := domain.NewDate(2026, time.January, 1)
	return domain.DateRange{Start: start, End: start.AddDays(days)}
}

func TestTotalDaily(t *testing.T) {
	assert.Equal(t, 500000.0, Total(rangeOfDays(5), Daily, 100000))
	assert.Equal(t, 100000.0, Total(rangeOfDays(1), Daily, 100000))
}

func TestTotalMonthlyRounding(t *testing.T) {
	tests := []struct {
		days   int
		months float64
	}{
		{5, 1}, // one month minimum
		{30, 1},
		{35, 1},
		{40, 1},
		{44, 1},
		{45, 2}, // half-up boundary
		{60, 2},
		{75, 3},
	}
	for _, tt := range tests {
		got := Total(rangeOfDays(tt.days), Monthly, 2000000)
		assert.Equal(t, tt.months*2000000, got, "days=%d", tt.days)
	}
}

func TestTotalUnknownBasisFallsBackToDaily(t *testing.T) {
	assert.Equal(t, 300000.0, Total(rangeOfDays(3), Basis("weekly"), 100000))
}

func TestTotalNegativeRangeClampsToZero(t *testing.T) {
	inverted := domain.DateRange{
		Start: domain.NewDate(2026, time.January, 10),
		End:   domain.NewDate(2026, time.January, 1),
	}
	assert.Equal(t, 0.0, Total(inverted, Daily, 100000))
}
