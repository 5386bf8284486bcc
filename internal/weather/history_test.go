package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticHistoryDeterministic(t *testing.T) {
	cond := CurrentConditions{TemperatureC: 28, HumidityPct: 70, WindSpeedKph: 14, ConditionIcon: "02d", ConditionText: "Partly cloudy"}
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	first := SyntheticHistory(cond, now, 7, 42)
	second := SyntheticHistory(cond, now, 7, 42)
	assert.Equal(t, first, second, "same inputs must not reshuffle the past")

	other := SyntheticHistory(cond, now, 7, 43)
	assert.NotEqual(t, first, other)
}

func TestSyntheticHistoryBounds(t *testing.T) {
	cond := CurrentConditions{TemperatureC: 28, HumidityPct: 95, WindSpeedKph: 14}
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	days := SyntheticHistory(cond, now, 10, 7)
	require.Len(t, days, 10)

	for i, d := range days {
		assert.Equal(t, now.AddDate(0, 0, -(i+1)).Format("2006-01-02"), d.Date)
		assert.Less(t, d.MinTemperatureC, d.MaxTemperatureC)
		// Center stays within ±3°C of today, spread within 2-5°C.
		assert.InDelta(t, cond.TemperatureC, (d.MinTemperatureC+d.MaxTemperatureC)/2, 3.01)
		assert.GreaterOrEqual(t, d.HumidityPct, 0.0)
		assert.LessOrEqual(t, d.HumidityPct, 100.0)
		assert.GreaterOrEqual(t, d.WindSpeedKph, 0.0)
	}
}

func TestSyntheticHistoryZeroDays(t *testing.T) {
	assert.Nil(t, SyntheticHistory(CurrentConditions{}, time.Now(), 0, 1))
}
