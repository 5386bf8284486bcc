package weather

import (
	"math/rand"
	"time"
)

// SyntheticHistory derives a historical-looking daily series from current
// conditions. This is explicitly a simulation: a deterministic pseudo-random
// perturbation of today's reading, not real historical records. Callers must
// present it as such.
//
// The same (conditions, days, seed) input always produces the same series, so
// a page refresh does not reshuffle the past.
func SyntheticHistory(cond CurrentConditions, now time.Time, days int, seed int64) []DailyPoint {
	if days <= 0 {
		return nil
	}

	out := make([]DailyPoint, 0, days)
	for i := 1; i <= days; i++ {
		day := now.AddDate(0, 0, -i)
		rng := rand.New(rand.NewSource(seed + int64(i)))

		// Temperatures drift within ±3°C of today, with a 2-5°C daily spread.
		center := cond.TemperatureC + (rng.Float64()*6 - 3)
		spread := 2 + rng.Float64()*3

		humidity := clampPct(cond.HumidityPct + (rng.Float64()*20 - 10))
		wind := cond.WindSpeedKph * (0.7 + rng.Float64()*0.6)
		if wind < 0 {
			wind = 0
		}

		out = append(out, DailyPoint{
			Date:            day.Format("2006-01-02"),
			MinTemperatureC: center - spread/2,
			MaxTemperatureC: center + spread/2,
			ConditionIcon:   cond.ConditionIcon,
			ConditionText:   cond.ConditionText,
			HumidityPct:     humidity,
			WindSpeedKph:    wind,
		})
	}
	return out
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
