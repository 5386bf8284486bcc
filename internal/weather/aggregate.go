package weather

import (
	"sort"
	"time"
)

// BuildHourlyWindow shapes raw hourly samples into the fixed-length window the
// API promises. Samples are sorted ascending, anything before the start of the
// current hour is dropped, and the first size entries are kept. When the input
// spans day boundaries this naturally concatenates the remaining hours of the
// current local day with the leading hours of the next. Fewer samples than
// size means the input was exhausted; the shorter window is returned as-is.
func BuildHourlyWindow(points []HourlyPoint, now time.Time, size int) []HourlyPoint {
	if size <= 0 || len(points) == 0 {
		return nil
	}

	out := make([]HourlyPoint, len(points))
	copy(out, points)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	cutoff := now.Truncate(time.Hour)
	i := 0
	for ; i < len(out); i++ {
		if !out[i].Timestamp.Before(cutoff) {
			break
		}
	}
	out = out[i:]

	if len(out) > size {
		out = out[:size]
	}
	return out
}

// AggregateDaily groups hourly samples by local calendar date and reduces each
// group to one DailyPoint: min/max across all samples sharing the date, with
// the representative icon, text, humidity, and wind taken from the first
// sample of that date (first-seen wins, not most-frequent). Grouping uses each
// timestamp's own zone, so day boundaries follow local time rather than UTC.
// The result is capped at maxDays and the computation is idempotent: grouping
// the same series twice yields identical output.
func AggregateDaily(points []HourlyPoint, maxDays int) []DailyPoint {
	if maxDays <= 0 || len(points) == 0 {
		return nil
	}

	sorted := make([]HourlyPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var (
		order  []string
		groups = make(map[string]*DailyPoint)
	)

	for _, p := range sorted {
		date := p.Timestamp.Format("2006-01-02")
		d, ok := groups[date]
		if !ok {
			if len(order) >= maxDays {
				continue
			}
			groups[date] = &DailyPoint{
				Date:            date,
				MinTemperatureC: p.TemperatureC,
				MaxTemperatureC: p.TemperatureC,
				ConditionIcon:   p.ConditionIcon,
				ConditionText:   p.ConditionText,
				HumidityPct:     p.HumidityPct,
				WindSpeedKph:    p.WindSpeedKph,
			}
			order = append(order, date)
			continue
		}
		if p.TemperatureC < d.MinTemperatureC {
			d.MinTemperatureC = p.TemperatureC
		}
		if p.TemperatureC > d.MaxTemperatureC {
			d.MaxTemperatureC = p.TemperatureC
		}
	}

	out := make([]DailyPoint, 0, len(order))
	for _, date := range order {
		out = append(out, *groups[date])
	}
	return out
}
