package domain

// ComputeYoY returns the input aggregates with TemperatureYoYAvg populated:
// the current month's average minus the same station and calendar month one
// year earlier. The lookup is keyed on (station, year-month), so gaps in the
// month sequence cannot misalign the comparison. The delta is nil when the
// prior-year row is absent (a normal condition for a station's first year)
// or when either side's average is nil. The input slice is not modified.
func ComputeYoY(aggregates []MonthlyAggregate) []MonthlyAggregate {
	type key struct {
		station string
		month   YearMonth
	}
	avgs := make(map[key]*float64, len(aggregates))
	for _, agg := range aggregates {
		avgs[key{agg.StationID, agg.Month}] = agg.TemperatureAvg
	}

	out := make([]MonthlyAggregate, len(aggregates))
	for i, agg := range aggregates {
		out[i] = agg
		out[i].TemperatureYoYAvg = nil

		prior, ok := avgs[key{agg.StationID, agg.Month.PriorYear()}]
		if !ok || prior == nil || agg.TemperatureAvg == nil {
			continue
		}
		delta := *agg.TemperatureAvg - *prior
		out[i].TemperatureYoYAvg = &delta
	}
	return out
}
