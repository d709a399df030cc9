package domain

import "sort"

// Aggregate collapses enriched daily records into one row per station per
// calendar month. Station identity is the normalized identifier, so spelling
// variants of the same station fold into one group and the output carries the
// normalized form. Statistics cover non-null temperatures only; a group with
// no non-null readings yields nil avg/min/max rather than zero.
//
// Metadata must be uniform within a group. Differing values indicate a join
// defect and return a *MetadataConflictError instead of silently picking one.
// Output is sorted by station then month so repeated runs are byte-identical.
func Aggregate(records []EnrichedRecord) ([]MonthlyAggregate, error) {
	type groupKey struct {
		station string
		month   YearMonth
	}
	type group struct {
		meta     *StationMetadata
		metaSet  bool
		sum      float64
		count    int
		min, max float64
	}

	groups := make(map[groupKey]*group)
	for _, rec := range records {
		k := groupKey{NormalizeStationID(rec.StationID), MonthOf(rec.Date)}
		g, ok := groups[k]
		if !ok {
			g = &group{}
			groups[k] = g
		}

		if !g.metaSet {
			g.meta = rec.Metadata
			g.metaSet = true
		} else if !sameMetadata(g.meta, rec.Metadata) {
			return nil, &MetadataConflictError{StationID: k.station, Month: k.month}
		}

		if rec.Temperature == nil {
			continue
		}
		t := *rec.Temperature
		if g.count == 0 {
			g.min, g.max = t, t
		} else {
			if t < g.min {
				g.min = t
			}
			if t > g.max {
				g.max = t
			}
		}
		g.sum += t
		g.count++
	}

	aggregates := make([]MonthlyAggregate, 0, len(groups))
	for k, g := range groups {
		agg := MonthlyAggregate{
			StationID: k.station,
			Month:     k.month,
			Metadata:  g.meta,
		}
		if g.count > 0 {
			avg := g.sum / float64(g.count)
			minV, maxV := g.min, g.max
			agg.TemperatureAvg = &avg
			agg.TemperatureMin = &minV
			agg.TemperatureMax = &maxV
		}
		aggregates = append(aggregates, agg)
	}

	sort.Slice(aggregates, func(i, j int) bool {
		if aggregates[i].StationID != aggregates[j].StationID {
			return aggregates[i].StationID < aggregates[j].StationID
		}
		return aggregates[i].Month.Before(aggregates[j].Month)
	})
	return aggregates, nil
}

func sameMetadata(a, b *StationMetadata) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
