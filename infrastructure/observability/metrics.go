package observability

import (
	"sort"

	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Total is the aggregate of one instrument at collection time.
type Total struct {
	Name string
	Unit string
	// Value is the sum for counters and the sum of samples for histograms.
	Value float64
	// Count is the number of histogram samples. Zero for sums.
	Count uint64
}

// Totals flattens collected metrics into one total per instrument, sorted
// by name.
func Totals(rm metricdata.ResourceMetrics) []Total {
	var totals []Total
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			t := Total{Name: m.Name, Unit: m.Unit}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					t.Value += float64(dp.Value)
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					t.Value += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					t.Value += dp.Sum
					t.Count += dp.Count
				}
			case metricdata.Histogram[int64]:
				for _, dp := range data.DataPoints {
					t.Value += float64(dp.Sum)
					t.Count += dp.Count
				}
			default:
				continue
			}
			totals = append(totals, t)
		}
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Name < totals[j].Name })
	return totals
}
