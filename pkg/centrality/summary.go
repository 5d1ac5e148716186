package centrality

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/contribnet/pkg/projection"
)

// Distribution describes the spread of one metric across all members.
type Distribution struct {
	Metric Metric   `json:"metric"`
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	Mean   float64  `json:"mean"`
	StdDev float64  `json:"stddev"`
	Median float64  `json:"median"`
	P90    float64  `json:"p90"`
	Top    []Ranked `json:"top"`
}

// Summary reports graph shape and per-metric distributions.
type Summary struct {
	Nodes         int            `json:"nodes"`
	Edges         int            `json:"edges"`
	TotalWeight   int            `json:"total_weight"`
	Isolated      int            `json:"isolated"`
	Components    int            `json:"components"`
	LargestComp   int            `json:"largest_component"`
	Density       float64        `json:"density"`
	Distributions []Distribution `json:"distributions"`
}

// Summarize describes g and t, listing the top k members of each metric.
// g may be nil when only the table is available (for example after a
// cache hit); graph fields are then left zero.
func Summarize(g *projection.Graph, t *Table, k int) Summary {
	var s Summary
	if g != nil {
		s.Nodes = g.NodeCount()
		s.Edges = g.EdgeCount()
		s.TotalWeight = g.TotalWeight()
		s.Isolated = len(g.Isolated())
		sizes := projection.ComponentSizes(g)
		s.Components = len(sizes)
		if len(sizes) > 0 {
			s.LargestComp = slices.Max(sizes)
		}
		if n := s.Nodes; n > 1 {
			s.Density = 2 * float64(s.Edges) / (float64(n) * float64(n-1))
		}
	} else {
		s.Nodes = t.Len()
	}

	for _, m := range AllMetrics {
		s.Distributions = append(s.Distributions, describe(t, m, k))
	}
	return s
}

// Distribution returns the entry for metric, if present.
func (s Summary) Distribution(metric Metric) (Distribution, bool) {
	for _, d := range s.Distributions {
		if d.Metric == metric {
			return d, true
		}
	}
	return Distribution{}, false
}

func describe(t *Table, metric Metric, k int) Distribution {
	d := Distribution{Metric: metric}
	col := t.Column(metric)
	if len(col) == 0 {
		return d
	}

	d.Min = floats.Min(col)
	d.Max = floats.Max(col)
	d.Mean, d.StdDev = stat.MeanStdDev(col, nil)
	if len(col) < 2 {
		d.StdDev = 0
	}

	sorted := slices.Clone(col)
	slices.Sort(sorted)
	d.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	d.P90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	d.Top = t.Top(metric, k)
	return d
}
