package centrality

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/matzehuels/contribnet/pkg/projection"
)

// Metric names one column of a [Table].
type Metric string

// Metric columns, in output order.
const (
	MetricDegree           Metric = "degree"
	MetricNormalizedDegree Metric = "normalized_degree"
	MetricCloseness        Metric = "closeness"
	MetricBetweenness      Metric = "betweenness"
	MetricClustering       Metric = "clustering"
)

// AllMetrics lists every metric in column order.
var AllMetrics = []Metric{
	MetricDegree,
	MetricNormalizedDegree,
	MetricCloseness,
	MetricBetweenness,
	MetricClustering,
}

// ParseMetric resolves a metric name. Hyphens are accepted in place of
// underscores.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if slices.Contains(AllMetrics, m) {
		return m, nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Metrics is the record computed for one member.
type Metrics struct {
	Degree           int     `json:"degree" bson:"degree"`
	NormalizedDegree float64 `json:"normalized_degree" bson:"normalized_degree"`
	Closeness        float64 `json:"closeness" bson:"closeness"`
	Betweenness      float64 `json:"betweenness" bson:"betweenness"`
	Clustering       float64 `json:"clustering" bson:"clustering"`
}

// Value returns the named metric as a float64.
func (m Metrics) Value(metric Metric) float64 {
	switch metric {
	case MetricDegree:
		return float64(m.Degree)
	case MetricNormalizedDegree:
		return m.NormalizedDegree
	case MetricCloseness:
		return m.Closeness
	case MetricBetweenness:
		return m.Betweenness
	case MetricClustering:
		return m.Clustering
	default:
		return 0
	}
}

// Row pairs a member with its metrics.
type Row struct {
	Member  string `json:"member" bson:"member"`
	Metrics `bson:",inline"`
}

// Table maps every member of a projection to its metrics. Columns are
// stored separately so each metric can be filled independently.
type Table struct {
	members     []string
	index       map[string]int
	degree      []int
	normalized  []float64
	closeness   []float64
	betweenness []float64
	clustering  []float64
}

// NewTable creates an empty table over the given members, sorted.
func NewTable(members []string) *Table {
	names := slices.Clone(members)
	slices.Sort(names)
	n := len(names)
	t := &Table{
		members:     names,
		index:       make(map[string]int, n),
		degree:      make([]int, n),
		normalized:  make([]float64, n),
		closeness:   make([]float64, n),
		betweenness: make([]float64, n),
		clustering:  make([]float64, n),
	}
	for i, m := range names {
		t.index[m] = i
	}
	return t
}

func newTableFor(g *projection.Graph) *Table {
	return NewTable(g.Nodes())
}

// Len returns the number of members.
func (t *Table) Len() int { return len(t.members) }

// Members returns the member identifiers in ascending order.
func (t *Table) Members() []string { return slices.Clone(t.members) }

// Row returns the record at position i in member order.
func (t *Table) Row(i int) Row {
	return Row{
		Member: t.members[i],
		Metrics: Metrics{
			Degree:           t.degree[i],
			NormalizedDegree: t.normalized[i],
			Closeness:        t.closeness[i],
			Betweenness:      t.betweenness[i],
			Clustering:       t.clustering[i],
		},
	}
}

// Get returns the metrics of member.
func (t *Table) Get(member string) (Metrics, bool) {
	i, ok := t.index[member]
	if !ok {
		return Metrics{}, false
	}
	return t.Row(i).Metrics, true
}

// Set stores the metrics of member. Unknown members are ignored and
// reported with false.
func (t *Table) Set(member string, m Metrics) bool {
	i, ok := t.index[member]
	if !ok {
		return false
	}
	t.degree[i] = m.Degree
	t.normalized[i] = m.NormalizedDegree
	t.closeness[i] = m.Closeness
	t.betweenness[i] = m.Betweenness
	t.clustering[i] = m.Clustering
	return true
}

// Rows returns every record in member order.
func (t *Table) Rows() []Row {
	out := make([]Row, t.Len())
	for i := range out {
		out[i] = t.Row(i)
	}
	return out
}

// Map returns the table as member -> metrics.
func (t *Table) Map() map[string]Metrics {
	out := make(map[string]Metrics, t.Len())
	for i, m := range t.members {
		out[m] = t.Row(i).Metrics
	}
	return out
}

// Column returns a copy of one metric column in member order.
func (t *Table) Column(metric Metric) []float64 {
	out := make([]float64, t.Len())
	for i := range out {
		out[i] = t.Row(i).Value(metric)
	}
	return out
}

// Ranked is a member with the value of a single metric.
type Ranked struct {
	Member string  `json:"member"`
	Value  float64 `json:"value"`
}

// Top returns the k members with the highest value of metric, ties broken
// by member id. k <= 0 returns every member.
func (t *Table) Top(metric Metric, k int) []Ranked {
	col := t.Column(metric)
	idx := make([]int, len(col))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return col[idx[a]] > col[idx[b]]
	})
	if k <= 0 || k > len(idx) {
		k = len(idx)
	}
	out := make([]Ranked, k)
	for i := range out {
		out[i] = Ranked{Member: t.members[idx[i]], Value: col[idx[i]]}
	}
	return out
}

// Finite reports whether every value in the table is a finite number.
func (t *Table) Finite() bool {
	for _, col := range [][]float64{t.normalized, t.closeness, t.betweenness, t.clustering} {
		for _, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// MarshalJSON encodes the table as an object keyed by member.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Map())
}

// UnmarshalJSON decodes an object keyed by member.
func (t *Table) UnmarshalJSON(data []byte) error {
	var m map[string]Metrics
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	members := make([]string, 0, len(m))
	for k := range m {
		members = append(members, k)
	}
	*t = *NewTable(members)
	for k, v := range m {
		t.Set(k, v)
	}
	return nil
}
