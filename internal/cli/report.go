package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/contribnet/pkg/centrality"
	"github.com/matzehuels/contribnet/pkg/pipeline"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	tableSortStyle   = tableCellStyle.Foreground(colorCyan)
)

func formatMetric(m centrality.Metrics, metric centrality.Metric) string {
	if metric == centrality.MetricDegree {
		return strconv.Itoa(m.Degree)
	}
	v := m.Value(metric)
	if metric == centrality.MetricBetweenness && v >= 1000 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// rankingRows returns one row per ranked member: rank, member, metrics.
func rankingRows(t *centrality.Table, ranked []centrality.Ranked) [][]string {
	rows := make([][]string, 0, len(ranked))
	for i, r := range ranked {
		m, _ := t.Get(r.Member)
		row := []string{strconv.Itoa(i + 1), r.Member}
		for _, metric := range centrality.AllMetrics {
			row = append(row, formatMetric(m, metric))
		}
		rows = append(rows, row)
	}
	return rows
}

func rankingHeaders() []string {
	headers := []string{"#", "member"}
	for _, m := range centrality.AllMetrics {
		headers = append(headers, string(m))
	}
	return headers
}

// rankingTable renders the top k members by metric, highlighting the
// sort column.
func rankingTable(t *centrality.Table, metric centrality.Metric, k int) string {
	sortCol := 2
	for i, m := range centrality.AllMetrics {
		if m == metric {
			sortCol = i + 2
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(rankingHeaders()...).
		Rows(rankingRows(t, t.Top(metric, k))...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case col == sortCol:
				return tableSortStyle
			default:
				return tableCellStyle
			}
		}).
		Render()
}

// distributionTable renders min/mean/median/p90/max per metric.
func distributionTable(s centrality.Summary) string {
	rows := make([][]string, 0, len(s.Distributions))
	for _, d := range s.Distributions {
		f := func(v float64) string { return strconv.FormatFloat(v, 'g', 4, 64) }
		rows = append(rows, []string{string(d.Metric), f(d.Min), f(d.Mean), f(d.Median), f(d.P90), f(d.Max), f(d.StdDev)})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("metric", "min", "mean", "median", "p90", "max", "stddev").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Render()
}

// printSummary prints the graph shape and metric distributions.
func printSummary(s centrality.Summary) {
	printKeyValue("Nodes", strconv.Itoa(s.Nodes))
	printKeyValue("Edges", strconv.Itoa(s.Edges))
	printKeyValue("Weight", strconv.Itoa(s.TotalWeight))
	printKeyValue("Density", strconv.FormatFloat(s.Density, 'g', 4, 64))
	printKeyValue("Components", fmt.Sprintf("%d (largest %d, %d isolated)", s.Components, s.LargestComp, s.Isolated))
	fmt.Println(distributionTable(s))
}

// printRunStats prints sizes, stage timings and memory of a run.
func printRunStats(st pipeline.Stats, ci pipeline.CacheInfo) {
	printKeyValue("Groups", strconv.Itoa(st.Groups))
	printKeyValue("Members", strconv.Itoa(st.Members))
	printKeyValue("Memberships", strconv.Itoa(st.Memberships))
	if st.InputBytes > 0 {
		printKeyValue("Input", formatBytes(uint64(st.InputBytes)))
	}
	printKeyValue("Load", st.LoadTime.Round(time.Microsecond).String())
	printKeyValue("Project", stageTime(st.ProjectTime, ci.ProjectionHit))
	printKeyValue("Analyze", stageTime(st.AnalyzeTime, ci.MetricsHit))
	printKeyValue("Heap", formatBytes(st.HeapInUse))
}

func stageTime(d time.Duration, cached bool) string {
	s := d.Round(time.Microsecond).String()
	if cached {
		return s + " " + styleCached.Render("("+iconCached+")")
	}
	return s
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
