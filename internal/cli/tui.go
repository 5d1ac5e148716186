package cli

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/contribnet/pkg/centrality"
	"github.com/matzehuels/contribnet/pkg/projection"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// neighborsShown is the number of strongest ties listed for the selected member.
const neighborsShown = 5

// =============================================================================
// RankingModel - Interactive metric ranking
// =============================================================================

// RankingModel is the bubbletea model for browsing members ranked by a
// metric. ←/→ switch the metric, ↑/↓ move the cursor.
type RankingModel struct {
	Table  *centrality.Table
	Graph  *projection.Graph
	Metric int // index into centrality.AllMetrics
	Cursor int
	Offset int
	Height int

	ranked []centrality.Ranked
}

// NewRankingModel creates a ranking model sorted by metric. g may be nil,
// in which case no neighbors are shown.
func NewRankingModel(t *centrality.Table, g *projection.Graph, metric centrality.Metric) RankingModel {
	m := RankingModel{Table: t, Graph: g, Height: 15}
	if i := slices.Index(centrality.AllMetrics, metric); i >= 0 {
		m.Metric = i
	}
	m.rank()
	return m
}

func (m *RankingModel) rank() {
	m.ranked = m.Table.Top(m.metric(), 0)
	m.Cursor, m.Offset = 0, 0
}

func (m RankingModel) metric() centrality.Metric {
	return centrality.AllMetrics[m.Metric]
}

// Selected returns the member under the cursor.
func (m RankingModel) Selected() (string, bool) {
	if len(m.ranked) == 0 {
		return "", false
	}
	return m.ranked[m.Cursor].Member, true
}

func (m RankingModel) Init() tea.Cmd {
	return nil
}

func (m RankingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.Metric = (m.Metric + len(centrality.AllMetrics) - 1) % len(centrality.AllMetrics)
			m.rank()
		case "right", "l", "tab":
			m.Metric = (m.Metric + 1) % len(centrality.AllMetrics)
			m.rank()
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.Height)
		case "pgdown", " ":
			m.move(m.Height)
		case "home", "g":
			m.move(-len(m.ranked))
		case "end", "G":
			m.move(len(m.ranked))
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-12, 5)
		m.move(0)
	}
	return m, nil
}

// move shifts the cursor by delta, clamped to the ranking, and scrolls the
// window to keep it visible.
func (m *RankingModel) move(delta int) {
	if len(m.ranked) == 0 {
		return
	}
	m.Cursor = min(max(m.Cursor+delta, 0), len(m.ranked)-1)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m RankingModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Ranking by " + string(m.metric())))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ metric  ↑/↓ navigate  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.ranked))
	rows := rankingRows(m.Table, m.ranked[m.Offset:end])
	for i := range rows {
		rows[i][0] = strconv.Itoa(m.Offset + i + 1)
	}
	sortCol := m.Metric + 2

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(rankingHeaders()...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case m.Offset+row == m.Cursor:
				return listSelectedStyle.Padding(0, 1)
			case col == sortCol:
				return tableSortStyle
			default:
				return tableCellStyle
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.ranked)), len(m.ranked))))
	b.WriteString("\n")
	if ties := m.ties(); ties != "" {
		b.WriteString("\n")
		b.WriteString(ties)
	}

	return b.String()
}

// ties lists the strongest co-membership ties of the selected member.
func (m RankingModel) ties() string {
	member, ok := m.Selected()
	if !ok || m.Graph == nil {
		return ""
	}
	type tie struct {
		member string
		weight int
	}
	var all []tie
	for n, w := range m.Graph.Neighbors(member) {
		all = append(all, tie{n, w})
	}
	if len(all) == 0 {
		return listDimStyle.Render("  " + member + " has no co-members")
	}
	slices.SortStableFunc(all, func(a, b tie) int { return cmp.Compare(b.weight, a.weight) })

	parts := make([]string, 0, neighborsShown)
	for _, t := range all[:min(len(all), neighborsShown)] {
		parts = append(parts, fmt.Sprintf("%s %s", t.member, StyleNumber.Render("×"+strconv.Itoa(t.weight))))
	}
	line := "  " + StyleHighlight.Render(member) + StyleDim.Render(" shares groups with ") + strings.Join(parts, StyleDim.Render(", "))
	if len(all) > neighborsShown {
		line += StyleDim.Render(fmt.Sprintf(" and %d more", len(all)-neighborsShown))
	}
	return line
}
