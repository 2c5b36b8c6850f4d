package scenes

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rgehrsitz/savingsim/internal/compare"
	"github.com/rgehrsitz/savingsim/internal/tui/components"
	"github.com/rgehrsitz/savingsim/internal/tui/tuimsg"
	"github.com/rgehrsitz/savingsim/internal/tui/tuistyles"
)

var keyBack = key.NewBinding(key.WithKeys("esc", "backspace"))

// ResultsModel shows the yearly breakdown of one ranked product
type ResultsModel struct {
	entry  *compare.RankEntry
	best   *compare.RankEntry
	table  table.Model
	width  int
	height int
}

// NewResultsModel creates a new results scene model
func NewResultsModel() *ResultsModel {
	return &ResultsModel{
		table: table.New(
			table.WithColumns(resultColumns()),
			table.WithFocused(true),
			table.WithHeight(12),
		),
	}
}

func resultColumns() []table.Column {
	return []table.Column{
		{Title: "Year", Width: 5},
		{Title: "Paid In", Width: 13},
		{Title: "Costs", Width: 11},
		{Title: "Yield", Width: 11},
		{Title: "Bonus+TC", Width: 11},
		{Title: "Balance", Width: 13},
		{Title: "Fee %", Width: 6},
		{Title: "Surrender", Width: 13},
	}
}

// SetEntry shows entry, with best used for the comparison trend
func (m *ResultsModel) SetEntry(entry, best compare.RankEntry) {
	m.entry = &entry
	m.best = &best

	rows := []table.Row{}
	if entry.Results != nil {
		cur := entry.Results.Currency
		for _, r := range entry.Results.Rows {
			rows = append(rows, table.Row{
				strconv.Itoa(r.Year),
				tuistyles.FormatCurrency(r.Contributions, cur),
				tuistyles.FormatCurrency(r.CostTotal, cur),
				tuistyles.FormatCurrency(r.Yield, cur),
				tuistyles.FormatCurrency(r.Bonus.Add(r.TaxCredit), cur),
				tuistyles.FormatCurrency(r.EndBalance, cur),
				r.RedemptionFeePercent.StringFixed(1),
				tuistyles.FormatCurrency(r.SurrenderValue, cur),
			})
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Entry returns the displayed entry, or nil
func (m *ResultsModel) Entry() *compare.RankEntry {
	return m.entry
}

// SetSize updates the scene dimensions
func (m *ResultsModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	if height > 14 {
		m.table.SetHeight(height - 14)
	}
}

// Update handles messages for the results scene
func (m *ResultsModel) Update(msg tea.Msg) (*ResultsModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, keyBack) {
		return m, func() tea.Msg { return tuimsg.BackMsg{} }
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the results scene
func (m *ResultsModel) View() string {
	if m.entry == nil {
		return tuistyles.SubtitleStyle.Render("No product selected. Press enter on the ranking.")
	}
	e := m.entry

	header := tuistyles.TitleStyle.Render(fmt.Sprintf("#%d %s", e.Rank, e.Name))

	surrender := components.NewMetricCard("Surrender value", tuistyles.FormatCurrency(e.FinalSurrender, e.Currency))
	if m.best != nil && m.best.Code != e.Code {
		surrender.WithTrend(false, tuistyles.FormatCurrency(e.DiffFromBest, e.Currency)+" vs best")
	}
	breakEven := "never"
	if e.BreakEvenYear > 0 {
		breakEven = fmt.Sprintf("year %d", e.BreakEvenYear)
	}
	cards := []*components.MetricCard{
		components.NewMetricCard("Paid in", tuistyles.FormatCurrency(e.TotalContributions, e.Currency)),
		components.NewMetricCard("Costs", tuistyles.FormatCurrency(e.TotalCost, e.Currency)),
		components.NewMetricCard("Balance", tuistyles.FormatCurrency(e.FinalBalance, e.Currency)),
		surrender,
		components.NewMetricCard("Break-even", breakEven),
	}

	help := tuistyles.SubtitleStyle.Render("↑/↓ scroll years • esc back to ranking")
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		components.MetricGrid(cards, 5),
		m.table.View(),
		help,
	)
}
