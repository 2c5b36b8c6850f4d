package scenes

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rgehrsitz/savingsim/internal/compare"
	"github.com/rgehrsitz/savingsim/internal/tui/tuimsg"
	"github.com/rgehrsitz/savingsim/internal/tui/tuistyles"
)

var (
	keyUp     = key.NewBinding(key.WithKeys("up", "k"))
	keyDown   = key.NewBinding(key.WithKeys("down", "j"))
	keySelect = key.NewBinding(key.WithKeys("enter"))
	keyTop    = key.NewBinding(key.WithKeys("g"))
	keyBottom = key.NewBinding(key.WithKeys("G"))
)

// RankingModel lists ranked products and lets the user pick one
type RankingModel struct {
	ranking       *compare.RankingSet
	selectedIndex int
	width         int
	height        int
}

// NewRankingModel creates a new ranking scene model
func NewRankingModel() *RankingModel {
	return &RankingModel{}
}

// SetRanking replaces the displayed ranking
func (m *RankingModel) SetRanking(rs *compare.RankingSet) {
	m.ranking = rs
	if m.selectedIndex >= m.count() {
		m.selectedIndex = 0
	}
}

// SetSize updates the scene dimensions
func (m *RankingModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *RankingModel) count() int {
	if m.ranking == nil {
		return 0
	}
	return len(m.ranking.Entries)
}

// SelectedCode returns the code of the highlighted product
func (m *RankingModel) SelectedCode() string {
	if m.selectedIndex >= 0 && m.selectedIndex < m.count() {
		return m.ranking.Entries[m.selectedIndex].Code
	}
	return ""
}

// Update handles messages for the ranking scene
func (m *RankingModel) Update(msg tea.Msg) (*RankingModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, keyUp):
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}
	case key.Matches(keyMsg, keyDown):
		if m.selectedIndex < m.count()-1 {
			m.selectedIndex++
		}
	case key.Matches(keyMsg, keyTop):
		m.selectedIndex = 0
	case key.Matches(keyMsg, keyBottom):
		m.selectedIndex = max(0, m.count()-1)
	case key.Matches(keyMsg, keySelect):
		code := m.SelectedCode()
		if code == "" {
			return m, nil
		}
		return m, func() tea.Msg { return tuimsg.ProductSelectedMsg{Code: code} }
	}
	return m, nil
}

// View renders the ranking scene
func (m *RankingModel) View() string {
	if m.ranking == nil {
		return tuistyles.SubtitleStyle.Render("Ranking products...")
	}

	var b strings.Builder
	header := fmt.Sprintf("%-4s %-28s %16s %16s %12s", "#", "Product", "Surrender", "Costs", "Break-even")
	b.WriteString(tuistyles.MetricLabelStyle.Render(header))
	b.WriteString("\n")

	for i, e := range m.ranking.Entries {
		breakEven := "never"
		if e.BreakEvenYear > 0 {
			breakEven = fmt.Sprintf("year %d", e.BreakEvenYear)
		}
		line := fmt.Sprintf("%-4d %-28s %16s %16s %12s",
			e.Rank,
			truncate(e.Name, 28),
			tuistyles.FormatCurrency(e.FinalSurrender, e.Currency),
			tuistyles.FormatCurrency(e.TotalCost, e.Currency),
			breakEven)
		if i == m.selectedIndex {
			b.WriteString(tuistyles.SelectedItemStyle.Render("› " + line))
		} else {
			b.WriteString(tuistyles.UnselectedItemStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if len(m.ranking.Failures) > 0 {
		b.WriteString("\n")
		for _, f := range m.ranking.Failures {
			b.WriteString(tuistyles.WarningStyle.Render(fmt.Sprintf("  skipped %s: %s", f.Code, f.Error)))
			b.WriteString("\n")
		}
	}

	help := tuistyles.SubtitleStyle.Render("↑/↓ select • enter view breakdown")
	return lipgloss.JoinVertical(lipgloss.Left, b.String(), help)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}
