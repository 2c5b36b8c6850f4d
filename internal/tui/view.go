package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the current state of the application
func (m Model) View() string {
	if m.err != nil {
		return m.renderError()
	}
	if m.loading {
		return m.renderLoading()
	}

	var content string
	switch m.currentScene {
	case SceneRanking:
		content = m.rankingModel.View()
	case SceneResults:
		content = m.resultsModel.View()
	case SceneHelp:
		content = m.renderHelp()
	default:
		content = "Unknown scene"
	}

	return m.renderApp(content)
}

// renderApp wraps content with title bar and status bar
func (m Model) renderApp(content string) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderTitleBar(),
		content,
		m.renderStatusBar(),
	)
}

// renderTitleBar renders the application title and breadcrumb
func (m Model) renderTitleBar() string {
	title := TitleStyle.Render("SAVINGSIM - Contract Cash-Flow Simulator")

	crumb := m.currentScene.String()
	if m.config != nil {
		crumb = fmt.Sprintf("%s / %s", m.config.Name, crumb)
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, SubtitleStyle.Render(crumb))
}

// renderStatusBar renders the bottom status bar with keyboard shortcuts
func (m Model) renderStatusBar() string {
	shortcuts := []string{
		formatShortcut("enter", "details"),
		formatShortcut("esc", "back"),
		formatShortcut("?", "help"),
		formatShortcut("q", "quit"),
	}
	status := strings.Join(shortcuts, " • ")
	if m.ranking != nil {
		status += "   run " + shortID(m.ranking.RunID)
	}
	return StatusBarStyle.Width(m.width).Render(status)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatShortcut formats a keyboard shortcut with key and description
func formatShortcut(key, desc string) string {
	return StatusKeyStyle.Render(key) + " " + desc
}

func (m Model) renderLoading() string {
	message := m.loadingMessage
	if message == "" {
		message = "Loading..."
	}
	return InfoStyle.Render(message)
}

func (m Model) renderError() string {
	return ErrorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
}

func (m Model) renderHelp() string {
	lines := []string{
		"Ranking",
		"  ↑/k ↓/j   move selection",
		"  g / G     first / last product",
		"  enter     show yearly breakdown",
		"",
		"Breakdown",
		"  ↑/↓       scroll years",
		"  esc       back to ranking",
		"",
		"  ?         toggle help",
		"  q         quit",
	}
	return strings.Join(lines, "\n")
}
