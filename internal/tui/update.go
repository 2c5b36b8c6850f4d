package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/savingsim/internal/tui/tuimsg"
)

// Update handles all messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rankingModel.SetSize(msg.Width, msg.Height)
		m.resultsModel.SetSize(msg.Width, msg.Height)
		return m, nil

	case NavigateMsg:
		m.previousScene = m.currentScene
		m.currentScene = msg.Scene
		return m, nil

	case ErrorMsg:
		m.loading = false
		m.err = msg.Err
		return m, nil

	case ConfigLoadedMsg:
		m.config = msg.Config
		m.loadingMessage = "Ranking products..."
		return m, rankCmd(msg.Config, msg.Candidates)

	case RankingCompleteMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.ranking = msg.Ranking
		m.rankingModel.SetRanking(msg.Ranking)
		return m, nil

	case tuimsg.ProductSelectedMsg:
		if m.ranking == nil {
			return m, nil
		}
		best, _ := m.ranking.Best()
		for _, e := range m.ranking.Entries {
			if e.Code == msg.Code {
				m.resultsModel.SetEntry(e, best)
				m.previousScene = m.currentScene
				m.currentScene = SceneResults
				break
			}
		}
		return m, nil

	case tuimsg.BackMsg:
		m.currentScene = SceneRanking
		return m, nil
	}

	return m.updateCurrentScene(msg)
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "?":
		if m.currentScene == SceneHelp {
			m.currentScene = m.previousScene
			return m, nil
		}
		return m, func() tea.Msg {
			return NavigateMsg{Scene: SceneHelp}
		}

	case "esc":
		if m.currentScene == SceneHelp {
			m.currentScene = m.previousScene
			return m, nil
		}
	}

	return m.updateCurrentScene(msg)
}

// updateCurrentScene delegates updates to the current scene's model
func (m Model) updateCurrentScene(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentScene {
	case SceneRanking:
		m.rankingModel, cmd = m.rankingModel.Update(msg)
	case SceneResults:
		m.resultsModel, cmd = m.resultsModel.Update(msg)
	}
	return m, cmd
}
