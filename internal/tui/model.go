package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/savingsim/internal/calculation"
	"github.com/rgehrsitz/savingsim/internal/compare"
	"github.com/rgehrsitz/savingsim/internal/config"
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/rgehrsitz/savingsim/internal/products"
	"github.com/rgehrsitz/savingsim/internal/tui/scenes"
)

// Model represents the entire application state
type Model struct {
	// Navigation
	currentScene  Scene
	previousScene Scene

	// Terminal dimensions
	width  int
	height int

	// Configuration and data
	configPath  string
	catalogPath string
	config      *domain.Configuration
	ranking     *compare.RankingSet

	rankingModel *scenes.RankingModel
	resultsModel *scenes.ResultsModel

	// Error state
	err error

	// Loading state
	loading        bool
	loadingMessage string
}

// NewModel creates a new application model. catalogPath may be empty.
func NewModel(configPath, catalogPath string) Model {
	return Model{
		currentScene:   SceneRanking,
		configPath:     configPath,
		catalogPath:    catalogPath,
		rankingModel:   scenes.NewRankingModel(),
		resultsModel:   scenes.NewResultsModel(),
		width:          80,
		height:         24,
		loading:        true,
		loadingMessage: "Loading configuration...",
	}
}

// Init initializes the model (required by tea.Model interface)
func (m Model) Init() tea.Cmd {
	return loadConfigCmd(m.configPath, m.catalogPath)
}

// loadConfigCmd returns a command that loads the configuration and resolves
// the candidate products
func loadConfigCmd(path, catalogPath string) tea.Cmd {
	return func() tea.Msg {
		parser := config.NewInputParser()
		cfg, err := parser.LoadFromFile(path)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		registry, err := parser.LoadRegistry(catalogPath)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		candidates, err := config.Candidates(cfg, registry)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return ConfigLoadedMsg{Config: cfg, Candidates: candidates}
	}
}

// rankCmd returns a command that ranks the candidates for the loaded contract
func rankCmd(cfg *domain.Configuration, candidates []products.Product) tea.Cmd {
	return func() tea.Msg {
		engine := compare.NewRankEngine(calculation.NewCalculationEngine())
		rs, err := engine.Rank(context.Background(), cfg.Contract, candidates, compare.RankOptions{
			ContractName:    cfg.Name,
			DisplayCurrency: cfg.Display.Currency,
			Rates:           cfg.Display.Rates,
		})
		return RankingCompleteMsg{Ranking: rs, Err: err}
	}
}

// String returns a human-readable name for a scene
func (s Scene) String() string {
	switch s {
	case SceneRanking:
		return "Ranking"
	case SceneResults:
		return "Breakdown"
	case SceneHelp:
		return "Help"
	default:
		return "Unknown"
	}
}
