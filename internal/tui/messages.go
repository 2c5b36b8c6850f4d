package tui

import (
	"github.com/rgehrsitz/savingsim/internal/compare"
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/rgehrsitz/savingsim/internal/products"
)

// Scene represents different screens in the TUI
type Scene int

const (
	SceneRanking Scene = iota
	SceneResults
	SceneHelp
)

// NavigateMsg switches to a different scene
type NavigateMsg struct {
	Scene Scene
}

// ErrorMsg displays an error to the user
type ErrorMsg struct {
	Err error
}

// ConfigLoadedMsg signals configuration and candidate products have been loaded
type ConfigLoadedMsg struct {
	Config     *domain.Configuration
	Candidates []products.Product
}

// RankingCompleteMsg signals the candidate ranking has finished
type RankingCompleteMsg struct {
	Ranking *compare.RankingSet
	Err     error
}
