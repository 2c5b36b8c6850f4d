package recorder

import (
	"time"

	"github.com/rgehrsitz/savingsim/internal/compare"
	"github.com/shopspring/decimal"
)

// Run kinds
const (
	KindRank   = "rank"
	KindWhatIf = "whatif"
)

// RunSummary is one recorded ranking run as listed by history
type RunSummary struct {
	RunID         string
	Kind          string
	RecordedAt    time.Time
	ContractName  string
	ConfigPath    string
	Currency      string
	BestName      string
	BestSurrender decimal.Decimal
	Entries       int
	Failures      int
}

// Recorder persists ranking runs so they can be listed and replayed later.
type Recorder interface {
	RecordRanking(kind string, rs *compare.RankingSet) error
	RecentRuns(limit int) ([]RunSummary, error)
	LoadRanking(runID string) (*compare.RankingSet, error)
	Close() error
}

// Open returns a SQLite recorder for path, or a no-op recorder when path is empty.
func Open(path string) (Recorder, error) {
	if path == "" {
		return NoopRecorder{}, nil
	}
	return NewSQLiteRecorder(path)
}
