package recorder

import (
	"errors"

	"github.com/rgehrsitz/savingsim/internal/compare"
)

// ErrRunNotFound is returned when a run id is not in the store
var ErrRunNotFound = errors.New("run not found")

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) RecordRanking(string, *compare.RankingSet) error { return nil }
func (NoopRecorder) RecentRuns(int) ([]RunSummary, error)            { return nil, nil }
func (NoopRecorder) LoadRanking(string) (*compare.RankingSet, error) {
	return nil, ErrRunNotFound
}
func (NoopRecorder) Close() error { return nil }
