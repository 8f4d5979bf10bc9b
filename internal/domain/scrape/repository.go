package scrape

import (
	"context"

	"github.com/riskibarqy/mercury-team/internal/domain/changelog"
	"github.com/riskibarqy/mercury-team/internal/domain/fixture"
	"github.com/riskibarqy/mercury-team/internal/domain/standing"
)

// PassCommit is everything a successful sync pass persists. Entry is nil when
// the pass produced no changes.
type PassCommit struct {
	Fixtures []fixture.Fixture
	Entry    *changelog.Entry
	Snapshot Snapshot
}

// Repository stores source snapshots and commits sync passes atomically.
type Repository interface {
	LatestSnapshot(ctx context.Context) (*Snapshot, error)
	CommitPass(ctx context.Context, commit PassCommit) error
}

// Source fetches the two external documents a pass reconciles.
type Source interface {
	FetchStandings(ctx context.Context) ([]standing.Standing, error)
	FetchSchedule(ctx context.Context) ([]Row, error)
}
