package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/riskibarqy/mercury-team/internal/domain/changelog"
	"github.com/riskibarqy/mercury-team/internal/domain/fixture"
	"github.com/riskibarqy/mercury-team/internal/domain/scrape"
	"github.com/riskibarqy/mercury-team/internal/domain/standing"
	"github.com/riskibarqy/mercury-team/internal/platform/id"
	"github.com/riskibarqy/mercury-team/internal/platform/logging"
	"github.com/riskibarqy/mercury-team/internal/platform/resilience"
)

const syncFlightKey = "sync-pass"

type SyncResult struct {
	RunID       string       `json:"run_id"`
	StartedAt   time.Time    `json:"started_at"`
	Changes     []string     `json:"changes"`
	Skipped     []SkippedRow `json:"skipped,omitempty"`
	Ambiguities []Ambiguity  `json:"ambiguities,omitempty"`
	Shared      bool         `json:"shared"`
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context)
}

type SyncService struct {
	source      scrape.Source
	fixtureRepo fixture.Repository
	passRepo    scrape.Repository
	idGen       id.Generator
	invalidator cacheInvalidator
	opts        ReconcileOptions
	logger      *logging.Logger
	now         func() time.Time
	flight      resilience.Group[SyncResult]
}

func NewSyncService(
	source scrape.Source,
	fixtureRepo fixture.Repository,
	passRepo scrape.Repository,
	idGen id.Generator,
	invalidator cacheInvalidator,
	opts ReconcileOptions,
	logger *logging.Logger,
) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if idGen == nil {
		idGen = id.NewRunIDGenerator()
	}

	return &SyncService{
		source:      source,
		fixtureRepo: fixtureRepo,
		passRepo:    passRepo,
		idGen:       idGen,
		invalidator: invalidator,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

// Run performs one sync pass. Concurrent callers share the pass in flight,
// and a caller that gives up does not cancel the pass for the others. A
// failed fetch or load leaves the store untouched.
func (s *SyncService) Run(ctx context.Context) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.Run")
	defer span.End()

	result, err, shared := s.flight.Do(ctx, syncFlightKey, s.run)
	if err != nil {
		return SyncResult{}, err
	}

	result.Shared = shared
	return result, nil
}

func (s *SyncService) run(ctx context.Context) (SyncResult, error) {
	if s.source == nil || s.fixtureRepo == nil || s.passRepo == nil {
		return SyncResult{}, fmt.Errorf("%w: sync service is not fully configured", ErrDependencyUnavailable)
	}

	startedAt := s.now().UTC()
	runID, err := s.idGen.NewRunID(startedAt)
	if err != nil {
		return SyncResult{}, fmt.Errorf("generate run id: %w", err)
	}

	standings, rows, err := s.fetch(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "sync pass aborted: source fetch failed", "run_id", runID, "error", err)
		return SyncResult{}, err
	}

	stored, err := s.fixtureRepo.List(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("list fixtures: %w", err)
	}
	previous, err := s.passRepo.LatestSnapshot(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("load previous snapshot: %w", err)
	}

	reconciled := Reconcile(stored, rows, standings, s.opts)
	for _, skipped := range reconciled.Skipped {
		s.logger.WarnContext(ctx, "skip source row", "run_id", runID, "match_number", skipped.MatchNumber, "error", skipped.Err)
	}
	for _, ambiguous := range reconciled.Ambiguities {
		s.logger.WarnContext(ctx, "ambiguous source row left unapplied",
			"run_id", runID,
			"match_number", ambiguous.MatchNumber,
			"opponent", ambiguous.Opponent,
			"date", ambiguous.Date,
			"fixture_ids", ambiguous.FixtureIDs,
		)
	}

	snapshot := scrape.Snapshot{Timestamp: startedAt, Standings: standings, Schedule: rows}
	changes := append(scrape.Diff(previous, snapshot), reconciled.Changes...)

	commit := scrape.PassCommit{Fixtures: reconciled.Fixtures, Snapshot: snapshot}
	if len(changes) > 0 {
		commit.Entry = &changelog.Entry{Timestamp: startedAt, Changes: changes}
	}
	if err := s.passRepo.CommitPass(ctx, commit); err != nil {
		return SyncResult{}, fmt.Errorf("commit sync pass: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}

	s.logger.InfoContext(ctx, "sync pass completed",
		"run_id", runID,
		"changes", len(changes),
		"fixture_changes", len(reconciled.Changes),
		"skipped_rows", len(reconciled.Skipped),
		"ambiguous_rows", len(reconciled.Ambiguities),
		"duration", s.now().Sub(startedAt),
	)

	if changes == nil {
		changes = []string{}
	}
	return SyncResult{
		RunID:       runID,
		StartedAt:   startedAt,
		Changes:     changes,
		Skipped:     reconciled.Skipped,
		Ambiguities: reconciled.Ambiguities,
	}, nil
}

func (s *SyncService) fetch(ctx context.Context) ([]standing.Standing, []scrape.Row, error) {
	var (
		standings []standing.Standing
		rows      []scrape.Row
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		out, err := s.source.FetchStandings(ctx)
		if err != nil {
			return fmt.Errorf("fetch standings: %w", err)
		}
		standings = out
		return nil
	})
	p.Go(func(ctx context.Context) error {
		out, err := s.source.FetchSchedule(ctx)
		if err != nil {
			return fmt.Errorf("fetch schedule: %w", err)
		}
		rows = out
		return nil
	})
	if err := p.Wait(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrSourceFetch, err)
	}

	return standings, rows, nil
}
