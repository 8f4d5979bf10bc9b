package usecase

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/mercury-team/internal/domain/fixture"
	"github.com/riskibarqy/mercury-team/internal/domain/scrape"
	"github.com/riskibarqy/mercury-team/internal/domain/standing"
	fixturemock "github.com/riskibarqy/mercury-team/internal/mocks/domain/fixture"
	scrapemock "github.com/riskibarqy/mercury-team/internal/mocks/domain/scrape"
)

type staticIDGenerator struct{ id string }

func (g staticIDGenerator) NewRunID(time.Time) (string, error) { return g.id, nil }

type countingInvalidator struct{ calls atomic.Int32 }

func (c *countingInvalidator) Invalidate(context.Context) { c.calls.Add(1) }

var syncStartedAt = time.Date(2025, 9, 8, 6, 0, 0, 0, time.UTC)

func riversideRows() []scrape.Row {
	return []scrape.Row{
		{MatchNumber: "101", Date: "Sep 07, 2025", Time: "2:15 PM PDT", HomeTeam: "Almaden Mercury B16", AwayTeam: "Riverside FC 16B", Score: "3 - 1", Location: "Almaden Park"},
	}
}

func riversideFixtures() []fixture.Fixture {
	return []fixture.Fixture{
		{ID: "g1", Date: "2025-09-07", Time: "2:15 PM", Opponent: "Riverside FC", HomeAway: fixture.Home},
	}
}

func newTestSyncService(source scrape.Source, fixtureRepo fixture.Repository, passRepo scrape.Repository, inv cacheInvalidator) *SyncService {
	svc := NewSyncService(source, fixtureRepo, passRepo, staticIDGenerator{id: "run-1"}, inv, testReconcileOptions(), nil)
	svc.now = func() time.Time { return syncStartedAt }
	return svc
}

func TestSyncService_Run_CommitsFixturesChangeLogAndSnapshot(t *testing.T) {
	t.Parallel()

	source := scrapemock.NewSource(t)
	fixtureRepo := fixturemock.NewRepository(t)
	passRepo := scrapemock.NewRepository(t)
	inv := &countingInvalidator{}

	source.On("FetchStandings", mock.Anything).Return([]standing.Standing{}, nil).Once()
	source.On("FetchSchedule", mock.Anything).Return(riversideRows(), nil).Once()
	fixtureRepo.On("List", mock.Anything).Return(riversideFixtures(), nil).Once()
	passRepo.On("LatestSnapshot", mock.Anything).Return((*scrape.Snapshot)(nil), nil).Once()

	wantChanges := []string{scrape.InitialCapture, "Riverside FC: no result → 3-1"}
	passRepo.
		On("CommitPass", mock.Anything, mock.MatchedBy(func(commit scrape.PassCommit) bool {
			if commit.Entry == nil || !reflect.DeepEqual(commit.Entry.Changes, wantChanges) {
				return false
			}
			if !commit.Entry.Timestamp.Equal(syncStartedAt) || !commit.Snapshot.Timestamp.Equal(syncStartedAt) {
				return false
			}
			if len(commit.Snapshot.Schedule) != 1 || len(commit.Fixtures) != 1 {
				return false
			}
			r := commit.Fixtures[0].Result
			return r != nil && r.Us == 3 && r.Them == 1
		})).
		Return(nil).
		Once()

	svc := newTestSyncService(source, fixtureRepo, passRepo, inv)
	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run sync: %v", err)
	}

	if result.RunID != "run-1" || !result.StartedAt.Equal(syncStartedAt) {
		t.Fatalf("unexpected run metadata: %+v", result)
	}
	if !reflect.DeepEqual(result.Changes, wantChanges) {
		t.Fatalf("unexpected changes: %v", result.Changes)
	}
	if inv.calls.Load() != 1 {
		t.Fatalf("expected cache invalidation after commit, got %d", inv.calls.Load())
	}
}

func TestSyncService_Run_NoChangesCommitsWithoutLogEntry(t *testing.T) {
	t.Parallel()

	source := scrapemock.NewSource(t)
	fixtureRepo := fixturemock.NewRepository(t)
	passRepo := scrapemock.NewRepository(t)

	reconciled := Reconcile(riversideFixtures(), riversideRows(), nil, testReconcileOptions()).Fixtures
	previous := &scrape.Snapshot{Timestamp: syncStartedAt.Add(-time.Hour), Standings: []standing.Standing{}, Schedule: riversideRows()}

	source.On("FetchStandings", mock.Anything).Return([]standing.Standing{}, nil).Once()
	source.On("FetchSchedule", mock.Anything).Return(riversideRows(), nil).Once()
	fixtureRepo.On("List", mock.Anything).Return(reconciled, nil).Once()
	passRepo.On("LatestSnapshot", mock.Anything).Return(previous, nil).Once()
	passRepo.
		On("CommitPass", mock.Anything, mock.MatchedBy(func(commit scrape.PassCommit) bool {
			return commit.Entry == nil && len(commit.Fixtures) == 1
		})).
		Return(nil).
		Once()

	result, err := newTestSyncService(source, fixtureRepo, passRepo, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("run sync: %v", err)
	}
	if len(result.Changes) != 0 {
		t.Fatalf("expected no changes, got %v", result.Changes)
	}
}

func TestSyncService_Run_FetchFailureLeavesStoreUntouched(t *testing.T) {
	t.Parallel()

	source := scrapemock.NewSource(t)
	fixtureRepo := fixturemock.NewRepository(t)
	passRepo := scrapemock.NewRepository(t)
	inv := &countingInvalidator{}

	upstream := errors.New("connection reset")
	source.On("FetchStandings", mock.Anything).Return([]standing.Standing{}, nil).Maybe()
	source.On("FetchSchedule", mock.Anything).Return(nil, upstream).Once()

	_, err := newTestSyncService(source, fixtureRepo, passRepo, inv).Run(context.Background())
	if !errors.Is(err, ErrSourceFetch) {
		t.Fatalf("expected ErrSourceFetch, got %v", err)
	}
	if !errors.Is(err, upstream) {
		t.Fatalf("expected upstream cause to be preserved, got %v", err)
	}
	if inv.calls.Load() != 0 {
		t.Fatalf("cache must not be invalidated after a failed pass")
	}
}

func TestSyncService_Run_CommitFailureIsReturned(t *testing.T) {
	t.Parallel()

	source := scrapemock.NewSource(t)
	fixtureRepo := fixturemock.NewRepository(t)
	passRepo := scrapemock.NewRepository(t)
	inv := &countingInvalidator{}

	source.On("FetchStandings", mock.Anything).Return([]standing.Standing{}, nil).Once()
	source.On("FetchSchedule", mock.Anything).Return(riversideRows(), nil).Once()
	fixtureRepo.On("List", mock.Anything).Return(riversideFixtures(), nil).Once()
	passRepo.On("LatestSnapshot", mock.Anything).Return((*scrape.Snapshot)(nil), nil).Once()
	passRepo.On("CommitPass", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

	if _, err := newTestSyncService(source, fixtureRepo, passRepo, inv).Run(context.Background()); err == nil {
		t.Fatalf("expected commit error")
	}
	if inv.calls.Load() != 0 {
		t.Fatalf("cache must not be invalidated when commit fails")
	}
}

type blockingSource struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingSource) FetchStandings(context.Context) ([]standing.Standing, error) {
	s.calls.Add(1)
	s.once.Do(func() { close(s.started) })
	<-s.release
	return nil, nil
}

func (s *blockingSource) FetchSchedule(context.Context) ([]scrape.Row, error) {
	return riversideRows(), nil
}

type memoryPassRepo struct {
	mu      sync.Mutex
	commits int
}

func (r *memoryPassRepo) LatestSnapshot(context.Context) (*scrape.Snapshot, error) { return nil, nil }

func (r *memoryPassRepo) CommitPass(context.Context, scrape.PassCommit) error {
	r.mu.Lock()
	r.commits++
	r.mu.Unlock()
	return nil
}

type staticFixtureRepo struct{ items []fixture.Fixture }

func (r staticFixtureRepo) List(context.Context) ([]fixture.Fixture, error) { return r.items, nil }

func (r staticFixtureRepo) GetByID(_ context.Context, id string) (fixture.Fixture, bool, error) {
	for _, f := range r.items {
		if f.ID == id {
			return f, true, nil
		}
	}
	return fixture.Fixture{}, false, nil
}

func TestSyncService_Run_DeduplicatesConcurrentTriggers(t *testing.T) {
	t.Parallel()

	source := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	passRepo := &memoryPassRepo{}
	svc := newTestSyncService(source, staticFixtureRepo{items: riversideFixtures()}, passRepo, nil)

	results := make(chan SyncResult, 2)
	errs := make(chan error, 2)
	run := func() {
		result, err := svc.Run(context.Background())
		if err != nil {
			errs <- err
			return
		}
		results <- result
	}

	go run()
	<-source.started
	go run()
	time.Sleep(20 * time.Millisecond)
	close(source.release)

	shared := 0
	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			t.Fatalf("run sync: %v", err)
		case result := <-results:
			if result.Shared {
				shared++
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for sync results")
		}
	}

	if got := source.calls.Load(); got != 1 {
		t.Fatalf("expected a single fetch, got %d", got)
	}
	if passRepo.commits != 1 {
		t.Fatalf("expected a single commit, got %d", passRepo.commits)
	}
	if shared != 1 {
		t.Fatalf("expected the second trigger to join the first, shared=%d", shared)
	}
}

type cancellationAwareSource struct {
	blockingSource
}

func (s *cancellationAwareSource) FetchStandings(ctx context.Context) ([]standing.Standing, error) {
	if _, err := s.blockingSource.FetchStandings(ctx); err != nil {
		return nil, err
	}
	return nil, ctx.Err()
}

func TestSyncService_Run_CancelledTriggerDoesNotAbortSharedPass(t *testing.T) {
	t.Parallel()

	source := &cancellationAwareSource{blockingSource{started: make(chan struct{}), release: make(chan struct{})}}
	passRepo := &memoryPassRepo{}
	svc := newTestSyncService(source, staticFixtureRepo{items: riversideFixtures()}, passRepo, nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Run(firstCtx)
		firstErr <- err
	}()
	<-source.started

	type outcome struct {
		result SyncResult
		err    error
	}
	second := make(chan outcome, 1)
	go func() {
		result, err := svc.Run(context.Background())
		second <- outcome{result: result, err: err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled trigger to return context.Canceled, got %v", err)
	}
	close(source.release)

	select {
	case got := <-second:
		if got.err != nil {
			t.Fatalf("shared pass failed after the first trigger was cancelled: %v", got.err)
		}
		if !got.result.Shared || got.result.RunID != "run-1" {
			t.Fatalf("unexpected shared result: %+v", got.result)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the shared pass")
	}

	passRepo.mu.Lock()
	defer passRepo.mu.Unlock()
	if passRepo.commits != 1 {
		t.Fatalf("expected the shared pass to commit once, got %d", passRepo.commits)
	}
}
