package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/mercury-team/internal/domain/changelog"
	"github.com/riskibarqy/mercury-team/internal/domain/fixture"
	"github.com/riskibarqy/mercury-team/internal/platform/cache"
	"github.com/riskibarqy/mercury-team/internal/platform/civiltime"
)

const (
	fixtureCachePrefix   = "fixtures:"
	fixtureListCacheKey  = fixtureCachePrefix + "all"
	changeLogCacheKey    = fixtureCachePrefix + "changes"
	maxFixtureQueryLimit = 100
)

// FixtureView is a fixture with the values derived from the clock at read
// time.
type FixtureView struct {
	Fixture     fixture.Fixture
	Kickoff     time.Time
	Upcoming    bool
	Countdown   *fixture.Countdown
	ShortDate   string
	LongDate    string
	ArrivalTime string
	Form        string
}

type FixtureService struct {
	fixtureRepo fixture.Repository
	changeRepo  changelog.Repository
	cache       *cache.Store
	loc         *time.Location
	now         func() time.Time
}

func NewFixtureService(
	fixtureRepo fixture.Repository,
	changeRepo changelog.Repository,
	store *cache.Store,
	loc *time.Location,
) *FixtureService {
	if store == nil {
		store = cache.NewStore(0)
	}
	if loc == nil {
		loc = time.UTC
	}

	return &FixtureService{
		fixtureRepo: fixtureRepo,
		changeRepo:  changeRepo,
		cache:       store,
		loc:         loc,
		now:         time.Now,
	}
}

// Invalidate drops cached fixtures and change log entries.
func (s *FixtureService) Invalidate(ctx context.Context) {
	s.cache.DeletePrefix(ctx, fixtureCachePrefix)
}

func (s *FixtureService) Query(ctx context.Context, filter string, limit int) ([]FixtureView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.Query")
	defer span.End()

	parsed, ok := fixture.ParseFilter(filter)
	if !ok {
		return nil, fmt.Errorf("%w: unknown filter %q", ErrInvalidInput, filter)
	}
	if limit < 0 || limit > maxFixtureQueryLimit {
		return nil, fmt.Errorf("%w: limit must be between 0 and %d", ErrInvalidInput, maxFixtureQueryLimit)
	}

	fixtures, err := s.list(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	selected, err := fixture.Query(fixtures, now, s.loc, parsed, limit)
	if err != nil {
		return nil, fmt.Errorf("classify fixtures: %w", err)
	}
	return s.views(selected, now)
}

func (s *FixtureService) GetByID(ctx context.Context, fixtureID string) (FixtureView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.GetByID")
	defer span.End()

	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return FixtureView{}, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}

	item, exists, err := s.fixtureRepo.GetByID(ctx, fixtureID)
	if err != nil {
		return FixtureView{}, fmt.Errorf("get fixture: %w", err)
	}
	if !exists {
		return FixtureView{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, fixtureID)
	}

	return s.view(item, s.now())
}

// Next returns the upcoming fixture with the earliest kickoff.
func (s *FixtureService) Next(ctx context.Context) (FixtureView, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.Next")
	defer span.End()

	fixtures, err := s.list(ctx)
	if err != nil {
		return FixtureView{}, false, err
	}

	now := s.now()
	next, ok, err := fixture.Next(fixtures, now, s.loc)
	if err != nil {
		return FixtureView{}, false, fmt.Errorf("classify fixtures: %w", err)
	}
	if !ok {
		return FixtureView{}, false, nil
	}

	view, err := s.view(next, now)
	if err != nil {
		return FixtureView{}, false, err
	}
	return view, true, nil
}

// ChangeLog returns up to limit entries, newest first.
func (s *FixtureService) ChangeLog(ctx context.Context, limit int) ([]changelog.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.ChangeLog")
	defer span.End()

	if limit < 0 || limit > changelog.MaxEntries {
		return nil, fmt.Errorf("%w: limit must be between 0 and %d", ErrInvalidInput, changelog.MaxEntries)
	}
	if s.changeRepo == nil {
		return nil, fmt.Errorf("%w: change log store is not configured", ErrDependencyUnavailable)
	}

	value, err := s.cache.GetOrLoad(ctx, changeLogCacheKey, func(ctx context.Context) (any, error) {
		entries, err := s.changeRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list change log: %w", err)
		}
		return changelog.NewLog(entries), nil
	})
	if err != nil {
		return nil, err
	}

	log, _ := value.(*changelog.Log)
	if log == nil {
		return []changelog.Entry{}, nil
	}
	return log.Latest(limit), nil
}

func (s *FixtureService) list(ctx context.Context) ([]fixture.Fixture, error) {
	value, err := s.cache.GetOrLoad(ctx, fixtureListCacheKey, func(ctx context.Context) (any, error) {
		fixtures, err := s.fixtureRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list fixtures: %w", err)
		}
		return fixtures, nil
	})
	if err != nil {
		return nil, err
	}

	fixtures, _ := value.([]fixture.Fixture)
	return fixtures, nil
}

func (s *FixtureService) views(items []fixture.Fixture, now time.Time) ([]FixtureView, error) {
	out := make([]FixtureView, 0, len(items))
	for _, item := range items {
		view, err := s.view(item, now)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *FixtureService) view(item fixture.Fixture, now time.Time) (FixtureView, error) {
	kickoff, err := item.Instant(s.loc)
	if err != nil {
		return FixtureView{}, fmt.Errorf("resolve kickoff: %w", err)
	}
	shortDate, err := civiltime.FormatShort(item.Date)
	if err != nil {
		return FixtureView{}, fmt.Errorf("format fixture date: %w", err)
	}
	longDate, err := civiltime.FormatLong(item.Date)
	if err != nil {
		return FixtureView{}, fmt.Errorf("format fixture date: %w", err)
	}
	arrival, err := civiltime.ArrivalTime(item.Time)
	if err != nil {
		return FixtureView{}, fmt.Errorf("arrival time: %w", err)
	}

	view := FixtureView{
		Fixture:     item,
		Kickoff:     kickoff,
		Upcoming:    kickoff.After(now),
		ShortDate:   shortDate,
		LongDate:    longDate,
		ArrivalTime: arrival,
		Form:        fixture.FormString(item.OpponentRecentResults),
	}
	if countdown, ok, _ := fixture.CountdownUntil(item, now, s.loc); ok {
		view.Countdown = &countdown
	}
	return view, nil
}
