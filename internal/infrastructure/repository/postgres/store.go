package postgres

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/mercury-team/internal/domain/changelog"
	"github.com/riskibarqy/mercury-team/internal/domain/fixture"
	"github.com/riskibarqy/mercury-team/internal/domain/scrape"
	qb "github.com/riskibarqy/mercury-team/internal/platform/querybuilder"
)

const (
	fixturesTable   = "fixtures"
	changeLogTable  = "change_log_entries"
	snapshotsTable  = "source_snapshots"
	keptSnapshots   = 20
	fixtureDocument = "document"
)

// Store persists fixtures, the change log and source snapshots. The fixture
// list keeps the order it was committed in.
type Store struct {
	db *sqlx.DB
}

var (
	_ fixture.Repository   = (*Store)(nil)
	_ scrape.Repository    = (*Store)(nil)
	_ changelog.Repository = changeLogRepository{}
)

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context) ([]fixture.Fixture, error) {
	query, args, err := qb.Select(fixtureDocument).From(fixturesTable).
		OrderBy("position", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select fixtures query: %w", err)
	}

	var documents []string
	if err := s.db.SelectContext(ctx, &documents, query, args...); err != nil {
		return nil, fmt.Errorf("select fixtures: %w", err)
	}

	out := make([]fixture.Fixture, 0, len(documents))
	for _, doc := range documents {
		item, err := decodeFixture(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	query, args, err := qb.Select(fixtureDocument).From(fixturesTable).
		Where(qb.Eq("public_id", fixtureID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build select fixture by id query: %w", err)
	}

	var doc string
	if err := s.db.GetContext(ctx, &doc, query, args...); err != nil {
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, fmt.Errorf("select fixture by id: %w", err)
	}

	item, err := decodeFixture(doc)
	if err != nil {
		return fixture.Fixture{}, false, err
	}
	return item, true, nil
}

func (s *Store) LatestSnapshot(ctx context.Context) (*scrape.Snapshot, error) {
	query, args, err := qb.Select("captured_at", "standings", "schedule").From(snapshotsTable).
		OrderBy("id DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select snapshot query: %w", err)
	}

	var row snapshotTableModel
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("select latest snapshot: %w", err)
	}

	snapshot := scrape.Snapshot{Timestamp: row.CapturedAt.UTC()}
	if err := sonic.UnmarshalString(row.Standings, &snapshot.Standings); err != nil {
		return nil, fmt.Errorf("decode snapshot standings: %w", err)
	}
	if err := sonic.UnmarshalString(row.Schedule, &snapshot.Schedule); err != nil {
		return nil, fmt.Errorf("decode snapshot schedule: %w", err)
	}
	return &snapshot, nil
}

// CommitPass replaces the fixture list, appends the change log entry and
// records the snapshot in one transaction.
func (s *Store) CommitPass(ctx context.Context, commit scrape.PassCommit) error {
	fixtureRows := make([]fixtureTableModel, 0, len(commit.Fixtures))
	for i, item := range commit.Fixtures {
		doc, err := sonic.MarshalString(item)
		if err != nil {
			return fmt.Errorf("encode fixture %s: %w", item.ID, err)
		}
		fixtureRows = append(fixtureRows, fixtureTableModel{
			PublicID:    item.ID,
			Position:    i,
			MatchNumber: toNullString(item.MatchNumber),
			KickoffDate: item.Date,
			KickoffTime: item.Time,
			Opponent:    item.Opponent,
			HomeAway:    item.HomeAway,
			Played:      item.Played(),
			Document:    doc,
		})
	}

	snapshotRow, err := encodeSnapshot(commit.Snapshot)
	if err != nil {
		return err
	}

	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := execBuilt(ctx, tx, "delete fixtures", qb.DeleteFrom(fixturesTable).ToSQL); err != nil {
			return err
		}
		if len(fixtureRows) > 0 {
			if err := execBuilt(ctx, tx, "insert fixtures", func() (string, []any, error) {
				return qb.InsertModels(fixturesTable, fixtureRows)
			}); err != nil {
				return err
			}
		}

		if commit.Entry != nil {
			changes, err := sonic.MarshalString(commit.Entry.Changes)
			if err != nil {
				return fmt.Errorf("encode change log entry: %w", err)
			}
			entry := []changeLogTableModel{{RecordedAt: commit.Entry.Timestamp.UTC(), Changes: changes}}
			if err := execBuilt(ctx, tx, "insert change log entry", func() (string, []any, error) {
				return qb.InsertModels(changeLogTable, entry)
			}); err != nil {
				return err
			}
			if err := execBuilt(ctx, tx, "trim change log", qb.DeleteFrom(changeLogTable).
				Where(qb.Expr("id NOT IN (SELECT id FROM "+changeLogTable+" ORDER BY id DESC LIMIT ?)", changelog.MaxEntries)).
				ToSQL); err != nil {
				return err
			}
		}

		if err := execBuilt(ctx, tx, "insert snapshot", func() (string, []any, error) {
			return qb.InsertModels(snapshotsTable, []snapshotTableModel{snapshotRow})
		}); err != nil {
			return err
		}
		return execBuilt(ctx, tx, "trim snapshots", qb.DeleteFrom(snapshotsTable).
			Where(qb.Expr("id NOT IN (SELECT id FROM "+snapshotsTable+" ORDER BY id DESC LIMIT ?)", keptSnapshots)).
			ToSQL)
	})
}

// ChangeLog exposes the change log table as its own repository.
func (s *Store) ChangeLog() changelog.Repository {
	return changeLogRepository{db: s.db}
}

type changeLogRepository struct {
	db *sqlx.DB
}

func (r changeLogRepository) List(ctx context.Context) ([]changelog.Entry, error) {
	query, args, err := qb.Select("recorded_at", "changes").From(changeLogTable).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select change log query: %w", err)
	}

	var rows []changeLogTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select change log: %w", err)
	}

	out := make([]changelog.Entry, 0, len(rows))
	for _, row := range rows {
		entry := changelog.Entry{Timestamp: row.RecordedAt.UTC()}
		if err := sonic.UnmarshalString(row.Changes, &entry.Changes); err != nil {
			return nil, fmt.Errorf("decode change log entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, nil
}

func decodeFixture(doc string) (fixture.Fixture, error) {
	var item fixture.Fixture
	if err := sonic.UnmarshalString(doc, &item); err != nil {
		return fixture.Fixture{}, fmt.Errorf("decode fixture document: %w", err)
	}
	return item, nil
}

func encodeSnapshot(snapshot scrape.Snapshot) (snapshotTableModel, error) {
	standings, err := sonic.MarshalString(snapshot.Standings)
	if err != nil {
		return snapshotTableModel{}, fmt.Errorf("encode snapshot standings: %w", err)
	}
	schedule, err := sonic.MarshalString(snapshot.Schedule)
	if err != nil {
		return snapshotTableModel{}, fmt.Errorf("encode snapshot schedule: %w", err)
	}
	return snapshotTableModel{
		CapturedAt: snapshot.Timestamp.UTC(),
		Standings:  standings,
		Schedule:   schedule,
	}, nil
}
