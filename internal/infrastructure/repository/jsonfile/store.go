package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/mercury-team/internal/domain/changelog"
	"github.com/riskibarqy/mercury-team/internal/domain/fixture"
	"github.com/riskibarqy/mercury-team/internal/domain/scrape"
)

const (
	FixturesFile  = "games.json"
	ChangeLogFile = "gotsport-changes.json"
	SnapshotFile  = "gotsport-data.json"
)

// Store keeps fixtures, the change log and the latest source snapshot as
// JSON documents under one data directory. Each document is replaced with a
// write to a temporary file followed by a rename.
type Store struct {
	dir      string
	validate *validator.Validate
	mu       sync.RWMutex
}

var (
	_ fixture.Repository   = (*Store)(nil)
	_ scrape.Repository    = (*Store)(nil)
	_ changelog.Repository = changeLogRepository{}
)

func NewStore(dir string) *Store {
	return &Store{dir: dir, validate: validator.New()}
}

func (s *Store) List(ctx context.Context) ([]fixture.Fixture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.readFixtures(ctx)
}

func (s *Store) GetByID(ctx context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, err := s.readFixtures(ctx)
	if err != nil {
		return fixture.Fixture{}, false, err
	}
	for _, item := range items {
		if item.ID == fixtureID {
			return item, true, nil
		}
	}
	return fixture.Fixture{}, false, nil
}

// ChangeLog exposes the stored change log as its own repository.
func (s *Store) ChangeLog() changelog.Repository {
	return changeLogRepository{store: s}
}

type changeLogRepository struct {
	store *Store
}

func (r changeLogRepository) List(ctx context.Context) ([]changelog.Entry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.readChangeLog(ctx)
}

func (s *Store) LatestSnapshot(ctx context.Context) (*scrape.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snapshot scrape.Snapshot
	found, err := s.readDocument(ctx, SnapshotFile, &snapshot)
	if err != nil || !found {
		return nil, err
	}
	return &snapshot, nil
}

// CommitPass reads and encodes everything it needs into temporary files
// before replacing any document, so a failure while preparing the commit
// leaves all three files as they were. Renames run fixtures, then change log,
// then snapshot; the snapshot goes last so an interrupted rename is diffed
// again on the next pass.
func (s *Store) CommitPass(ctx context.Context, commit scrape.PassCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range commit.Fixtures {
		if err := s.validate.StructCtx(ctx, commit.Fixtures[i]); err != nil {
			return fmt.Errorf("validate fixture %s: %w", commit.Fixtures[i].ID, err)
		}
	}

	docs := []pendingDocument{{name: FixturesFile, payload: commit.Fixtures}}
	if commit.Entry != nil {
		entries, err := s.readChangeLog(ctx)
		if err != nil {
			return err
		}
		log := changelog.NewLog(entries)
		log.Append(commit.Entry.Timestamp, commit.Entry.Changes)
		docs = append(docs, pendingDocument{name: ChangeLogFile, payload: log.Entries()})
	}
	docs = append(docs, pendingDocument{name: SnapshotFile, payload: commit.Snapshot})

	staged := make([]string, 0, len(docs))
	discard := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			discard()
			return err
		}
		tmp, err := s.stageDocument(doc.name, doc.payload)
		if err != nil {
			discard()
			return err
		}
		staged = append(staged, tmp)
	}

	for i, doc := range docs {
		if err := os.Rename(staged[i], filepath.Join(s.dir, doc.name)); err != nil {
			staged = staged[i:]
			discard()
			return fmt.Errorf("replace %s: %w", doc.name, err)
		}
	}
	return nil
}

type pendingDocument struct {
	name    string
	payload any
}

func (s *Store) readFixtures(ctx context.Context) ([]fixture.Fixture, error) {
	items := make([]fixture.Fixture, 0)
	if _, err := s.readDocument(ctx, FixturesFile, &items); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(items))
	for i := range items {
		if err := s.validate.StructCtx(ctx, items[i]); err != nil {
			return nil, fmt.Errorf("validate fixture %s: %w", items[i].ID, err)
		}
		if _, dup := seen[items[i].ID]; dup {
			return nil, fmt.Errorf("duplicate fixture id %s in %s", items[i].ID, FixturesFile)
		}
		seen[items[i].ID] = struct{}{}
	}
	return items, nil
}

func (s *Store) readChangeLog(ctx context.Context) ([]changelog.Entry, error) {
	entries := make([]changelog.Entry, 0)
	if _, err := s.readDocument(ctx, ChangeLogFile, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// readDocument decodes name into target. A missing file leaves target
// untouched and reports found=false.
func (s *Store) readDocument(ctx context.Context, name string, target any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

// stageDocument encodes payload into a temporary file next to name and
// returns its path.
func (s *Store) stageDocument(name string, payload any) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	enc := sonic.ConfigStd.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}

	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, buf.B, 0o644); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return tmp, nil
}
