package postgres

import (
	"database/sql"
	"time"
)

type fixtureTableModel struct {
	PublicID    string         `db:"public_id"`
	Position    int            `db:"position"`
	MatchNumber sql.NullString `db:"match_number"`
	KickoffDate string         `db:"kickoff_date"`
	KickoffTime string         `db:"kickoff_time"`
	Opponent    string         `db:"opponent"`
	HomeAway    string         `db:"home_away"`
	Played      bool           `db:"played"`
	Document    string         `db:"document"`
}

type changeLogTableModel struct {
	RecordedAt time.Time `db:"recorded_at"`
	Changes    string    `db:"changes"`
}

type snapshotTableModel struct {
	CapturedAt time.Time `db:"captured_at"`
	Standings  string    `db:"standings"`
	Schedule   string    `db:"schedule"`
}
