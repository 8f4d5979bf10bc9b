package httpapi

import (
	"time"

	"github.com/riskibarqy/mercury-team/internal/domain/fixture"
	"github.com/riskibarqy/mercury-team/internal/usecase"
)

type listFixturesRequest struct {
	Filter string `validate:"omitempty,oneof=upcoming past all next"`
	Limit  int    `validate:"min=0,max=100"`
}

type listChangesRequest struct {
	Limit int `validate:"min=0,max=100"`
}

type fixtureDTO struct {
	ID                    string                 `json:"id"`
	MatchNumber           string                 `json:"match_number,omitempty"`
	Date                  string                 `json:"date"`
	Time                  string                 `json:"time"`
	Opponent              string                 `json:"opponent"`
	HomeAway              string                 `json:"home_away"`
	Location              fixture.Location       `json:"location"`
	Jersey                string                 `json:"jersey,omitempty"`
	Socks                 string                 `json:"socks,omitempty"`
	Result                *fixture.Result        `json:"result,omitempty"`
	Outcome               string                 `json:"outcome,omitempty"`
	TeamRecord            string                 `json:"team_record,omitempty"`
	OpponentRecord        string                 `json:"opponent_record,omitempty"`
	OpponentRecentResults []fixture.RecentResult `json:"opponent_recent_results,omitempty"`
	OpponentForm          string                 `json:"opponent_form,omitempty"`
	WeatherURL            string                 `json:"weather_url,omitempty"`
	GotSportURL           string                 `json:"gotsport_url,omitempty"`
	PhotoAlbumURL         string                 `json:"photo_album_url,omitempty"`
	KickoffAt             time.Time              `json:"kickoff_at"`
	Upcoming              bool                   `json:"upcoming"`
	Countdown             *fixture.Countdown     `json:"countdown,omitempty"`
	ShortDate             string                 `json:"short_date"`
	LongDate              string                 `json:"long_date"`
	ArrivalTime           string                 `json:"arrival_time"`
}

type changeEntryDTO struct {
	Timestamp time.Time `json:"timestamp"`
	Changes   []string  `json:"changes"`
}

type syncResultDTO struct {
	RunID       string               `json:"run_id"`
	StartedAt   time.Time            `json:"started_at"`
	Changes     []string             `json:"changes"`
	Skipped     []usecase.SkippedRow `json:"skipped,omitempty"`
	Ambiguities []usecase.Ambiguity  `json:"ambiguities,omitempty"`
	Shared      bool                 `json:"shared"`
}

func fixtureToDTO(view usecase.FixtureView) fixtureDTO {
	f := view.Fixture
	return fixtureDTO{
		ID:                    f.ID,
		MatchNumber:           f.MatchNumber,
		Date:                  f.Date,
		Time:                  f.Time,
		Opponent:              f.Opponent,
		HomeAway:              f.HomeAway,
		Location:              f.Location,
		Jersey:                f.Jersey,
		Socks:                 f.Socks,
		Result:                f.Result,
		TeamRecord:            f.TeamRecord,
		OpponentRecord:        f.OpponentRecord,
		OpponentRecentResults: f.OpponentRecentResults,
		OpponentForm:          view.Form,
		WeatherURL:            f.WeatherURL,
		GotSportURL:           f.GotSportURL,
		PhotoAlbumURL:         f.PhotoAlbumURL,
		KickoffAt:             view.Kickoff,
		Upcoming:              view.Upcoming,
		Countdown:             view.Countdown,
		ShortDate:             view.ShortDate,
		LongDate:              view.LongDate,
		ArrivalTime:           view.ArrivalTime,
		Outcome:               f.Outcome(),
	}
}

func syncResultToDTO(result usecase.SyncResult) syncResultDTO {
	return syncResultDTO{
		RunID:       result.RunID,
		StartedAt:   result.StartedAt,
		Changes:     result.Changes,
		Skipped:     result.Skipped,
		Ambiguities: result.Ambiguities,
		Shared:      result.Shared,
	}
}
