package postgres

import (
	"github.com/riskibarqy/football-sync/internal/domain/area"
	"github.com/riskibarqy/football-sync/internal/domain/competition"
	"github.com/riskibarqy/football-sync/internal/domain/team"
	"github.com/riskibarqy/football-sync/internal/domain/venue"
)

type competitionTableModel struct {
	ID                int64  `db:"competition_id"`
	AreaID            *int64 `db:"area_id"`
	Name              string `db:"name"`
	Code              string `db:"code"`
	Type              string `db:"type"`
	EmblemURL         string `db:"emblem_url"`
	SecondaryID       *int64 `db:"secondary_id"`
	CurrentSeasonYear *int   `db:"current_season_year"`
	Source            string `db:"source"`
}

func competitionModel(item competition.Competition) competitionTableModel {
	return competitionTableModel{
		ID:                item.ID,
		AreaID:            item.AreaID,
		Name:              item.Name,
		Code:              item.Code,
		Type:              item.Type,
		EmblemURL:         item.EmblemURL,
		SecondaryID:       item.SecondaryID,
		CurrentSeasonYear: item.CurrentSeasonYear,
		Source:            item.Source,
	}
}

func (m competitionTableModel) toDomain() competition.Competition {
	return competition.Competition{
		ID:                m.ID,
		AreaID:            m.AreaID,
		Name:              m.Name,
		Code:              m.Code,
		Type:              m.Type,
		EmblemURL:         m.EmblemURL,
		SecondaryID:       m.SecondaryID,
		CurrentSeasonYear: m.CurrentSeasonYear,
		Source:            m.Source,
	}
}

type venueTableModel struct {
	ID       int64  `db:"venue_id"`
	Name     string `db:"name"`
	City     string `db:"city"`
	Capacity *int   `db:"capacity"`
	Surface  string `db:"surface"`
}

func venueModel(item venue.Venue) venueTableModel {
	return venueTableModel{
		ID:       item.ID,
		Name:     item.Name,
		City:     item.City,
		Capacity: item.Capacity,
		Surface:  item.Surface,
	}
}

type teamTableModel struct {
	ID          int64  `db:"team_id"`
	AreaID      *int64 `db:"area_id"`
	Name        string `db:"name"`
	NameKey     string `db:"name_key"`
	ShortName   string `db:"short_name"`
	TLA         string `db:"tla"`
	CrestURL    string `db:"crest_url"`
	Founded     *int   `db:"founded"`
	VenueID     *int64 `db:"venue_id"`
	VenueName   string `db:"venue_name"`
	SecondaryID *int64 `db:"secondary_id"`
	Source      string `db:"source"`
}

func teamModel(item team.Team) teamTableModel {
	return teamTableModel{
		ID:          item.ID,
		AreaID:      item.AreaID,
		Name:        item.Name,
		NameKey:     area.NameKey(item.Name),
		ShortName:   item.ShortName,
		TLA:         item.TLA,
		CrestURL:    item.CrestURL,
		Founded:     item.Founded,
		VenueID:     item.VenueID,
		VenueName:   item.VenueName,
		SecondaryID: item.SecondaryID,
		Source:      item.Source,
	}
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:          m.ID,
		AreaID:      m.AreaID,
		Name:        m.Name,
		ShortName:   m.ShortName,
		TLA:         m.TLA,
		CrestURL:    m.CrestURL,
		Founded:     m.Founded,
		VenueID:     m.VenueID,
		VenueName:   m.VenueName,
		SecondaryID: m.SecondaryID,
		Source:      m.Source,
	}
}

type teamStubModel struct {
	ID      int64  `db:"team_id"`
	Name    string `db:"name"`
	NameKey string `db:"name_key"`
	Source  string `db:"source"`
}

type teamAliasModel struct {
	ID          int64  `db:"team_id"`
	Name        string `db:"name"`
	NameKey     string `db:"name_key"`
	SecondaryID *int64 `db:"secondary_id"`
	Source      string `db:"source"`
}

type teamSecondaryRow struct {
	TeamID      int64 `db:"team_id"`
	SecondaryID int64 `db:"secondary_id"`
}
