package model

// PlayerTOIRow is one flattened row of the player_toi table.
type PlayerTOIRow struct {
	Player   string `json:"player"`
	PlayerID int64  `json:"player_id"`
	Position string `json:"position"`
	GameID   int    `json:"game_id"`
	Date     string `json:"date"`
	Team     string `json:"team"`
	Strength string `json:"strength"`
	IfEmpty  int    `json:"if_empty"`
	TOIOn    int    `json:"toi_on"`
	TOIOff   int    `json:"toi_off"`
}

// TeamTOIRow is one flattened row of the team_toi table.
type TeamTOIRow struct {
	Team     string `json:"team"`
	GameID   int    `json:"game_id"`
	Date     string `json:"date"`
	Strength string `json:"strength"`
	IfEmpty  int    `json:"if_empty"`
	TOI      int    `json:"toi"`
}

// Table names used by sinks and metrics.
const (
	PlayerTOITable = "player_toi"
	TeamTOITable   = "team_toi"
)
