// AngelaMos | 2026
// entity.go

package report

import "time"

// Dashboard is the aggregate snapshot behind the landing page cards. All
// numbers are computed in SQL at request time; nothing is cached.
type Dashboard struct {
	OKRsByStatus    map[string]int `json:"okrs_by_status"`
	SprintsByStatus map[string]int `json:"sprints_by_status"`
	AverageProgress float64        `json:"average_progress"`
	Teams           []TeamRollup   `json:"teams"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// TeamRollup aggregates one team's objectives. Archived objectives are
// excluded from the counts and the average.
type TeamRollup struct {
	TeamID      string  `db:"team_id"      json:"team_id"`
	TeamName    string  `db:"team_name"    json:"team_name"`
	OKRCount    int     `db:"okr_count"    json:"okr_count"`
	DoneCount   int     `db:"done_count"   json:"done_count"`
	AvgProgress float64 `db:"avg_progress" json:"avg_progress"`
}

// StatusCount is one GROUP BY row.
type StatusCount struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}
