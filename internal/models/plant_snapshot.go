package models

import "time"

// PlantSnapshot is the persisted copy of the last sample, written while the
// session loop is idle.
type PlantSnapshot struct {
	ID        int        `json:"id"`
	State     PlantState `json:"state"`
	TanksOn   bool       `json:"tanks_on"`
	UpdatedAt time.Time  `json:"updated_at"`
}
