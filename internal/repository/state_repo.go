package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tank_supervisor/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

const (
	plantStateRowID = 1

	insertOrUpdateStateSQL = `
		INSERT INTO plant_state (id, valve1_open, valve2_open, tank1_level, tank2_level, pump_input, pump_flow, overflowing, tanks_on, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			valve1_open=excluded.valve1_open,
			valve2_open=excluded.valve2_open,
			tank1_level=excluded.tank1_level,
			tank2_level=excluded.tank2_level,
			pump_input=excluded.pump_input,
			pump_flow=excluded.pump_flow,
			overflowing=excluded.overflowing,
			tanks_on=excluded.tanks_on,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT id, valve1_open, valve2_open, tank1_level, tank2_level, pump_input, pump_flow, overflowing, tanks_on, updated_at
		FROM plant_state WHERE id=?
	`
)

// Save updates or inserts the plant_state row (id always 1).
func (r *StateSQLite) Save(ctx context.Context, snap models.PlantSnapshot) error {
	// ensure UpdatedAt is always persisted as UTC; set if zero
	tsUTC := snap.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	st := snap.State
	_, err := r.db.ExecContext(ctx, insertOrUpdateStateSQL,
		plantStateRowID,
		st.Valve1Open,
		st.Valve2Open,
		int64(st.Tank1Level),
		int64(st.Tank2Level),
		int64(st.PumpInput),
		int64(st.PumpFlow),
		st.Overflowing,
		snap.TanksOn,
		tsUTC,
	)
	return err
}

// Load fetches the single plant_state row; a zero snapshot (ID 0) means
// nothing was saved yet.
func (r *StateSQLite) Load(ctx context.Context) (models.PlantSnapshot, error) {
	row := r.db.QueryRowContext(ctx, selectStateSQL, plantStateRowID)

	var (
		s                        models.PlantSnapshot
		lvl1, lvl2, input, flow int64
	)
	if err := row.Scan(
		&s.ID,
		&s.State.Valve1Open,
		&s.State.Valve2Open,
		&lvl1,
		&lvl2,
		&input,
		&flow,
		&s.State.Overflowing,
		&s.TanksOn,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PlantSnapshot{}, nil // no state yet
		}
		return models.PlantSnapshot{}, err
	}

	s.State.Tank1Level = clampUint16(lvl1)
	s.State.Tank2Level = clampUint16(lvl2)
	s.State.PumpInput = clampUint16(input)
	s.State.PumpFlow = clampUint16(flow)
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

func clampUint16(v int64) uint16 {
	switch {
	case v < 0:
		return 0
	case v > 0xFFFF:
		return 0xFFFF
	default:
		return uint16(v)
	}
}
