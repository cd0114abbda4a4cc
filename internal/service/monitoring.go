package service

import (
	"context"
	"time"

	"tank_supervisor/internal/models"
	"tank_supervisor/internal/plant"
	"tank_supervisor/internal/repository"
)

// plantStateRowID is the single persisted snapshot row.
const plantStateRowID = 1

type MonitoringService struct {
	plant     plant.Provider
	stateRepo repository.StateRepo
}

func NewMonitoringService(p plant.Provider, stateRepo repository.StateRepo) *MonitoringService {
	return &MonitoringService{plant: p, stateRepo: stateRepo}
}

// GetState returns a live reading while the tanks are on and the last
// persisted snapshot otherwise. With nothing persisted yet it returns an
// empty, powered-off baseline.
func (s *MonitoringService) GetState(ctx context.Context) (models.PlantSnapshot, error) {
	if s.plant != nil && s.plant.TanksOn() {
		return models.PlantSnapshot{
			ID:        plantStateRowID,
			State:     s.plant.ReadSensors(),
			TanksOn:   true,
			UpdatedAt: time.Now().UTC(),
		}, nil
	}

	snap, err := s.stateRepo.Load(ctx)
	if err != nil {
		return models.PlantSnapshot{}, err
	}
	if snap.ID == 0 {
		return s.baselineState(), nil
	}
	snap.TanksOn = false
	snap.UpdatedAt = toUTC(snap.UpdatedAt)
	return snap, nil
}

// baselineState returns a sensible default snapshot for an uninitialized DB.
func (s *MonitoringService) baselineState() models.PlantSnapshot {
	return models.PlantSnapshot{
		ID:        plantStateRowID,
		UpdatedAt: time.Now().UTC(),
	}
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
