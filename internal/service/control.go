package service

import (
	"context"
	"errors"
	"time"

	"tank_supervisor/internal/models"
	"tank_supervisor/internal/plant"
	"tank_supervisor/internal/repository"
)

var (
	errInvalidValve = errors.New("invalid valve: must be 1 or 2")
	ErrTanksOff     = errors.New("tanks are powered off")
)

// ControlService applies admin actuations coming from the HTTP API.
type ControlService struct {
	plant     plant.Provider
	eventRepo repository.EventRepo
}

func NewControlService(p plant.Provider, eventRepo repository.EventRepo) *ControlService {
	return &ControlService{plant: p, eventRepo: eventRepo}
}

func (s *ControlService) SetPumpInput(ctx context.Context, actor string, v uint16) error {
	if !s.plant.TanksOn() {
		return ErrTanksOff
	}
	s.plant.SetPumpInput(v)
	return s.logActuation(ctx, actor, "SET_PUMP", map[string]any{"param": v, "source": "http"})
}

func (s *ControlService) SetValve(ctx context.Context, actor string, valve int, open bool) error {
	if valve != Valve1 && valve != Valve2 {
		return errInvalidValve
	}
	if !s.plant.TanksOn() {
		return ErrTanksOff
	}
	cmd := "SET_V1"
	if valve == Valve1 {
		s.plant.SetValve1Open(open)
	} else {
		cmd = "SET_V2"
		s.plant.SetValve2Open(open)
	}
	return s.logActuation(ctx, actor, cmd, map[string]any{"open": open, "source": "http"})
}

func (s *ControlService) logActuation(ctx context.Context, actor, cmd string, meta map[string]any) error {
	return s.eventRepo.Append(ctx, models.PlantEvent{
		OccurredAt:  time.Now().UTC(),
		Type:        models.EventActuation,
		Login:       actor,
		Description: cmd,
		Metadata:    meta,
	})
}
