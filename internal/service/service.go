package service

import (
	"context"
	"time"

	"tank_supervisor/internal/models"
	"tank_supervisor/internal/plant"
	"tank_supervisor/internal/registry"
	"tank_supervisor/internal/repository"
)

type Authorization interface {
	GenerateToken(login, password string) (string, error)
	ParseToken(accessToken string) (string, error)
}

// Users manages the registry while the session server runs.
type Users interface {
	ListUsers() []models.UserInfo
	AddUser(login, password string, isAdmin bool) error
	RemoveUser(login string) error
}

// Monitoring exposes the current plant reading.
type Monitoring interface {
	GetState(ctx context.Context) (models.PlantSnapshot, error)
}

// Control drives the plant actuators on behalf of an admin.
type Control interface {
	SetPumpInput(ctx context.Context, actor string, v uint16) error
	SetValve(ctx context.Context, actor string, valve int, open bool) error
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.PlantEvent, error)
}

// Sessions turns the supervisory TCP server on and off.
type Sessions interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Running() bool
}

// Simulator runs the background loop that advances the plant.
// Stop via context cancellation in main() for graceful shutdown.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	Users
	Monitoring
	Control
	EventLog
	Sessions
	Simulator
}

// Deps are the collaborators NewService wires together.
type Deps struct {
	Repos      *repository.Repository
	Registry   *registry.Registry
	Plant      *plant.Simulator
	Server     SessionServer
	Port       string
	SigningKey string
	TokenTTL   time.Duration
}

func NewService(d Deps) *Service {
	return &Service{
		Authorization: NewAuthService(d.Registry, d.SigningKey, d.TokenTTL),
		Users:         NewUsersService(d.Registry),
		Monitoring:    NewMonitoringService(d.Plant, d.Repos.StateRepo),
		Control:       NewControlService(d.Plant, d.Repos.EventRepo),
		EventLog:      NewEventLogService(d.Repos.EventRepo),
		Sessions:      NewSessionService(d.Server, d.Port),
		Simulator:     d.Plant,
	}
}
