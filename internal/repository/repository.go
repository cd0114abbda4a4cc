package repository

import (
	"context"
	"database/sql"

	"tank_supervisor/internal/models"
)

// Authorization persists registry users.
type Authorization interface {
	Create(login, passwordHash string, isAdmin bool) (int, error)
	GetByLogin(login string) (*models.UserRecord, error)
	List() ([]models.UserRecord, error)
	Delete(login string) error
}

// StateRepo persists the last plant sample.
type StateRepo interface {
	Save(ctx context.Context, s models.PlantSnapshot) error
	Load(ctx context.Context) (models.PlantSnapshot, error)
}

// EventRepo is the append-only session/actuation log.
type EventRepo interface {
	Append(ctx context.Context, e models.PlantEvent) error
	List(ctx context.Context, q models.EventQuery) ([]models.PlantEvent, error)
}

type Repository struct {
	StateRepo StateRepo
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo: NewStateSQLite(db),
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
