package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tank_supervisor/internal/models"
	"tank_supervisor/internal/repository"
)

var (
	ErrInvalidTimeRange = errors.New("from must not be after to")
	ErrUnknownEventType = errors.New("unknown event type")
)

// EventLogService answers history queries over session and plant events.
type EventLogService struct {
	events repository.EventRepo
}

func NewEventLogService(events repository.EventRepo) *EventLogService {
	return &EventLogService{events: events}
}

// List returns the events matching f, oldest first.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.PlantEvent, error) {
	q, err := eventQuery(f)
	if err != nil {
		return nil, err
	}
	return s.events.List(ctx, q)
}

// eventQuery moves the bounds to UTC, uppercases the type and trims the
// login. Logins are case-sensitive, like the registry.
func eventQuery(f LogFilter) (models.EventQuery, error) {
	q := models.EventQuery{
		From:  f.From,
		To:    f.To,
		Type:  strings.ToUpper(strings.TrimSpace(f.Type)),
		Login: strings.TrimSpace(f.Login),
	}
	if !q.From.IsZero() {
		q.From = q.From.UTC()
	}
	if !q.To.IsZero() {
		q.To = q.To.UTC()
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return models.EventQuery{}, ErrInvalidTimeRange
	}
	if q.Type != "" && !models.IsEventType(q.Type) {
		return models.EventQuery{}, fmt.Errorf("%w %q", ErrUnknownEventType, f.Type)
	}
	return q, nil
}
