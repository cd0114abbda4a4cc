package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tank_supervisor/internal/models"
)

// memEvents filters an in-memory history the way the SQLite store does.
type memEvents struct {
	events []models.PlantEvent
	err    error

	last  models.EventQuery
	calls int
}

func (m *memEvents) Append(ctx context.Context, e models.PlantEvent) error {
	m.events = append(m.events, e)
	return nil
}

func (m *memEvents) List(ctx context.Context, q models.EventQuery) ([]models.PlantEvent, error) {
	m.calls++
	m.last = q
	if m.err != nil {
		return nil, m.err
	}
	var out []models.PlantEvent
	for _, e := range m.events {
		switch {
		case !q.From.IsZero() && e.OccurredAt.Before(q.From):
		case !q.To.IsZero() && e.OccurredAt.After(q.To):
		case q.Type != "" && e.Type != q.Type:
		case q.Login != "" && e.Login != q.Login:
		default:
			out = append(out, e)
		}
	}
	return out, nil
}

func sessionHistory() *memEvents {
	t0 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	return &memEvents{events: []models.PlantEvent{
		{EventID: "1", OccurredAt: t0, Type: models.EventLogin, Login: "viewer01"},
		{EventID: "2", OccurredAt: t0.Add(time.Minute), Type: models.EventLogin, Login: "admin001"},
		{EventID: "3", OccurredAt: t0.Add(2 * time.Minute), Type: models.EventActuationDenied, Login: "viewer01"},
		{EventID: "4", OccurredAt: t0.Add(3 * time.Minute), Type: models.EventActuation, Login: "admin001"},
		{EventID: "5", OccurredAt: t0.Add(time.Hour), Type: models.EventShutdown},
	}}
}

func ids(events []models.PlantEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.EventID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEventLogService_List_Filters(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		in   LogFilter
		want []string
	}{
		{name: "everything", in: LogFilter{}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "one user", in: LogFilter{Login: " viewer01 "}, want: []string{"1", "3"}},
		{name: "logins are case-sensitive", in: LogFilter{Login: "VIEWER01"}, want: []string{}},
		{name: "denied actuations", in: LogFilter{Type: "actuation_denied"}, want: []string{"3"}},
		{name: "user and type", in: LogFilter{Type: "LOGIN", Login: "admin001"}, want: []string{"2"}},
		{name: "shutdown has no user", in: LogFilter{Type: " Shutdown "}, want: []string{"5"}},
		{name: "session window", in: LogFilter{From: t0.Add(time.Minute), To: t0.Add(3 * time.Minute)}, want: []string{"2", "3", "4"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := NewEventLogService(sessionHistory())
			got, err := svc.List(context.Background(), tc.in)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if !equalIDs(ids(got), tc.want) {
				t.Fatalf("events: got %v, want %v", ids(got), tc.want)
			}
		})
	}
}

func TestEventLogService_List_BoundsMovedToUTC(t *testing.T) {
	t.Parallel()

	tashkent := time.FixedZone("UZT", 5*60*60)
	from := time.Date(2025, 3, 1, 13, 0, 0, 0, tashkent)
	to := time.Date(2025, 3, 1, 13, 2, 0, 0, tashkent)

	repo := sessionHistory()
	got, err := NewEventLogService(repo).List(context.Background(), LogFilter{From: from, To: to})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if repo.last.From.Location() != time.UTC || repo.last.To.Location() != time.UTC {
		t.Fatalf("bounds not in UTC: %v, %v", repo.last.From, repo.last.To)
	}
	if !repo.last.From.Equal(from) || !repo.last.To.Equal(to) {
		t.Fatalf("bounds changed instant: %v, %v", repo.last.From, repo.last.To)
	}
	if want := []string{"1", "2", "3"}; !equalIDs(ids(got), want) {
		t.Fatalf("events: got %v, want %v", ids(got), want)
	}
}

func TestEventLogService_List_RejectsBadFilter(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		in   LogFilter
		want error
	}{
		{name: "inverted range", in: LogFilter{From: t0.Add(time.Hour), To: t0}, want: ErrInvalidTimeRange},
		{name: "unknown type", in: LogFilter{Type: "reboot"}, want: ErrUnknownEventType},
	}
	for _, tc := range cases {
		repo := sessionHistory()
		_, err := NewEventLogService(repo).List(context.Background(), tc.in)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
		if repo.calls != 0 {
			t.Fatalf("%s: store queried %d times", tc.name, repo.calls)
		}
	}
}

func TestEventLogService_List_StoreError(t *testing.T) {
	t.Parallel()

	repo := &memEvents{err: errors.New("db down")}
	_, err := NewEventLogService(repo).List(context.Background(), LogFilter{Login: "admin001"})
	if err == nil || err.Error() != "db down" {
		t.Fatalf("expected store error, got %v", err)
	}
	if repo.last.Login != "admin001" {
		t.Fatalf("login not passed: %+v", repo.last)
	}
}
