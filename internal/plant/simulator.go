package plant

import (
	"context"
	"math"
	"sync"
	"time"

	"tank_supervisor/internal/logger"
	"tank_supervisor/internal/models"
	"tank_supervisor/internal/repository"
)

// ----------- Simulation constants -----------
const (
	MaxLevel     = math.MaxUint16 // full tank
	PumpGain     = 0.5            // pump flow per unit of pump input
	InflowGain   = 0.2            // tank 1 level units per second per unit of flow
	Valve1Coef   = 16.0           // tank 1 -> tank 2, level units per second per sqrt(level)
	Valve2Coef   = 12.0           // tank 2 -> drain, level units per second per sqrt(level)
	maxStepDelta = 5.0            // seconds; longer gaps are integrated in slices
)

var _ Provider = (*Simulator)(nil)

// Simulator is an in-memory two-tank plant: the pump fills tank 1, valve 1
// drains tank 1 into tank 2 and valve 2 drains tank 2. Levels follow
// Torricelli's law through open valves. Safe for concurrent use.
type Simulator struct {
	mu        sync.Mutex
	on        bool
	v1, v2    bool
	h1, h2    float64
	pumpInput uint16
	overflow  bool
	last      time.Time

	events repository.EventRepo
	log    *logger.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithEvents records overflow onsets in the event log.
func WithEvents(r repository.EventRepo) Option { return func(s *Simulator) { s.events = r } }

// WithLogger sets the simulator logger.
func WithLogger(l *logger.Logger) Option { return func(s *Simulator) { s.log = l } }

// NewSimulator returns a powered-off plant with empty tanks and closed valves.
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{log: logger.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Restore seeds levels and actuators from a persisted snapshot.
func (s *Simulator) Restore(snap models.PlantSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := snap.State
	s.v1, s.v2 = st.Valve1Open, st.Valve2Open
	s.h1, s.h2 = float64(st.Tank1Level), float64(st.Tank2Level)
	s.pumpInput = st.PumpInput
	s.overflow = st.Overflowing
}

// Run ticks at the given interval until ctx is canceled.
func (s *Simulator) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if s.Step(now) {
				s.recordOverflow(ctx, now)
			}
		}
	}
}

// Step advances the plant to now. It reports whether the plant started
// overflowing during this step.
func (s *Simulator) Step(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last.IsZero() || !s.on {
		s.last = now
		return false
	}
	elapsed := now.Sub(s.last).Seconds()
	s.last = now
	if elapsed <= 0 {
		return false
	}

	was := s.overflow
	for elapsed > 0 {
		dt := math.Min(elapsed, maxStepDelta)
		s.advance(dt)
		elapsed -= dt
	}
	return s.overflow && !was
}

// advance integrates the level equations over dt seconds. Caller holds mu.
func (s *Simulator) advance(dt float64) {
	in1 := float64(s.flowLocked()) * InflowGain
	var q1, q2 float64
	if s.v1 {
		q1 = Valve1Coef * math.Sqrt(s.h1)
	}
	if s.v2 {
		q2 = Valve2Coef * math.Sqrt(s.h2)
	}

	h1 := s.h1 + (in1-q1)*dt
	h2 := s.h2 + (q1-q2)*dt

	s.overflow = h1 > MaxLevel || h2 > MaxLevel
	s.h1 = clamp(h1)
	s.h2 = clamp(h2)
}

func (s *Simulator) flowLocked() uint16 {
	if !s.on {
		return 0
	}
	return uint16(float64(s.pumpInput) * PumpGain)
}

func (s *Simulator) recordOverflow(ctx context.Context, now time.Time) {
	st := s.ReadSensors()
	s.log.Warnw("plant_overflow", "tank1", st.Tank1Level, "tank2", st.Tank2Level)
	if s.events == nil {
		return
	}
	err := s.events.Append(ctx, models.PlantEvent{
		OccurredAt:  now.UTC(),
		Type:        models.EventOverflow,
		Description: "Tank overflow detected",
		Metadata: map[string]any{
			"tank1_level": st.Tank1Level,
			"tank2_level": st.Tank2Level,
			"pump_input":  st.PumpInput,
		},
	})
	if err != nil {
		s.log.Errorw("plant_event_append_failed", "error", err)
	}
}

// ReadSensors samples every sensor at once.
func (s *Simulator) ReadSensors() models.PlantState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.PlantState{
		Valve1Open:  s.v1,
		Valve2Open:  s.v2,
		Tank1Level:  uint16(math.Round(s.h1)),
		Tank2Level:  uint16(math.Round(s.h2)),
		PumpInput:   s.pumpInput,
		PumpFlow:    s.flowLocked(),
		Overflowing: s.overflow,
	}
}

func (s *Simulator) SetPumpInput(v uint16) {
	s.mu.Lock()
	s.pumpInput = v
	s.mu.Unlock()
}

func (s *Simulator) SetValve1Open(open bool) {
	s.mu.Lock()
	s.v1 = open
	s.mu.Unlock()
}

func (s *Simulator) SetValve2Open(open bool) {
	s.mu.Lock()
	s.v2 = open
	s.mu.Unlock()
}

func (s *Simulator) TanksOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.on
}

// PowerOn starts the plant; time spent off is not integrated.
func (s *Simulator) PowerOn() {
	s.mu.Lock()
	s.on = true
	s.last = time.Time{}
	s.mu.Unlock()
}

// PowerOff stops the pump. Levels and valves keep their values.
func (s *Simulator) PowerOff() {
	s.mu.Lock()
	s.on = false
	s.mu.Unlock()
}

func clamp(h float64) float64 {
	switch {
	case h < 0:
		return 0
	case h > MaxLevel:
		return MaxLevel
	default:
		return h
	}
}
