// Package server hosts the supervisory session loop and the HTTP lifecycle
// wrapper of the admin API.
//
// The session loop runs on a single goroutine. Each iteration rebuilds a
// readiness set from the listener and every connected user, waits on it,
// serves one command per active user in registry order and then admits at
// most one new connection. Failures of a single client only end that
// client's session; only a dead listener or a failed wait stops the loop.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"tank_supervisor/internal/logger"
	"tank_supervisor/internal/models"
	"tank_supervisor/internal/netsock"
	"tank_supervisor/internal/plant"
	"tank_supervisor/internal/protocol"
	"tank_supervisor/internal/registry"
	"tank_supervisor/internal/repository"
)

const (
	DefaultTimeout = 5 * time.Second
	DefaultBacklog = 8

	storeTimeout = 2 * time.Second
)

// Server is the supervisory TCP server.
type Server struct {
	users  *registry.Registry
	plant  plant.Provider
	states repository.StateRepo
	events repository.EventRepo
	log    *logger.Logger

	timeout time.Duration
	backlog int

	running     atomic.Bool
	handshaking atomic.Pointer[netsock.Conn]

	mu   sync.Mutex // guards ln and done
	ln   *netsock.Listener
	done chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithTimeout sets the per-field read timeout, which is also the idle wait.
func WithTimeout(d time.Duration) Option { return func(s *Server) { s.timeout = d } }

// WithBacklog sets the listen backlog.
func WithBacklog(n int) Option { return func(s *Server) { s.backlog = n } }

// WithStateRepo persists a plant snapshot whenever the loop goes idle.
func WithStateRepo(r repository.StateRepo) Option { return func(s *Server) { s.states = r } }

// WithEventRepo records session and actuation events.
func WithEventRepo(r repository.EventRepo) Option { return func(s *Server) { s.events = r } }

// WithLogger sets the server logger.
func WithLogger(l *logger.Logger) Option { return func(s *Server) { s.log = l } }

// New builds a stopped server over the given registry and plant.
func New(users *registry.Registry, p plant.Provider, opts ...Option) *Server {
	s := &Server{
		users:   users,
		plant:   p,
		log:     logger.Nop(),
		timeout: DefaultTimeout,
		backlog: DefaultBacklog,
	}
	for _, o := range opts {
		o(s)
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	return s
}

// Running reports whether the session loop is active.
func (s *Server) Running() bool { return s.running.Load() }

// Addr returns the listening address, or nil when stopped.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Start listens on port ("23456", ":23456" or "host:port"), powers the
// plant on and launches the session loop. Starting a running server is a
// no-op.
func (s *Server) Start(port string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running.Load() {
		return nil
	}
	s.reapLocked()

	ln, err := netsock.Listen(normalizeAddr(port), s.backlog)
	if err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	s.ln = ln
	s.done = make(chan struct{})
	s.plant.PowerOn()
	s.running.Store(true)
	go s.run(ln, s.done)

	s.log.Infow("server_started", "addr", ln.Addr().String())
	s.record(models.EventServerStart, "", "session server started", map[string]any{"addr": ln.Addr().String()})
	return nil
}

// Stop ends every session, closes the listener, waits for the loop to exit
// and powers the plant off. Stopping a stopped server is a no-op.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return
	}
	s.running.Store(false)
	s.users.CloseAll()
	if c := s.handshaking.Load(); c != nil {
		_ = c.Close()
	}
	_ = s.ln.Close()
	<-s.done
	s.ln, s.done = nil, nil
	s.plant.PowerOff()
	s.log.Infow("server_stopped")
}

// reapLocked releases what a fatal shutdown left behind. s.mu must be held.
func (s *Server) reapLocked() {
	if s.ln == nil {
		return
	}
	_ = s.ln.Close()
	<-s.done
	s.ln, s.done = nil, nil
}

func (s *Server) run(ln *netsock.Listener, done chan struct{}) {
	defer close(done)

	set := netsock.NewSet()
	for s.running.Load() {
		if !ln.Accepting() {
			s.shutdown(ln, netsock.ErrNotAccepting)
			return
		}

		set.Clear()
		_ = set.Include(ln)
		for _, u := range s.users.Users() {
			if c := u.Conn(); c != nil {
				_ = set.Include(c)
			}
		}

		err := set.WaitRead(s.timeout)
		if !s.running.Load() {
			return
		}
		if errors.Is(err, netsock.ErrTimeout) {
			s.idle()
			continue
		}
		if err != nil {
			s.shutdown(ln, err)
			return
		}

		s.drain(set)
		if !s.running.Load() {
			return
		}
		if set.HadActivity(ln) && !s.admit(ln) {
			return
		}
	}
}

// shutdown is the fatal exit of the loop. The plant stays powered.
func (s *Server) shutdown(ln *netsock.Listener, cause error) {
	s.running.Store(false)
	s.users.CloseAll()
	_ = ln.Close()
	s.log.Errorw("server_shutdown", "error", cause)
	s.record(models.EventShutdown, "", "session loop stopped", map[string]any{"error": cause.Error()})
}

// idle persists the current plant sample.
func (s *Server) idle() {
	if s.states == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	snap := models.PlantSnapshot{
		State:   s.plant.ReadSensors(),
		TanksOn: s.plant.TanksOn(),
	}
	if err := s.states.Save(ctx, snap); err != nil {
		s.log.Warnw("snapshot_save_failed", "error", err)
	}
}

// drain serves one command from every user whose connection is readable.
func (s *Server) drain(set *netsock.Set) {
	for _, u := range s.users.Users() {
		if !s.running.Load() {
			return
		}
		c := u.Conn()
		if c == nil || !set.HadActivity(c) {
			continue
		}
		s.serve(u, c)
	}
}

func (s *Server) serve(u *registry.User, c *netsock.Conn) {
	// Readiness only promises one buffered byte, so a half-sent code must
	// not hold up the other sessions.
	cmd, err := protocol.ReadCommand(c, s.timeout)
	if err != nil {
		s.dropClient(u, "read command", err)
		return
	}

	switch {
	case cmd == protocol.CmdGetData:
		if err := protocol.WriteData(c, s.plant.ReadSensors()); err != nil {
			s.dropClient(u, "write data", err)
		}
	case cmd.IsActuation():
		s.actuate(u, c, cmd)
	case cmd == protocol.CmdLogout:
		u.Close()
		s.log.Infow("session_logout", "login", u.Login())
		s.record(models.EventLogout, u.Login(), "session closed by client", nil)
	default:
		s.violation(u, cmd)
	}
}

// violation closes a session that sent something other than a request.
func (s *Server) violation(u *registry.User, cmd protocol.Command) {
	u.Close()
	reason := "unknown command"
	switch {
	case cmd.IsResponse():
		reason = "reply sent as request"
	case cmd == protocol.CmdLogin:
		reason = "repeated login"
	}
	s.log.Warnw("client_protocol_violation", "login", u.Login(), "command", cmd.String(), "reason", reason)
	s.record(models.EventClientError, u.Login(), "protocol violation: "+reason, map[string]any{"command": cmd.String()})
}

func (s *Server) actuate(u *registry.User, c *netsock.Conn, cmd protocol.Command) {
	v, err := protocol.ReadParam(c, s.timeout)
	if err != nil {
		s.dropClient(u, "read "+cmd.String()+" param", err)
		return
	}
	meta := map[string]any{"command": cmd.String(), "param": v}

	if !u.IsAdmin() {
		s.log.Warnw("actuation_denied", "login", u.Login(), "command", cmd.String())
		s.record(models.EventActuationDenied, u.Login(), "actuation requires admin", meta)
		if err := protocol.WriteCommand(c, protocol.CmdError); err != nil {
			s.dropClient(u, "write error reply", err)
		}
		return
	}

	switch cmd {
	case protocol.CmdSetPump:
		s.plant.SetPumpInput(v)
	case protocol.CmdSetV1:
		s.plant.SetValve1Open(protocol.BoolParam(v))
	case protocol.CmdSetV2:
		s.plant.SetValve2Open(protocol.BoolParam(v))
	}
	s.log.Infow("actuation", "login", u.Login(), "command", cmd.String(), "param", v)
	s.record(models.EventActuation, u.Login(), cmd.String(), meta)

	if err := protocol.WriteCommand(c, protocol.CmdOK); err != nil {
		s.dropClient(u, "write ok reply", err)
	}
}

// dropClient ends one user's session after a transport failure.
func (s *Server) dropClient(u *registry.User, op string, err error) {
	u.Close()
	if !s.running.Load() && errors.Is(err, netsock.ErrClosed) {
		return
	}
	if netsock.IsTransient(err) {
		s.log.Infow("session_dropped", "login", u.Login(), "op", op, "error", err)
	} else {
		s.log.Warnw("client_error", "login", u.Login(), "op", op, "error", err)
	}
	s.record(models.EventClientError, u.Login(), op+": "+err.Error(), nil)
}

// admit takes one pending connection through the LOGIN handshake. It
// returns false when the listener failed and the loop had to stop.
func (s *Server) admit(ln *netsock.Listener) bool {
	c, err := ln.Accept(0)
	switch {
	case errors.Is(err, netsock.ErrTimeout):
		return true
	case err != nil:
		if s.running.Load() {
			s.shutdown(ln, err)
		}
		return false
	}
	s.handshaking.Store(c)
	defer s.handshaking.Store(nil)
	if !s.running.Load() {
		_ = c.Close()
		return false
	}

	cr, err := protocol.ReadLogin(c, s.timeout)
	if err != nil {
		s.reject(c, "", err, healthy(err))
		return true
	}
	u, err := s.users.Authenticate(cr.Login, cr.Password)
	if err != nil {
		s.reject(c, cr.Login, err, true)
		return true
	}

	if !s.running.Load() {
		_ = c.Close()
		return false
	}
	if !s.users.BindIfPresent(u, c) {
		s.reject(c, cr.Login, registry.ErrUnknownUser, true)
		return true
	}
	if !s.running.Load() {
		u.Close()
		return false
	}
	reply := protocol.CmdOK
	if u.IsAdmin() {
		reply = protocol.CmdAdminOK
	}
	if err := protocol.WriteCommand(c, reply); err != nil {
		u.Close()
		s.log.Warnw("login_reply_failed", "login", u.Login(), "error", err)
		return true
	}
	s.log.Infow("session_login", "login", u.Login(), "admin", u.IsAdmin(), "remote", c.RemoteAddr())
	s.record(models.EventLogin, u.Login(), "session opened", map[string]any{"admin": u.IsAdmin()})
	return true
}

// reject answers ERROR when the socket can still carry it and discards it.
func (s *Server) reject(c *netsock.Conn, login string, cause error, reply bool) {
	if reply {
		_ = protocol.WriteCommand(c, protocol.CmdError)
	}
	_ = c.Close()
	s.log.Warnw("login_rejected", "login", login, "error", cause)
	s.record(models.EventLoginRejected, login, cause.Error(), nil)
}

// healthy reports whether a handshake failure left the socket writable.
func healthy(err error) bool {
	return errors.Is(err, netsock.ErrTimeout) || errors.Is(err, protocol.ErrUnexpectedCommand)
}

func (s *Server) record(typ, login, desc string, meta map[string]any) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	ev := models.PlantEvent{Type: typ, Login: login, Description: desc}
	if meta != nil {
		ev.Metadata = meta
	}
	if err := s.events.Append(ctx, ev); err != nil {
		s.log.Warnw("event_append_failed", "type", typ, "error", err)
	}
}
