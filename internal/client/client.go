// Package client is the operator side of a supervisory session: it logs in,
// polls plant samples in the background and sends actuator commands.
//
// The poller and foreground calls share one connection. Every
// request/response pair is sent while holding the command mutex, so replies
// are never delivered to the wrong caller.
package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"tank_supervisor/internal/logger"
	"tank_supervisor/internal/models"
	"tank_supervisor/internal/netsock"
	"tank_supervisor/internal/protocol"
)

const (
	DefaultTimeout     = 5 * time.Second
	DefaultRefresh     = 20 * time.Second
	DefaultLogoutGrace = time.Second
)

// State is the session phase.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Disconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	case Disconnecting:
		return "DISCONNECTING"
	default:
		return "UNKNOWN"
	}
}

// Valve selects one of the plant valves.
type Valve int

const (
	Valve1 Valve = 1
	Valve2 Valve = 2
)

// LocalState is what the client knows about its session and the plant.
type LocalState struct {
	Username    string
	IsAdmin     bool
	Last        models.PlantState
	FirstSample time.Time
	LastSample  time.Time
	Refresh     time.Duration
}

// Client is one operator session.
type Client struct {
	display     Display
	log         *logger.Logger
	timeout     time.Duration
	logoutGrace time.Duration

	cmdMu sync.Mutex // held for a full request/response pair
	stop  atomic.Bool
	state atomic.Int32
	wg    sync.WaitGroup

	mu    sync.RWMutex // guards conn, quit and local
	conn  *netsock.Conn
	quit  chan struct{}
	local LocalState
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets how long to wait for each server reply.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithRefresh sets the polling interval.
func WithRefresh(d time.Duration) Option { return func(c *Client) { c.local.Refresh = d } }

// WithLogoutGrace sets the pause between LOGOUT and closing the socket.
func WithLogoutGrace(d time.Duration) Option { return func(c *Client) { c.logoutGrace = d } }

// WithLogger sets the client logger.
func WithLogger(l *logger.Logger) Option { return func(c *Client) { c.log = l } }

// New returns a disconnected client reporting to d (nil discards).
func New(d Display, opts ...Option) *Client {
	if d == nil {
		d = nopDisplay{}
	}
	c := &Client{
		display:     d,
		log:         logger.Nop(),
		timeout:     DefaultTimeout,
		logoutGrace: DefaultLogoutGrace,
		local:       LocalState{Refresh: DefaultRefresh},
	}
	for _, o := range opts {
		o(c)
	}
	if c.local.Refresh <= 0 {
		c.local.Refresh = DefaultRefresh
	}
	return c
}

// Connected reports whether the session socket is open.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn.Connected()
}

func (c *Client) IsAdmin() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.local.IsAdmin
}

func (c *Client) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.local.Username
}

// Status returns the session phase.
func (c *Client) Status() State { return State(c.state.Load()) }

// Snapshot returns a copy of the local state.
func (c *Client) Snapshot() LocalState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.local
}

// SetRefreshInterval changes the polling interval; it applies from the next
// sample on.
func (c *Client) SetRefreshInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.local.Refresh = d
	c.mu.Unlock()
}

// Connect opens a session and starts the poller. On failure the socket is
// closed, the error is shown and returned as a *StepError, and the stored
// plant state is left as it was.
func (c *Client) Connect(ctx context.Context, address, login, password string) error {
	defer c.display.ShowInterface()

	if c.Connected() {
		err := stepErr("connect", StepAlreadyConnected, ErrAlreadyConnected)
		c.display.ShowError(err.Error())
		return err
	}
	c.state.Store(int32(Connecting))

	conn, reply, err := c.login(ctx, address, login, password)
	if err != nil {
		if conn != nil {
			_ = conn.Close()
		}
		c.state.Store(int32(Disconnected))
		c.log.Warnw("connect_failed", "address", address, "login", login, "error", err)
		c.display.ShowError(err.Error())
		return err
	}

	quit := make(chan struct{})
	c.mu.Lock()
	c.conn = conn
	c.quit = quit
	c.local.Username = login
	c.local.IsAdmin = reply == protocol.CmdAdminOK
	c.mu.Unlock()

	c.stop.Store(false)
	c.state.Store(int32(Connected))
	c.log.Infow("connected", "address", address, "login", login, "admin", reply == protocol.CmdAdminOK)

	c.wg.Add(1)
	go c.poll(conn, quit)
	return nil
}

// login runs the handshake. The returned conn, if any, is still open.
func (c *Client) login(ctx context.Context, address, login, password string) (*netsock.Conn, protocol.Command, error) {
	const op = "connect"

	conn, err := netsock.Dial(ctx, address)
	if err != nil {
		return nil, 0, stepErr(op, StepDial, err)
	}
	if err := protocol.WriteLogin(conn, protocol.Credentials{Login: login, Password: password}); err != nil {
		return conn, 0, stepErr(op, loginStep(err), err)
	}
	reply, err := protocol.ReadCommand(conn, c.timeout)
	if err != nil {
		return conn, 0, stepErr(op, StepReadLoginReply, err)
	}
	if reply != protocol.CmdAdminOK && reply != protocol.CmdOK {
		return conn, 0, stepErr(op, StepLoginRefused, ErrRefused)
	}
	return conn, reply, nil
}

// loginStep maps a WriteLogin failure to its step code.
func loginStep(err error) int {
	var se *protocol.StageError
	if !errors.As(err, &se) {
		return StepSendLogin
	}
	switch se.Stage {
	case protocol.StageLogin:
		return StepSendUser
	case protocol.StagePassword:
		return StepSendPassword
	default:
		return StepSendLogin
	}
}

// Disconnect ends the session from the caller's side and waits for the
// poller. It must not be called by the poller itself.
func (c *Client) Disconnect() {
	c.stop.Store(true)

	c.mu.Lock()
	conn, quit := c.conn, c.quit
	c.quit = nil
	c.mu.Unlock()
	if quit != nil {
		close(quit)
	}

	if conn.Connected() {
		c.state.Store(int32(Disconnecting))
		c.logout(conn)
	}
	c.wg.Wait()

	c.mu.Lock()
	c.conn = nil
	c.local.Username = ""
	c.local.IsAdmin = false
	c.clearStateLocked()
	c.mu.Unlock()
	c.state.Store(int32(Disconnected))

	c.display.ShowInterface()
}

// logout sends a best-effort LOGOUT, gives the server time to read it and
// closes the socket.
func (c *Client) logout(conn *netsock.Conn) {
	_ = protocol.WriteCommand(conn, protocol.CmdLogout)
	time.Sleep(c.logoutGrace)
	_ = conn.Close()
}

func (c *Client) poll(conn *netsock.Conn, quit <-chan struct{}) {
	defer c.wg.Done()

	for !c.stop.Load() && conn.Connected() {
		c.cmdMu.Lock()
		st, err := c.sample(conn)
		c.cmdMu.Unlock()
		if err != nil {
			c.pollFailed(conn, err)
			return
		}

		c.storeState(st)
		c.display.ShowInterface()

		t := time.NewTimer(c.Snapshot().Refresh)
		select {
		case <-t.C:
		case <-quit:
			t.Stop()
		}
	}
}

func (c *Client) sample(conn *netsock.Conn) (models.PlantState, error) {
	const op = "get data"

	if err := protocol.WriteCommand(conn, protocol.CmdGetData); err != nil {
		return models.PlantState{}, stepErr(op, StepPollSend, err)
	}
	reply, err := protocol.ReadCommand(conn, c.timeout)
	if err != nil {
		return models.PlantState{}, stepErr(op, StepPollReadReply, err)
	}
	if reply != protocol.CmdData {
		return models.PlantState{}, stepErr(op, StepPollUnexpected, ErrUnexpectedReply)
	}
	st, err := protocol.ReadState(conn, c.timeout)
	if err != nil {
		return models.PlantState{}, stepErr(op, StepPollReadData, err)
	}
	return st, nil
}

// pollFailed is the poller's own shutdown path. It closes the session
// inline and never waits for the poller.
func (c *Client) pollFailed(conn *netsock.Conn, err error) {
	if c.stop.Load() {
		return
	}
	if conn.Connected() {
		c.logout(conn)
	}
	c.mu.Lock()
	c.local.Username = ""
	c.local.IsAdmin = false
	c.clearStateLocked()
	c.mu.Unlock()
	c.state.Store(int32(Disconnected))
	c.log.Warnw("poll_failed", "error", err)
	c.display.ShowError(err.Error())
	c.display.ShowInterface()
}

func (c *Client) storeState(st models.PlantState) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.local.Last = st
	c.local.LastSample = now
	if c.local.FirstSample.IsZero() {
		c.local.FirstSample = now
	}
}

func (c *Client) clearStateLocked() {
	c.local.Last = models.PlantState{}
	c.local.FirstSample = time.Time{}
	c.local.LastSample = time.Time{}
}

// SetValveOpen opens or closes a valve. Any failure is shown and ends the
// session.
func (c *Client) SetValveOpen(v Valve, open bool) error {
	cmd := protocol.CmdSetV1
	if v == Valve2 {
		cmd = protocol.CmdSetV2
	}
	var param uint16
	if open {
		param = 1
	}
	return c.actuate("set valve", StepValveNotAllowed, cmd, param)
}

// SetPumpInput sets the pump input. Any failure is shown and ends the
// session.
func (c *Client) SetPumpInput(v uint16) error {
	return c.actuate("set pump", StepPumpNotAllowed, protocol.CmdSetPump, v)
}

// actuate runs one privileged request. Step codes are base, base+1, ...
// for permission, command, parameter, reply and refusal.
func (c *Client) actuate(op string, base int, cmd protocol.Command, param uint16) error {
	c.cmdMu.Lock()
	err := c.exchange(op, base, cmd, param)
	c.cmdMu.Unlock()
	if err == nil {
		return nil
	}

	c.log.Warnw("actuation_failed", "command", cmd.String(), "error", err)
	c.display.ShowError(err.Error())
	c.Disconnect()
	return err
}

// exchange sends cmd and its parameter and checks the reply. Caller holds
// cmdMu.
func (c *Client) exchange(op string, base int, cmd protocol.Command, param uint16) error {
	c.mu.RLock()
	conn, admin := c.conn, c.local.IsAdmin
	c.mu.RUnlock()

	switch {
	case !conn.Connected():
		return stepErr(op, base, ErrNotConnected)
	case !admin:
		return stepErr(op, base, ErrNotAdmin)
	}
	if err := protocol.WriteCommand(conn, cmd); err != nil {
		return stepErr(op, base+1, err)
	}
	if err := conn.WriteUint16(param); err != nil {
		return stepErr(op, base+2, err)
	}
	reply, err := protocol.ReadCommand(conn, c.timeout)
	if err != nil {
		return stepErr(op, base+3, err)
	}
	if reply != protocol.CmdOK {
		return stepErr(op, base+4, ErrRefused)
	}
	return nil
}
