package netsock

import (
	"errors"
	"net"
	"sync"
	"time"
)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Listener is a listening TCP socket. Accepted connections are queued, up to
// the backlog, until Accept hands them out.
type Listener struct {
	ln      net.Listener
	backlog int

	mu       sync.Mutex
	space    *sync.Cond
	pending  []net.Conn
	aerr     error
	closed   bool
	changed  chan struct{}
	watchers map[chan struct{}]struct{}
}

// Listen opens a listening socket on addr (":port" or "host:port").
// backlog bounds the number of accepted-but-unclaimed connections.
func Listen(addr string, backlog int) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &OpError{Op: "listen", Err: err}
	}
	if backlog < 1 {
		backlog = 1
	}
	l := &Listener{
		ln:       ln,
		backlog:  backlog,
		changed:  make(chan struct{}),
		watchers: make(map[chan struct{}]struct{}),
	}
	l.space = sync.NewCond(&l.mu)
	go l.acceptLoop()
	return l, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

func (l *Listener) acceptLoop() {
	backoff := time.Duration(0)
	for {
		nc, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				l.mu.Lock()
				l.aerr = err
				l.signalLocked()
				l.mu.Unlock()
				return
			}
			// Resource exhaustion and similar: retry like net/http does.
			if backoff == 0 {
				backoff = minAcceptBackoff
			} else if backoff *= 2; backoff > maxAcceptBackoff {
				backoff = maxAcceptBackoff
			}
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		l.mu.Lock()
		for !l.closed && len(l.pending) >= l.backlog {
			l.space.Wait()
		}
		if l.closed {
			l.mu.Unlock()
			_ = nc.Close()
			continue
		}
		l.pending = append(l.pending, nc)
		l.signalLocked()
		l.mu.Unlock()
	}
}

func (l *Listener) signalLocked() {
	close(l.changed)
	l.changed = make(chan struct{})
	for w := range l.watchers {
		select {
		case w <- struct{}{}:
		default:
		}
	}
}

// Accepting reports whether the socket is open and still accepting.
func (l *Listener) Accepting() bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.closed && l.aerr == nil
}

// Accept returns the next queued connection, waiting up to timeout (negative
// waits forever). It fails with ErrNotAccepting once the listener is closed.
func (l *Listener) Accept(timeout time.Duration) (*Conn, error) {
	var deadline <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}

	l.mu.Lock()
	for {
		if l.closed || l.aerr != nil {
			l.mu.Unlock()
			return nil, ErrNotAccepting
		}
		if len(l.pending) > 0 {
			nc := l.pending[0]
			l.pending = l.pending[1:]
			l.space.Signal()
			l.mu.Unlock()
			return NewConn(nc), nil
		}
		changed := l.changed
		l.mu.Unlock()

		select {
		case <-changed:
		case <-deadline:
			return nil, ErrTimeout
		}
		l.mu.Lock()
	}
}

// Close stops accepting and drops every queued connection.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	for _, nc := range l.pending {
		_ = nc.Close()
	}
	l.pending = nil
	l.space.Broadcast()
	l.signalLocked()
	l.mu.Unlock()
	return l.ln.Close()
}

func (l *Listener) attach(w chan struct{}) {
	l.mu.Lock()
	l.watchers[w] = struct{}{}
	l.mu.Unlock()
}

func (l *Listener) detach(w chan struct{}) {
	l.mu.Lock()
	delete(l.watchers, w)
	l.mu.Unlock()
}

func (l *Listener) ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed || l.aerr != nil || len(l.pending) > 0
}
