package netsock

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

const (
	readChunk   = 4 << 10
	maxBuffered = 64 << 10 // reader pauses once this much is unconsumed
)

// Conn is a connected TCP socket.
type Conn struct {
	nc net.Conn

	wmu sync.Mutex // serialises writers

	mu       sync.Mutex
	space    *sync.Cond // signalled when buffered bytes are consumed
	rbuf     []byte
	rerr     error
	closed   bool
	changed  chan struct{} // closed and replaced on every buffer/error change
	watchers map[chan struct{}]struct{}
}

// NewConn takes ownership of nc and starts its background reader.
func NewConn(nc net.Conn) *Conn {
	c := &Conn{
		nc:       nc,
		changed:  make(chan struct{}),
		watchers: make(map[chan struct{}]struct{}),
	}
	c.space = sync.NewCond(&c.mu)
	go c.readLoop()
	return c
}

// Dial connects to addr ("host:port").
func Dial(ctx context.Context, addr string) (*Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &OpError{Op: "dial", Err: err}
	}
	return NewConn(nc), nil
}

func (c *Conn) readLoop() {
	buf := make([]byte, readChunk)
	for {
		n, err := c.nc.Read(buf)

		c.mu.Lock()
		if n > 0 {
			c.rbuf = append(c.rbuf, buf[:n]...)
		}
		if err != nil {
			c.rerr = err
		}
		c.signalLocked()
		for err == nil && !c.closed && len(c.rbuf) >= maxBuffered {
			c.space.Wait()
		}
		c.mu.Unlock()

		if err != nil {
			return
		}
	}
}

// signalLocked wakes blocked readers and readiness waits. c.mu must be held.
func (c *Conn) signalLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
	for w := range c.watchers {
		select {
		case w <- struct{}{}:
		default:
		}
	}
}

// Close shuts the socket down. Safe to call more than once and from any
// goroutine; blocked reads return ErrClosed.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.rbuf = nil
	c.space.Broadcast()
	c.signalLocked()
	c.mu.Unlock()
	return c.nc.Close()
}

// Connected reports whether the socket has not been closed locally.
func (c *Conn) Connected() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// RemoteAddr returns the peer address as a string.
func (c *Conn) RemoteAddr() string {
	return c.nc.RemoteAddr().String()
}

func (c *Conn) attach(w chan struct{}) {
	c.mu.Lock()
	c.watchers[w] = struct{}{}
	c.mu.Unlock()
}

func (c *Conn) detach(w chan struct{}) {
	c.mu.Lock()
	delete(c.watchers, w)
	c.mu.Unlock()
}

// ready reports pending input, a pending error or a local close; any of them
// makes the next read return without blocking.
func (c *Conn) ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed || len(c.rbuf) > 0 || c.rerr != nil
}

// readErrLocked maps the reader's terminal error. c.mu must be held.
func (c *Conn) readErrLocked() error {
	switch {
	case c.closed, errors.Is(c.rerr, net.ErrClosed):
		return ErrClosed
	case errors.Is(c.rerr, io.EOF):
		return ErrDisconnected
	default:
		return &OpError{Op: "read", Err: c.rerr}
	}
}

// ReadBytes reads exactly n bytes. A negative timeout waits forever. On
// timeout nothing is consumed.
func (c *Conn) ReadBytes(n int, timeout time.Duration) ([]byte, error) {
	var deadline <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}

	c.mu.Lock()
	for {
		if c.closed {
			c.mu.Unlock()
			return nil, ErrClosed
		}
		if len(c.rbuf) >= n {
			out := make([]byte, n)
			copy(out, c.rbuf)
			c.rbuf = c.rbuf[n:]
			c.space.Signal()
			c.mu.Unlock()
			return out, nil
		}
		if c.rerr != nil {
			err := c.readErrLocked()
			c.mu.Unlock()
			return nil, err
		}
		changed := c.changed
		c.mu.Unlock()

		select {
		case <-changed:
		case <-deadline:
			return nil, ErrTimeout
		}
		c.mu.Lock()
	}
}

// WriteBytes writes all of b. Writes have no timeout.
func (c *Conn) WriteBytes(b []byte) error {
	if !c.Connected() {
		return ErrClosed
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.nc.Write(b); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return ErrClosed
		}
		return &OpError{Op: "write", Err: err}
	}
	return nil
}

func (c *Conn) readUint(size int, timeout time.Duration) (uint64, error) {
	b, err := c.ReadBytes(size, timeout)
	if err != nil {
		return 0, err
	}
	switch size {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(b)), nil
	default:
		return binary.BigEndian.Uint64(b), nil
	}
}

func (c *Conn) writeUint(size int, v uint64) error {
	b := make([]byte, size)
	switch size {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(b, uint16(v))
	case 4:
		binary.BigEndian.PutUint32(b, uint32(v))
	default:
		binary.BigEndian.PutUint64(b, v)
	}
	return c.WriteBytes(b)
}

func (c *Conn) ReadUint8(timeout time.Duration) (uint8, error) {
	v, err := c.readUint(1, timeout)
	return uint8(v), err
}

func (c *Conn) ReadUint16(timeout time.Duration) (uint16, error) {
	v, err := c.readUint(2, timeout)
	return uint16(v), err
}

func (c *Conn) ReadUint32(timeout time.Duration) (uint32, error) {
	v, err := c.readUint(4, timeout)
	return uint32(v), err
}

func (c *Conn) ReadUint64(timeout time.Duration) (uint64, error) {
	return c.readUint(8, timeout)
}

func (c *Conn) ReadInt8(timeout time.Duration) (int8, error) {
	v, err := c.readUint(1, timeout)
	return int8(v), err
}

func (c *Conn) ReadInt16(timeout time.Duration) (int16, error) {
	v, err := c.readUint(2, timeout)
	return int16(v), err
}

func (c *Conn) ReadInt32(timeout time.Duration) (int32, error) {
	v, err := c.readUint(4, timeout)
	return int32(v), err
}

func (c *Conn) ReadInt64(timeout time.Duration) (int64, error) {
	v, err := c.readUint(8, timeout)
	return int64(v), err
}

func (c *Conn) WriteUint8(v uint8) error   { return c.writeUint(1, uint64(v)) }
func (c *Conn) WriteUint16(v uint16) error { return c.writeUint(2, uint64(v)) }
func (c *Conn) WriteUint32(v uint32) error { return c.writeUint(4, uint64(v)) }
func (c *Conn) WriteUint64(v uint64) error { return c.writeUint(8, v) }
func (c *Conn) WriteInt8(v int8) error     { return c.writeUint(1, uint64(uint8(v))) }
func (c *Conn) WriteInt16(v int16) error   { return c.writeUint(2, uint64(uint16(v))) }
func (c *Conn) WriteInt32(v int32) error   { return c.writeUint(4, uint64(uint32(v))) }
func (c *Conn) WriteInt64(v int64) error   { return c.writeUint(8, uint64(v)) }

// ReadString reads a uint16 length prefix and that many bytes. The timeout
// applies to each of the two reads.
func (c *Conn) ReadString(timeout time.Duration) (string, error) {
	n, err := c.ReadUint16(timeout)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	b, err := c.ReadBytes(int(n), timeout)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteString writes s with its uint16 length prefix in a single write.
func (c *Conn) WriteString(s string) error {
	if len(s) > 0xFFFF {
		return ErrStringTooLong
	}
	b := make([]byte, 2+len(s))
	binary.BigEndian.PutUint16(b, uint16(len(s)))
	copy(b[2:], s)
	return c.WriteBytes(b)
}
