package registry

import (
	"sync"

	"tank_supervisor/internal/netsock"

	"golang.org/x/crypto/bcrypt"
)

// User is a registered operator and its bound connection slot.
type User struct {
	login        string
	passwordHash []byte
	isAdmin      bool

	mu   sync.Mutex
	conn *netsock.Conn
}

func (u *User) Login() string { return u.login }
func (u *User) IsAdmin() bool { return u.isAdmin }

func (u *User) checkPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) == nil
}

// Conn returns the bound connection, or nil when the user is not connected.
func (u *User) Conn() *netsock.Conn {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn != nil && !u.conn.Connected() {
		u.conn = nil
	}
	return u.conn
}

// Connected reports whether a live connection is bound.
func (u *User) Connected() bool {
	return u.Conn() != nil
}

// Bind takes ownership of c, closing any connection bound before it.
func (u *User) Bind(c *netsock.Conn) {
	u.mu.Lock()
	prev := u.conn
	u.conn = c
	u.mu.Unlock()
	if prev != nil && prev != c {
		_ = prev.Close()
	}
}

// Close unbinds and closes the user's connection, if any.
func (u *User) Close() {
	u.mu.Lock()
	prev := u.conn
	u.conn = nil
	u.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
}
