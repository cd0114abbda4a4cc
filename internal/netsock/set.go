package netsock

import "time"

// Member is a socket that can be placed in a readiness Set (*Conn or *Listener).
type Member interface {
	attach(w chan struct{})
	detach(w chan struct{})
	ready() bool
}

// Set is a readiness set: a group of sockets waited on together for read
// activity. It is not safe for concurrent use.
type Set struct {
	members []Member
	active  map[Member]struct{}
}

// NewSet returns an empty readiness set.
func NewSet() *Set {
	return &Set{active: make(map[Member]struct{})}
}

// Clear removes every member and forgets previous activity.
func (s *Set) Clear() {
	s.members = s.members[:0]
	s.active = make(map[Member]struct{})
}

// Include adds m to the set. Including a member twice is a no-op.
func (s *Set) Include(m Member) error {
	if m == nil {
		return ErrClosed
	}
	for _, x := range s.members {
		if x == m {
			return nil
		}
	}
	s.members = append(s.members, m)
	return nil
}

// Exclude removes m from the set.
func (s *Set) Exclude(m Member) error {
	for i, x := range s.members {
		if x == m {
			s.members = append(s.members[:i], s.members[i+1:]...)
			delete(s.active, m)
			return nil
		}
	}
	return ErrNotMember
}

// Len returns the number of members.
func (s *Set) Len() int { return len(s.members) }

// WaitRead blocks until at least one member has read activity (pending
// input, a pending connection, a peer shutdown or a local close), or the
// timeout elapses (negative waits forever). It returns nil on activity,
// ErrTimeout on timeout and ErrEmptySet when there is nothing to wait on.
func (s *Set) WaitRead(timeout time.Duration) error {
	s.active = make(map[Member]struct{})
	if len(s.members) == 0 {
		return ErrEmptySet
	}

	wake := make(chan struct{}, 1)
	for _, m := range s.members {
		m.attach(wake)
	}
	defer func() {
		for _, m := range s.members {
			m.detach(wake)
		}
	}()

	var deadline <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}

	for {
		if s.collect() {
			return nil
		}
		select {
		case <-wake:
		case <-deadline:
			if s.collect() {
				return nil
			}
			return ErrTimeout
		}
	}
}

func (s *Set) collect() bool {
	for _, m := range s.members {
		if m.ready() {
			s.active[m] = struct{}{}
		}
	}
	return len(s.active) > 0
}

// HadActivity reports whether m showed activity during the last WaitRead.
func (s *Set) HadActivity(m Member) bool {
	_, ok := s.active[m]
	return ok
}
