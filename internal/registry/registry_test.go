package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"tank_supervisor/internal/models"
	"tank_supervisor/internal/netsock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestRegistry(opts ...Option) *Registry {
	return New(append([]Option{WithHashCost(bcrypt.MinCost)}, opts...)...)
}

// storeStub is an in-memory Store.
type storeStub struct {
	recs      []models.UserRecord
	createErr error
	deleteErr error
	deleted   []string
}

func (s *storeStub) List() ([]models.UserRecord, error) { return s.recs, nil }

func (s *storeStub) Create(login, hash string, isAdmin bool) (int, error) {
	if s.createErr != nil {
		return 0, s.createErr
	}
	s.recs = append(s.recs, models.UserRecord{ID: len(s.recs) + 1, Login: login, PasswordHash: hash, IsAdmin: isAdmin})
	return len(s.recs), nil
}

func (s *storeStub) Delete(login string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, login)
	return nil
}

func connPair(t *testing.T) (*netsock.Conn, *netsock.Conn) {
	t.Helper()
	l, err := netsock.Listen("127.0.0.1:0", 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	cli, err := netsock.Dial(context.Background(), l.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cli.Close() })
	srv, err := l.Accept(2 * time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return cli, srv
}

func TestAdd_LengthBoundsAndUniqueness(t *testing.T) {
	cases := []struct {
		login, password string
		want            bool
	}{
		{"abcdef", "123456", true},
		{"abcdefghijkl", "123456789012", true},
		{"abcde", "123456", false},
		{"abcdefghijklm", "123456", false},
		{"abcdef", "12345", false},
		{"abcdef", "1234567890123", false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d/%d", len(tc.login), len(tc.password)), func(t *testing.T) {
			r := newTestRegistry()
			assert.Equal(t, tc.want, r.Add(tc.login, tc.password, false))
		})
	}
}

func TestAdd_EachLoginOnce(t *testing.T) {
	r := newTestRegistry()
	for n := MinFieldLen; n <= MaxFieldLen; n++ {
		login := strings.Repeat("u", n)
		require.True(t, r.Add(login, strings.Repeat("p", n), n%2 == 0))
		before := r.ListAll()
		require.False(t, r.Add(login, "another1", true), "second add of %q", login)
		require.Equal(t, before, r.ListAll())
	}
	assert.Len(t, r.ListAll(), MaxFieldLen-MinFieldLen+1)
}

func TestRemoveAndFind(t *testing.T) {
	r := newTestRegistry()
	require.True(t, r.Add("operator", "secret1", true))
	require.True(t, r.Add("viewer01", "secret2", false))

	u, ok := r.Find("operator")
	require.True(t, ok)
	assert.True(t, u.IsAdmin())
	assert.Equal(t, "operator", u.Login())

	assert.False(t, r.Remove("missing1"))
	assert.True(t, r.Remove("operator"))
	_, ok = r.Find("operator")
	assert.False(t, ok)

	list := r.ListAll()
	require.Len(t, list, 1)
	assert.Equal(t, models.UserInfo{Login: "viewer01", IsAdmin: false, Connected: false}, list[0])
}

func TestListAll_KeepsInsertionOrder(t *testing.T) {
	r := newTestRegistry()
	for _, l := range []string{"charlie1", "alpha001", "bravo001"} {
		require.True(t, r.Add(l, "password", false))
	}
	var got []string
	for _, u := range r.ListAll() {
		got = append(got, u.Login)
	}
	assert.Equal(t, []string{"charlie1", "alpha001", "bravo001"}, got)
}

func TestAuthenticate(t *testing.T) {
	r := newTestRegistry()
	require.True(t, r.Add("operator", "secret1", true))

	_, err := r.Authenticate("short", "secret1")
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = r.Authenticate("nobody01", "secret1")
	assert.ErrorIs(t, err, ErrUnknownUser)

	_, err = r.Authenticate("operator", "wrong123")
	assert.ErrorIs(t, err, ErrBadPassword)

	u, err := r.Authenticate("operator", "secret1")
	require.NoError(t, err)

	_, srv := connPair(t)
	u.Bind(srv)
	_, err = r.Authenticate("operator", "secret1")
	assert.ErrorIs(t, err, ErrAlreadyConnected)
	assert.True(t, r.ListAll()[0].Connected)

	// Admin surfaces do not care about the session.
	_, err = r.VerifyAdmin("operator", "secret1")
	assert.NoError(t, err)
}

func TestBind_ReleasesPreviousConnection(t *testing.T) {
	r := newTestRegistry()
	require.True(t, r.Add("operator", "secret1", true))
	u, _ := r.Find("operator")

	_, first := connPair(t)
	_, second := connPair(t)

	u.Bind(first)
	assert.Same(t, first, u.Conn())

	u.Bind(second)
	assert.False(t, first.Connected(), "previous binding must be closed")
	assert.Same(t, second, u.Conn())

	u.Close()
	assert.False(t, second.Connected())
	assert.Nil(t, u.Conn())
	assert.False(t, u.Connected())
}

func TestConn_DropsLocallyClosedBinding(t *testing.T) {
	r := newTestRegistry()
	require.True(t, r.Add("operator", "secret1", true))
	u, _ := r.Find("operator")

	_, srv := connPair(t)
	u.Bind(srv)
	require.NoError(t, srv.Close())
	assert.False(t, u.Connected())
}

func TestRemove_ClosesConnection(t *testing.T) {
	r := newTestRegistry()
	require.True(t, r.Add("operator", "secret1", true))
	u, _ := r.Find("operator")
	_, srv := connPair(t)
	u.Bind(srv)

	require.True(t, r.Remove("operator"))
	assert.False(t, srv.Connected())
}

func TestBindIfPresent(t *testing.T) {
	r := newTestRegistry()
	require.True(t, r.Add("operator", "secret1", true))
	u, err := r.Authenticate("operator", "secret1")
	require.NoError(t, err)

	t.Run("removed after authentication", func(t *testing.T) {
		require.True(t, r.Remove("operator"))
		_, srv := connPair(t)

		assert.False(t, r.BindIfPresent(u, srv))
		assert.Nil(t, u.Conn())
		assert.True(t, srv.Connected(), "caller owns an unbound connection")
	})

	t.Run("re-added under the same login", func(t *testing.T) {
		require.True(t, r.Add("operator", "secret1", true))
		_, srv := connPair(t)

		assert.False(t, r.BindIfPresent(u, srv), "stale user value must not bind")
		fresh, _ := r.Find("operator")
		assert.False(t, fresh.Connected())
	})

	t.Run("still registered", func(t *testing.T) {
		fresh, err := r.Authenticate("operator", "secret1")
		require.NoError(t, err)
		_, srv := connPair(t)

		require.True(t, r.BindIfPresent(fresh, srv))
		assert.Same(t, srv, fresh.Conn())
	})
}

func TestStore_WriteThroughAndLoad(t *testing.T) {
	st := &storeStub{}
	r := newTestRegistry(WithStore(st))
	require.True(t, r.Add("operator", "secret1", true))
	require.Len(t, st.recs, 1)
	assert.NotEqual(t, "secret1", st.recs[0].PasswordHash)

	require.True(t, r.Remove("operator"))
	assert.Equal(t, []string{"operator"}, st.deleted)

	// A fresh registry over the same records authenticates with the stored hash.
	fresh := newTestRegistry(WithStore(st))
	require.NoError(t, fresh.Load())
	_, err := fresh.Authenticate("operator", "secret1")
	assert.NoError(t, err)
}

func TestStore_FailureLeavesRegistryUnchanged(t *testing.T) {
	st := &storeStub{createErr: errors.New("db down")}
	r := newTestRegistry(WithStore(st))
	assert.False(t, r.Add("operator", "secret1", true))
	assert.Empty(t, r.ListAll())

	st.createErr = nil
	require.True(t, r.Add("operator", "secret1", true))
	st.deleteErr = errors.New("db down")
	assert.False(t, r.Remove("operator"))
	assert.Len(t, r.ListAll(), 1)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	r := newTestRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			login := fmt.Sprintf("user%04d", i)
			r.Add(login, "password", i%2 == 0)
			_ = r.ListAll()
			_, _ = r.Find(login)
			for _, u := range r.Users() {
				_ = u.Connected()
			}
			if i%3 == 0 {
				r.Remove(login)
			}
		}(i)
	}
	wg.Wait()
	assert.Len(t, r.ListAll(), 5)
}
