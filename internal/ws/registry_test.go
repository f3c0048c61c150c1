package ws

import (
	"sync"
	"testing"

	"zanzar-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id string

	mu     sync.Mutex
	sent   [][]byte
	failed bool
	closed bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed {
		return ErrConnClosed
	}
	c.sent = append(c.sent, payload)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func newTestRegistry(maxPerProfile int) *Registry {
	return NewRegistry(maxPerProfile, logger.NewNop())
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	r := newTestRegistry(4)
	profileID := uuid.New()
	conn := newFakeConn("c1")

	r.Register(profileID, conn)

	require.Len(t, r.Connections(profileID), 1)
	require.Equal(t, 1, r.ConnectionCount())

	owner, ok := r.ResolveProfile("c1")
	require.True(t, ok)
	require.Equal(t, profileID, owner)
}

func TestRegistry_MultipleConnectionsPerProfile(t *testing.T) {
	r := newTestRegistry(4)
	profileID := uuid.New()

	r.Register(profileID, newFakeConn("c1"))
	r.Register(profileID, newFakeConn("c2"))
	r.Register(profileID, newFakeConn("c3"))

	require.Len(t, r.Connections(profileID), 3)
	require.Equal(t, 3, r.ConnectionCount())
}

func TestRegistry_DeregisterRemovesEmptyEntry(t *testing.T) {
	r := newTestRegistry(4)
	profileID := uuid.New()
	conn := newFakeConn("c1")

	r.Register(profileID, conn)
	r.Deregister(profileID, conn)

	require.Empty(t, r.Connections(profileID))
	require.Equal(t, 0, r.ConnectionCount())

	_, ok := r.ResolveProfile("c1")
	require.False(t, ok)
}

func TestRegistry_DeregisterKeepsOtherConnections(t *testing.T) {
	r := newTestRegistry(4)
	profileID := uuid.New()
	c1 := newFakeConn("c1")
	c2 := newFakeConn("c2")

	r.Register(profileID, c1)
	r.Register(profileID, c2)
	r.Deregister(profileID, c1)

	conns := r.Connections(profileID)
	require.Len(t, conns, 1)
	require.Equal(t, "c2", conns[0].ID())
}

func TestRegistry_DeregisterConnByReverseLookup(t *testing.T) {
	r := newTestRegistry(4)
	profileID := uuid.New()
	conn := newFakeConn("c1")

	r.Register(profileID, conn)
	r.DeregisterConn(conn)

	require.Empty(t, r.Connections(profileID))
	require.Equal(t, 0, r.ConnectionCount())
}

func TestRegistry_DeregisterUnknownConnIsNoop(t *testing.T) {
	r := newTestRegistry(4)
	r.DeregisterConn(newFakeConn("ghost"))
	require.Equal(t, 0, r.ConnectionCount())
}

func TestRegistry_CapEvictsOldest(t *testing.T) {
	r := newTestRegistry(2)
	profileID := uuid.New()
	c1 := newFakeConn("c1")
	c2 := newFakeConn("c2")
	c3 := newFakeConn("c3")

	r.Register(profileID, c1)
	r.Register(profileID, c2)
	r.Register(profileID, c3)

	conns := r.Connections(profileID)
	require.Len(t, conns, 2)
	require.Equal(t, "c2", conns[0].ID())
	require.Equal(t, "c3", conns[1].ID())
	require.True(t, c1.isClosed())

	_, ok := r.ResolveProfile("c1")
	require.False(t, ok)
}

func TestRegistry_Rooms(t *testing.T) {
	r := newTestRegistry(4)
	profileID := uuid.New()
	c1 := newFakeConn("c1")
	c2 := newFakeConn("c2")

	r.Register(profileID, c1)
	r.Register(uuid.New(), c2)

	r.JoinRoom("chat:abc", c1)
	r.JoinRoom("chat:abc", c2)
	require.Len(t, r.RoomConnections("chat:abc"), 2)

	r.LeaveRoom("chat:abc", c1)
	require.Len(t, r.RoomConnections("chat:abc"), 1)

	r.LeaveRoom("chat:abc", c2)
	require.Empty(t, r.RoomConnections("chat:abc"))
}

func TestRegistry_DeregisterLeavesRooms(t *testing.T) {
	r := newTestRegistry(4)
	profileID := uuid.New()
	conn := newFakeConn("c1")

	r.Register(profileID, conn)
	r.JoinRoom("chat:abc", conn)
	r.Deregister(profileID, conn)

	require.Empty(t, r.RoomConnections("chat:abc"))
}

func TestRegistry_EvictionLeavesRooms(t *testing.T) {
	r := newTestRegistry(1)
	profileID := uuid.New()
	c1 := newFakeConn("c1")
	c2 := newFakeConn("c2")

	r.Register(profileID, c1)
	r.JoinRoom("chat:abc", c1)
	r.Register(profileID, c2)

	require.Empty(t, r.RoomConnections("chat:abc"))
}
