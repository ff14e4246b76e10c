package replica

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryIdentify(t *testing.T) {
	reg := newRegistry()

	s := newSession(newPipe())
	reg.add(s)

	require.True(t, reg.has(s))
	require.Equal(t, RoleUnidentified, s.role)
	require.False(t, reg.hasPeer("ws://host-a:8080/v1/peer"))

	reg.identifyPeer(s, "ws://host-a:8080/v1/peer")

	require.Equal(t, RolePeer, s.role)
	require.True(t, reg.hasPeer("ws://host-a:8080/v1/peer"))

	// Re-identifying under a new url must release the old index entry.
	reg.identifyPeer(s, "ws://host-b:8080/v1/peer")

	require.False(t, reg.hasPeer("ws://host-a:8080/v1/peer"))
	require.True(t, reg.hasPeer("ws://host-b:8080/v1/peer"))
}

func TestRegistryRemove(t *testing.T) {
	reg := newRegistry()

	s := newSession(newPipe())
	reg.add(s)
	reg.identifyPeer(s, "ws://host-a:8080/v1/peer")

	reg.remove(s)

	require.False(t, reg.has(s))
	require.False(t, reg.hasPeer("ws://host-a:8080/v1/peer"))
	require.Equal(t, 0, reg.count())
}

func TestRegistryList(t *testing.T) {
	reg := newRegistry()

	observer := newSession(newPipe())
	reg.add(observer)
	reg.identifyObserver(observer)

	peer1 := newSession(newPipe())
	reg.add(peer1)
	reg.identifyPeer(peer1, "ws://host-a:8080/v1/peer")

	peer2 := newSession(newPipe())
	reg.add(peer2)
	reg.identifyPeer(peer2, "ws://host-b:8080/v1/peer")

	require.Len(t, reg.list(nil), 3, "an empty role set should match everything")
	require.Len(t, reg.list(peer1), 2, "the except session should be skipped")

	peers := reg.list(nil, RolePeer)
	require.Len(t, peers, 2)
	for _, s := range peers {
		require.Equal(t, RolePeer, s.role)
	}

	require.Len(t, reg.list(nil, RoleObserver), 1)
}
