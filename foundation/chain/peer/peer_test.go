package peer_test

import (
	"testing"

	"github.com/collablog/collablog/foundation/chain/peer"
	"github.com/stretchr/testify/require"
)

func TestUpsert(t *testing.T) {
	d := peer.NewDirectory()

	require.True(t, d.Upsert("ws://host-a:8080/v1/peer"), "first sighting should report a new peer")
	require.False(t, d.Upsert("ws://host-a:8080/v1/peer"), "second sighting should only refresh the record")
	require.Equal(t, 1, d.Count())

	require.True(t, d.Upsert("ws://host-b:8080/v1/peer"))
	require.Equal(t, 2, d.Count())
}

func TestURLs(t *testing.T) {
	d := peer.NewDirectory()

	d.Upsert("ws://host-c:8080/v1/peer")
	d.Upsert("ws://host-a:8080/v1/peer")
	d.Upsert("ws://host-b:8080/v1/peer")

	exp := []string{
		"ws://host-a:8080/v1/peer",
		"ws://host-b:8080/v1/peer",
		"ws://host-c:8080/v1/peer",
	}
	require.Equal(t, exp, d.URLs(), "urls should come back in a stable order")
}

func TestCopy(t *testing.T) {
	d := peer.NewDirectory()

	d.Upsert("ws://host-b:8080/v1/peer")
	d.Upsert("ws://host-a:8080/v1/peer")

	records := d.Copy()
	require.Len(t, records, 2)
	require.Equal(t, "ws://host-a:8080/v1/peer", records[0].URL)
	require.Equal(t, "ws://host-b:8080/v1/peer", records[1].URL)
	require.False(t, records[0].LastSeen.IsZero(), "records should carry a last-seen time")
}
