package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conn(id string) *Client { return &Client{ID: id} }

func TestJoinReturnsMembersInJoinOrder(t *testing.T) {
	reg := NewRegistry()

	reg.Join("R", conn("a"), "alice")
	reg.Join("R", conn("b"), "bob")
	snap := reg.Join("R", conn("c"), "carol")

	require.Len(t, snap, 3)
	assert.Equal(t, []MemberInfo{
		{ConnectionID: "a", DisplayName: "alice"},
		{ConnectionID: "b", DisplayName: "bob"},
		{ConnectionID: "c", DisplayName: "carol"},
	}, snap)
	assert.Equal(t, snap, reg.Members("R"))
}

func TestRejoinSameRoomIsNoop(t *testing.T) {
	reg := NewRegistry()
	a := conn("a")

	reg.Join("R", a, "alice")
	snap := reg.Join("R", a, "alice")

	require.Len(t, snap, 1)
	assert.Equal(t, "a", snap[0].ConnectionID)
}

func TestConnectionIsInAtMostOneRoom(t *testing.T) {
	reg := NewRegistry()
	a := conn("a")

	reg.Join("R1", a, "alice")
	reg.Join("R2", a, "alice")

	assert.Nil(t, reg.Members("R1"), "old room must be gone once its only member moved")
	require.Len(t, reg.Members("R2"), 1)

	roomID, ok := reg.Room("a")
	require.True(t, ok)
	assert.Equal(t, "R2", roomID)
}

func TestLeaveReturnsRoomAndRemaining(t *testing.T) {
	reg := NewRegistry()
	reg.Join("R", conn("a"), "alice")
	reg.Join("R", conn("b"), "bob")

	roomID, remaining, ok := reg.Leave("a")

	require.True(t, ok)
	assert.Equal(t, "R", roomID)
	require.Len(t, remaining, 1)
	assert.Equal(t, "b", remaining[0].ConnectionID)
}

func TestLeaveIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	reg.Join("R", conn("a"), "alice")

	_, _, ok := reg.Leave("a")
	require.True(t, ok)

	_, _, ok = reg.Leave("a")
	assert.False(t, ok, "second leave must be a no-op")

	_, _, ok = reg.Leave("never-joined")
	assert.False(t, ok)
}

func TestEmptyRoomIsDeleted(t *testing.T) {
	reg := NewRegistry()
	reg.Join("R", conn("a"), "alice")
	reg.Join("R", conn("b"), "bob")

	reg.Leave("a")
	reg.Leave("b")

	assert.Nil(t, reg.Members("R"))
	reg.mu.RLock()
	_, exists := reg.rooms["R"]
	reg.mu.RUnlock()
	assert.False(t, exists, "a room with zero members must be absent from the registry")
}

func TestRejoinAfterLastLeaveCreatesFreshRoom(t *testing.T) {
	reg := NewRegistry()
	reg.Join("R", conn("a"), "alice")
	reg.Join("R", conn("b"), "bob")
	reg.Leave("a")
	reg.Leave("b")

	snap := reg.Join("R", conn("c"), "carol")

	require.Len(t, snap, 1)
	assert.Equal(t, "c", snap[0].ConnectionID)
}

func TestBroadcastSkipsExcludedAndKeepsOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Join("R", conn("a"), "alice")
	reg.Join("R", conn("b"), "bob")
	reg.Join("R", conn("c"), "carol")

	var got []string
	reg.Broadcast("R", "b", func(c *Client) { got = append(got, c.ID) })
	assert.Equal(t, []string{"a", "c"}, got)

	got = nil
	reg.Broadcast("R", "", func(c *Client) { got = append(got, c.ID) })
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestBroadcastToUnknownRoomIsNoop(t *testing.T) {
	reg := NewRegistry()
	called := false
	reg.Broadcast("nope", "", func(*Client) { called = true })
	assert.False(t, called)
}

func TestMembersSnapshotIsACopy(t *testing.T) {
	reg := NewRegistry()
	reg.Join("R", conn("a"), "alice")

	snap := reg.Members("R")
	snap[0].DisplayName = "mallory"

	assert.Equal(t, "alice", reg.Members("R")[0].DisplayName)
}
