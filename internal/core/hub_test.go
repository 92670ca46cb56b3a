package core

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/linechat/internal/proto"
)

func TestRoomAddRemoveIdempotent(t *testing.T) {
	room := NewRoom("general")
	alice := newTestUser("alice")

	assert.True(t, room.AddMember(alice))
	assert.False(t, room.AddMember(alice))
	assert.Equal(t, 1, room.Len())

	assert.True(t, room.RemoveMember(alice))
	assert.False(t, room.RemoveMember(alice))
	assert.True(t, room.Empty())
}

func TestRoomBroadcastFanOut(t *testing.T) {
	room := NewRoom("general")
	users := newTestUsers(5)
	for _, u := range users {
		room.AddMember(u)
	}
	gone := users[4]
	room.RemoveMember(gone)

	n, err := room.BroadcastMessage("bob", "hi")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	want := proto.Message{Tag: proto.TagDelivery, Data: "general:bob:hi"}
	for _, u := range users[:4] {
		assert.Equal(t, want, mustDequeue(t, u.Queue))
		assert.Equal(t, 0, u.Queue.Len(), "exactly one copy per member")
	}
	assert.Equal(t, 0, gone.Queue.Len())
}

func TestRoomBroadcastSkipsSenders(t *testing.T) {
	room := NewRoom("general")
	alice := newTestUser("alice")
	bob := NewUser("id-bob", "bob", RoleSender, nil)
	room.AddMember(alice)
	room.AddMember(bob)

	n, err := room.BroadcastMessage("bob", "hi")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, room.Len())
	assert.Equal(t, 1, alice.Queue.Len())
	assert.Equal(t, 0, bob.Queue.Len())
}

func TestHubJoinAckQueuedFirst(t *testing.T) {
	hub := NewHub()
	alice := newTestUser("alice")

	room := hub.JoinAck(alice, "general", proto.OK())
	_, err := room.BroadcastMessage("bob", "hi")
	require.NoError(t, err)

	assert.Equal(t, proto.OK(), mustDequeue(t, alice.Queue))
	assert.Equal(t, proto.TagDelivery, mustDequeue(t, alice.Queue).Tag)

	// Re-joining the current room still acknowledges.
	assert.Same(t, room, hub.JoinAck(alice, "general", proto.OK()))
	assert.Equal(t, proto.OK(), mustDequeue(t, alice.Queue))
	assert.Equal(t, 1, room.Len())
}

func TestRoomBroadcastCopiesAreIndependent(t *testing.T) {
	room := NewRoom("r")
	a, b := newTestUser("a"), newTestUser("b")
	room.AddMember(a)
	room.AddMember(b)

	_, err := room.BroadcastMessage("s", "text")
	require.NoError(t, err)

	// Consuming one member's copy leaves the other's untouched.
	got := mustDequeue(t, a.Queue)
	a.Queue.Shutdown()
	assert.Equal(t, got, mustDequeue(t, b.Queue))
}

func TestRoomBroadcastTooLong(t *testing.T) {
	room := NewRoom("general")
	alice := newTestUser("alice")
	room.AddMember(alice)

	_, err := room.BroadcastMessage("bob", strings.Repeat("x", proto.MaxLen))
	require.ErrorIs(t, err, proto.ErrFrameTooLong)
	assert.Equal(t, 0, alice.Queue.Len())
}

func TestRoomConcurrentMembership(t *testing.T) {
	room := NewRoom("busy")
	users := newTestUsers(200)

	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			room.AddMember(u)
			room.AddMember(u)
			if i%2 == 0 {
				room.RemoveMember(u)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, len(users)/2, room.Len())
	for i, u := range users {
		assert.Equal(t, i%2 == 1, room.HasMember(u), "user %d", i)
	}
}

func TestHubJoinCreatesRoomOnce(t *testing.T) {
	hub := NewHub()
	users := newTestUsers(50)

	rooms := make([]*Room, len(users))
	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rooms[i] = hub.Join(u, "lobby")
		}()
	}
	wg.Wait()

	for _, r := range rooms {
		assert.Same(t, rooms[0], r)
	}
	assert.Equal(t, []RoomInfo{{Name: "lobby", Members: len(users)}}, hub.Rooms())
}

func TestHubJoinReplacesMembership(t *testing.T) {
	hub := NewHub(WithEviction(false))
	alice := newTestUser("alice")

	a := hub.Join(alice, "a")
	b := hub.Join(alice, "b")

	assert.False(t, a.HasMember(alice))
	assert.True(t, b.HasMember(alice))
	assert.Same(t, b, alice.Room())

	// Re-joining the current room changes nothing.
	assert.Same(t, b, hub.Join(alice, "b"))
	assert.Equal(t, 1, b.Len())
}

func TestHubLeave(t *testing.T) {
	hub := NewHub(WithEviction(false))
	alice := newTestUser("alice")

	assert.Nil(t, hub.Leave(alice))

	room := hub.Join(alice, "general")
	assert.Same(t, room, hub.Leave(alice))
	assert.Nil(t, alice.Room())
	assert.False(t, room.HasMember(alice))

	_, ok := hub.Room("general")
	assert.True(t, ok, "room kept without eviction")
}

func TestHubEvictsEmptyRooms(t *testing.T) {
	hub := NewHub()
	alice, bob := newTestUser("alice"), newTestUser("bob")

	hub.Join(alice, "general")
	hub.Join(bob, "general")

	hub.Leave(alice)
	_, ok := hub.Room("general")
	assert.True(t, ok, "room with members must stay")

	hub.Join(bob, "other")
	_, ok = hub.Room("general")
	assert.False(t, ok, "empty room must be evicted")

	infos := hub.Rooms()
	require.Len(t, infos, 1)
	assert.Equal(t, "other", infos[0].Name)
}

func TestHubRejoinAfterEviction(t *testing.T) {
	hub := NewHub()
	alice := newTestUser("alice")

	first := hub.Join(alice, "general")
	hub.Leave(alice)
	second := hub.Join(alice, "general")

	assert.NotSame(t, first, second)
	got, ok := hub.Room("general")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, []string{"alice"}, second.MemberNames())
}
