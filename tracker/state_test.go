package main

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = map[string]string{
	"alice": "wonderland",
	"bob":   "builder",
	"carol": "xmas",
}

func testAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
}

func newTestRegistry(t *testing.T, active ...string) *Registry {
	t.Helper()
	reg := NewRegistry(testCreds)
	for i, username := range active {
		require.NoError(t, reg.Authenticate(username, testCreds[username], testAddr(40000+i), 50000+i))
	}
	return reg
}

// ── sessions ──────────────────────────────────────────────────────────────────

func TestAuthenticate_Success(t *testing.T) {
	reg := NewRegistry(testCreds)
	require.NoError(t, reg.Authenticate("alice", "wonderland", testAddr(40001), 50001))
	assert.True(t, reg.IsActive("alice"))
}

func TestAuthenticate_Failures(t *testing.T) {
	reg := newTestRegistry(t, "alice")

	assert.ErrorIs(t, reg.Authenticate("mallory", "x", testAddr(1), 2), ErrUnknownUser)
	assert.ErrorIs(t, reg.Authenticate("bob", "wrench", testAddr(1), 2), ErrBadPassword)
	// At most one live session per username.
	assert.ErrorIs(t, reg.Authenticate("alice", "wonderland", testAddr(1), 2), ErrAlreadyActive)
}

func TestAuthenticate_AfterEvictionSucceeds(t *testing.T) {
	reg := newTestRegistry(t, "alice")

	evicted := reg.EvictStale(time.Now().Add(time.Hour), time.Minute)
	assert.Equal(t, []string{"alice"}, evicted)
	require.NoError(t, reg.Authenticate("alice", "wonderland", testAddr(40002), 50002))
}

func TestTouch_UnknownUserIsNoop(t *testing.T) {
	reg := NewRegistry(testCreds)
	assert.False(t, reg.Touch("alice"))
	assert.False(t, reg.IsActive("alice"))
}

func TestActivePeers_ExcludesCaller(t *testing.T) {
	reg := newTestRegistry(t, "alice", "bob", "carol")

	assert.Equal(t, []string{"bob", "carol"}, reg.ActivePeers("alice"))
	assert.Equal(t, []string{"alice", "carol"}, reg.ActivePeers("bob"))
}

func TestEvictStale_RemovesOnlyStaleSessions(t *testing.T) {
	reg := newTestRegistry(t, "alice", "bob")

	// Refresh bob, then evict with a cutoff between the two activities.
	time.Sleep(20 * time.Millisecond)
	require.True(t, reg.Touch("bob"))

	evicted := reg.EvictStale(time.Now(), 15*time.Millisecond)
	assert.Equal(t, []string{"alice"}, evicted)
	assert.False(t, reg.IsActive("alice"))
	assert.Equal(t, []string{"bob"}, reg.ActivePeers("alice"))
}

// ── catalog ───────────────────────────────────────────────────────────────────

func TestPublish_Idempotent(t *testing.T) {
	reg := newTestRegistry(t, "alice")

	reg.Publish("alice", "notes.txt")
	reg.Publish("alice", "notes.txt")
	assert.Equal(t, []string{"notes.txt"}, reg.Published("alice"))
}

func TestUnpublish(t *testing.T) {
	reg := newTestRegistry(t, "alice")

	reg.Publish("alice", "notes.txt")
	require.NoError(t, reg.Unpublish("alice", "notes.txt"))
	assert.Empty(t, reg.Published("alice"))

	// Removing a never-published name fails.
	assert.ErrorIs(t, reg.Unpublish("alice", "notes.txt"), ErrNotPublished)
	assert.ErrorIs(t, reg.Unpublish("bob", "notes.txt"), ErrNotPublished)
}

func TestUnpublish_LastPublisherPrunesReverseIndex(t *testing.T) {
	reg := newTestRegistry(t, "alice", "bob")

	reg.Publish("alice", "notes.txt")
	reg.Publish("bob", "notes.txt")
	require.NoError(t, reg.Unpublish("alice", "notes.txt"))

	// Bob still holds it, so carol can still find it.
	_, ok := reg.FindActiveHolder("notes.txt", "carol")
	assert.True(t, ok)

	require.NoError(t, reg.Unpublish("bob", "notes.txt"))
	_, ok = reg.FindActiveHolder("notes.txt", "carol")
	assert.False(t, ok)
}

func TestSearch_ExcludesOwnFiles(t *testing.T) {
	reg := newTestRegistry(t, "alice", "bob")

	reg.Publish("alice", "notes.txt")
	reg.Publish("bob", "bob-notes.txt")

	assert.Equal(t, []string{"bob-notes.txt"}, reg.Search("notes", "alice"))
	assert.Equal(t, []string{"notes.txt"}, reg.Search("notes", "bob"))
	assert.Empty(t, reg.Search("zzz", "alice"))
}

func TestSearch_RequiresActivePublisher(t *testing.T) {
	reg := newTestRegistry(t, "alice", "bob")

	reg.Publish("alice", "notes.txt")
	assert.Equal(t, []string{"notes.txt"}, reg.Search("notes", "bob"))

	// Alice goes stale: her file stays in the catalog but drops out of
	// search results until she authenticates again.
	reg.EvictStale(time.Now().Add(time.Hour), time.Minute)
	assert.Empty(t, reg.Search("notes", "bob"))

	require.NoError(t, reg.Authenticate("alice", "wonderland", testAddr(40009), 50009))
	assert.Equal(t, []string{"notes.txt"}, reg.Search("notes", "bob"))
}

func TestFindActiveHolder(t *testing.T) {
	reg := newTestRegistry(t, "alice", "bob")

	reg.Publish("alice", "notes.txt")
	reg.Publish("bob", "notes.txt")

	// Deterministic tie-break: smallest active username.
	holder, ok := reg.FindActiveHolder("notes.txt", "carol")
	require.True(t, ok)
	assert.Equal(t, "alice", holder.Username)

	// The requester is never their own holder.
	holder, ok = reg.FindActiveHolder("notes.txt", "alice")
	require.True(t, ok)
	assert.Equal(t, "bob", holder.Username)

	_, ok = reg.FindActiveHolder("missing.txt", "carol")
	assert.False(t, ok)
}

func TestFindActiveHolder_SkipsInactivePublishers(t *testing.T) {
	reg := newTestRegistry(t, "alice")

	reg.Publish("alice", "notes.txt")
	reg.EvictStale(time.Now().Add(time.Hour), time.Minute)

	_, ok := reg.FindActiveHolder("notes.txt", "bob")
	assert.False(t, ok)
}

func TestSnapshot(t *testing.T) {
	reg := newTestRegistry(t, "alice", "bob")

	reg.Publish("alice", "b.txt")
	reg.Publish("alice", "a.txt")

	peers, catalog := reg.Snapshot()
	assert.Equal(t, []string{"alice", "bob"}, peers)
	assert.Equal(t, map[string][]string{"alice": {"a.txt", "b.txt"}}, catalog)
}
