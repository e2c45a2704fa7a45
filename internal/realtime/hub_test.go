package realtime

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeFrames(t *testing.T, buf *bytes.Buffer) []Frame {
	t.Helper()

	var frames []Frame
	decoder := json.NewDecoder(buf)
	for decoder.More() {
		var frame Frame
		require.NoError(t, decoder.Decode(&frame))
		frames = append(frames, frame)
	}
	return frames
}

func TestHub_BroadcastReachesRoomOnly(t *testing.T) {
	hub := NewHub()

	var bufA, bufB, bufC bytes.Buffer
	sessionA := newSession(json.NewEncoder(&bufA))
	sessionB := newSession(json.NewEncoder(&bufB))
	sessionC := newSession(json.NewEncoder(&bufC))

	hub.Join("p1", sessionA)
	hub.Join("p1", sessionB)
	hub.Join("p2", sessionC)

	hub.Broadcast("p1", EventTaskDeleted, "t1")

	framesA := decodeFrames(t, &bufA)
	require.Len(t, framesA, 1)
	assert.Equal(t, EventTaskDeleted, framesA[0].Event)
	assert.Equal(t, `"t1"`, string(framesA[0].Payload))

	framesB := decodeFrames(t, &bufB)
	require.Len(t, framesB, 1)

	assert.Empty(t, decodeFrames(t, &bufC))
}

func TestHub_SessionCanJoinMultipleRooms(t *testing.T) {
	hub := NewHub()

	var buf bytes.Buffer
	session := newSession(json.NewEncoder(&buf))

	hub.Join("p1", session)
	hub.Join("p2", session)

	hub.Broadcast("p1", EventChatDeletedMessage, "m1")
	hub.Broadcast("p2", EventLinkDeletedLink, "l1")

	frames := decodeFrames(t, &buf)
	require.Len(t, frames, 2)
	assert.Equal(t, EventChatDeletedMessage, frames[0].Event)
	assert.Equal(t, EventLinkDeletedLink, frames[1].Event)
}

func TestHub_RemoveSession(t *testing.T) {
	hub := NewHub()

	var bufA, bufB bytes.Buffer
	sessionA := newSession(json.NewEncoder(&bufA))
	sessionB := newSession(json.NewEncoder(&bufB))

	hub.Join("p1", sessionA)
	hub.Join("p2", sessionA)
	hub.Join("p1", sessionB)

	hub.RemoveSession(sessionA)

	hub.Broadcast("p1", EventTaskDeleted, "t1")
	hub.Broadcast("p2", EventTaskDeleted, "t2")

	assert.Empty(t, decodeFrames(t, &bufA))
	assert.Len(t, decodeFrames(t, &bufB), 1)

	hub.mu.Lock()
	_, stillThere := hub.rooms["p2"]
	hub.mu.Unlock()
	assert.False(t, stillThere, "empty rooms should be pruned")
}
