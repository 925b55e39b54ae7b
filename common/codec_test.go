package common

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── record codec ──────────────────────────────────────────────────────────────

// TestCodec_RoundTrip covers every field shape the protocol uses: strings,
// an integer port, and string lists.
func TestCodec_RoundTrip(t *testing.T) {
	records := []Message{
		{Type: TypeAuth, Username: "alice", Password: "secret", TransferPort: 54321},
		{Type: TypeHeartbeat, Username: "alice"},
		{Type: TypeSearch, Username: "bob", Substring: "notes"},
		{Type: ResponseType(TypeListPeers), Status: StatusOK, Peers: []string{"alice", "bob"}},
		{Type: ResponseType(TypeSearch), Status: StatusOK, Files: []string{"notes.txt", "todo.txt"}},
		{Type: ResponseType(TypeAuth), Status: StatusFail, Reason: "Incorrect password."},
		{Type: ResponseType(TypeGet), Status: StatusOK, PeerUsername: "alice", PeerIP: "127.0.0.1", PeerTCPPort: 4567},
		{Type: TypeFileRequest, Filename: "notes.txt"},
	}

	for _, rec := range records {
		data, err := Encode(rec)
		require.NoError(t, err)
		assert.Equal(t, rec, Decode(data))
	}
}

// TestCodec_GarbageDecodesToEmpty verifies the degenerate-case contract:
// malformed input yields the zero record, never a panic or error.
func TestCodec_GarbageDecodesToEmpty(t *testing.T) {
	inputs := [][]byte{
		nil,
		{},
		[]byte("not json at all"),
		[]byte("{\"type\":"),
		[]byte("[1,2,3]"),
		[]byte("\"just a string\""),
		{0xff, 0x00, 0xfe, 0x01},
	}
	for _, input := range inputs {
		assert.Equal(t, Message{}, Decode(input))
	}
}

// TestCodec_ForeignKeysIgnored: unknown keys on an otherwise valid record
// must not disturb decoding (the record is open-ended on the wire).
func TestCodec_ForeignKeysIgnored(t *testing.T) {
	m := Decode([]byte(`{"type":"AUTH","username":"alice","future_field":42}`))
	assert.Equal(t, TypeAuth, m.Type)
	assert.Equal(t, "alice", m.Username)
}

func TestResponseType(t *testing.T) {
	assert.Equal(t, "AUTH_RESPONSE", ResponseType(TypeAuth))
	assert.Equal(t, "GET_RESPONSE", ResponseType(TypeGet))
}

// ── stream framing ────────────────────────────────────────────────────────────

func TestFraming_SendRecv(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	want := Message{Type: TypeFileRequest, Filename: "notes.txt"}
	go func() {
		_ = Send(client, want)
	}()

	got, err := Recv(server)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFraming_RejectsOversizedFrame(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		// Length prefix far beyond MaxFrameSize.
		client.Write([]byte{0xff, 0xff, 0xff, 0xff})
	}()

	_, err := Recv(server)
	require.Error(t, err)
}

func TestFraming_MalformedPayloadDecodesToEmpty(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		payload := []byte("garbage")
		client.Write([]byte{0, 0, 0, byte(len(payload))})
		client.Write(payload)
	}()

	got, err := Recv(server)
	require.NoError(t, err)
	assert.Equal(t, Message{}, got)
}
