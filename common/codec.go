package common

import "encoding/json"

// Request types carried on the tracker control channel.
const (
	TypeAuth      = "AUTH"
	TypeHeartbeat = "HEARTBEAT"
	TypeListPeers = "LAP"
	TypeListFiles = "LPF"
	TypePublish   = "PUB"
	TypeUnpublish = "UNP"
	TypeSearch    = "SCH"
	TypeGet       = "GET"

	// TypeFileRequest is the single request record on the peer transfer channel.
	TypeFileRequest = "FILE_REQUEST"
)

const (
	StatusOK   = "OK"
	StatusFail = "FAIL"
)

// Message is the flat wire record used for every protocol exchange. Each
// message type populates a subset of the fields; omitempty keeps the encoded
// form down to exactly the keys the original protocol put on the wire.
type Message struct {
	Type         string   `json:"type,omitempty"`
	Username     string   `json:"username,omitempty"`
	Password     string   `json:"password,omitempty"`
	TransferPort int      `json:"transfer_port,omitempty"`
	Filename     string   `json:"filename,omitempty"`
	Substring    string   `json:"substring,omitempty"`
	Status       string   `json:"status,omitempty"`
	Reason       string   `json:"reason,omitempty"`
	Message      string   `json:"message,omitempty"`
	Peers        []string `json:"peers,omitempty"`
	Files        []string `json:"files,omitempty"`
	PeerUsername string   `json:"peer_username,omitempty"`
	PeerIP       string   `json:"peer_ip,omitempty"`
	PeerTCPPort  int      `json:"peer_tcp_port,omitempty"`
}

// ResponseType returns the response type echoed for a request type,
// e.g. AUTH -> AUTH_RESPONSE.
func ResponseType(reqType string) string {
	return reqType + "_RESPONSE"
}

// Encode serializes a message into one datagram-sized JSON payload.
func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// Decode is the inverse of Encode. Malformed input yields the zero Message;
// callers detect the degenerate case by an empty Type rather than an error.
func Decode(data []byte) Message {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}
	}
	return m
}
