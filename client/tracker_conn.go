package main

import (
	"net"
	"sync"
	"time"

	"bittrickle/common"

	"github.com/pkg/errors"
)

const requestTimeout = 5 * time.Second

// TrackerConn is the client's single UDP control channel to the tracker.
// Request/response cycles are serialized by a mutex; the heartbeat sender
// only writes and never competes for responses.
type TrackerConn struct {
	mu   sync.Mutex
	conn *net.UDPConn
}

func DialTracker(addr string) (*TrackerConn, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve tracker %s", addr)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial tracker %s", addr)
	}
	return &TrackerConn{conn: conn}, nil
}

// ErrNoResponse is surfaced when the tracker does not answer within the
// request deadline. Retrying is the caller's decision.
var ErrNoResponse = errors.New("no response from server")

// Request sends one message and waits for the matching response datagram
// with a fixed deadline. Responses are matched by type: a delayed answer to
// an earlier timed-out request of a different type is discarded, not
// returned. There is no hidden retry policy.
func (t *TrackerConn) Request(m common.Message) (common.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := common.Encode(m)
	if err != nil {
		return common.Message{}, err
	}
	if _, err := t.conn.Write(data); err != nil {
		return common.Message{}, errors.Wrap(err, "send to tracker")
	}

	if err := t.conn.SetReadDeadline(time.Now().Add(requestTimeout)); err != nil {
		return common.Message{}, err
	}
	want := common.ResponseType(m.Type)
	buf := make([]byte, 2048)
	for {
		n, err := t.conn.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return common.Message{}, ErrNoResponse
			}
			return common.Message{}, errors.Wrap(err, "read tracker response")
		}
		if resp := common.Decode(buf[:n]); resp.Type == want {
			return resp, nil
		}
		// Stale datagram for some other request type; keep waiting.
	}
}

// Send fires one message without expecting a response (heartbeats).
func (t *TrackerConn) Send(m common.Message) error {
	data, err := common.Encode(m)
	if err != nil {
		return err
	}
	_, err = t.conn.Write(data)
	return err
}

func (t *TrackerConn) Close() error {
	return t.conn.Close()
}
