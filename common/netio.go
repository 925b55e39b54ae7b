package common

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/pkg/errors"
)

// MaxFrameSize bounds the request record read on the peer transfer channel.
// File bytes themselves are never framed.
const MaxFrameSize = 64 * 1024

// Send writes one length-prefixed message frame to a stream connection.
func Send(conn net.Conn, m Message) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	if _, err = conn.Write(length); err != nil {
		return err
	}

	_, err = conn.Write(data)
	return err
}

// Recv reads one length-prefixed frame and decodes it. A frame carrying
// malformed JSON decodes to the zero Message, same as the datagram path.
func Recv(conn net.Conn) (Message, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(conn, lenBuf); err != nil {
		return Message{}, err
	}

	n := binary.BigEndian.Uint32(lenBuf)
	if n > MaxFrameSize {
		return Message{}, errors.Errorf("frame too large: %d bytes", n)
	}

	data := make([]byte, n)
	if _, err := io.ReadFull(conn, data); err != nil {
		return Message{}, err
	}

	return Decode(data), nil
}
