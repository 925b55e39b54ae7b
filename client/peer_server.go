package main

import (
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"

	"bittrickle/common"

	"go.uber.org/zap"
)

const transferChunkSize = 4096

// StartPeerServer binds the transfer listener to an ephemeral port and
// starts accepting. The returned port is what AUTH advertises to the
// tracker as transfer_port.
func StartPeerServer(shareDir string, log *zap.SugaredLogger) (net.Listener, int, error) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		return nil, 0, err
	}
	port := ln.Addr().(*net.TCPAddr).Port
	log.Infow("transfer listener started", "port", port, "dir", shareDir)

	go acceptTransfers(ln, shareDir, log)
	return ln, port, nil
}

func acceptTransfers(ln net.Listener, shareDir string, log *zap.SugaredLogger) {
	for {
		conn, err := ln.Accept()
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			log.Warnw("accept error", "err", err)
			continue
		}
		go serveTransfer(conn, shareDir, log)
	}
}

// serveTransfer serves exactly one file per connection: one framed request
// record in, raw file bytes out until EOF, then close. A malformed request
// or unreadable file closes the connection without sending anything.
func serveTransfer(conn net.Conn, shareDir string, log *zap.SugaredLogger) {
	defer conn.Close()

	req, err := common.Recv(conn)
	if err != nil || req.Type != common.TypeFileRequest || req.Filename == "" {
		return
	}

	// Requests are confined to the share directory.
	name := filepath.Base(req.Filename)
	f, err := os.Open(filepath.Join(shareDir, name))
	if err != nil {
		log.Infow("transfer refused", "filename", name, "from", conn.RemoteAddr().String())
		return
	}
	defer f.Close()

	n, err := io.CopyBuffer(conn, f, make([]byte, transferChunkSize))
	if err != nil {
		log.Warnw("transfer aborted", "filename", name, "sent", n, "err", err)
		return
	}
	log.Infow("file served", "filename", name, "bytes", n, "to", conn.RemoteAddr().String())
}
