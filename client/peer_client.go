package main

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"bittrickle/common"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DownloadFile pulls one file from the holder a GET response named and
// writes it into destDir, truncating any existing copy. The stream carries
// no length header or checksum, so a peer disconnecting mid-transfer yields
// a silently truncated file; all this layer can report is the byte count.
func DownloadFile(peerIP string, peerPort int, filename, destDir string, log *zap.SugaredLogger) error {
	addr := net.JoinHostPort(peerIP, strconv.Itoa(peerPort))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "connect to peer %s", addr)
	}
	defer conn.Close()

	if err := common.Send(conn, common.Message{Type: common.TypeFileRequest, Filename: filename}); err != nil {
		return errors.Wrap(err, "send file request")
	}

	out, err := os.Create(filepath.Join(destDir, filepath.Base(filename)))
	if err != nil {
		return errors.Wrap(err, "create local file")
	}
	defer out.Close()

	n, err := io.CopyBuffer(out, conn, make([]byte, transferChunkSize))
	if err != nil {
		return errors.Wrapf(err, "stream from peer %s", addr)
	}

	log.Infow("download complete", "filename", filename, "peer", addr,
		"received", humanize.Bytes(uint64(n)))
	return nil
}
