package main

import (
	"time"

	"bittrickle/common"

	"go.uber.org/zap"
)

const heartbeatInterval = 2 * time.Second

// RunHeartbeat keeps the tracker session alive until stop closes. The
// tracker never answers heartbeats, so this goroutine only writes.
func RunHeartbeat(t *TrackerConn, username string, stop <-chan struct{}, log *zap.SugaredLogger) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := t.Send(common.Message{Type: common.TypeHeartbeat, Username: username}); err != nil {
				log.Warnw("heartbeat send failed", "err", err)
			}
		}
	}
}
