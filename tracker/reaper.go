package main

import "time"

// RunReaper evicts stale sessions every interval until Close. It is the
// only caller of EvictStale. Eviction only affects liveness: an evicted
// user's catalog entries survive and become visible again on the next
// successful AUTH.
func (s *Server) RunReaper(interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			for _, username := range s.reg.EvictStale(now, timeout) {
				s.log.Infow("user removed due to inactivity", "username", username)
			}
		}
	}
}
