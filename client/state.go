package main

// ClientState is the per-process client context. It is created in main and
// passed explicitly; nothing here is package-level.
type ClientState struct {
	Username     string
	ShareDir     string // directory served to peers and receiving downloads
	TransferPort int    // ephemeral port advertised at AUTH time
	Tracker      *TrackerConn
}
