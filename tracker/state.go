package main

import (
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Failures surfaced to clients verbatim as FAIL reasons.
var (
	ErrUnknownUser   = errors.New("Username not found.")
	ErrBadPassword   = errors.New("Incorrect password.")
	ErrAlreadyActive = errors.New("User already active.")
	ErrNotPublished  = errors.New("File not found.")
)

// Session records one currently-authenticated user.
type Session struct {
	Username     string
	Addr         *net.UDPAddr
	TransferPort int
	LastActive   time.Time
}

// Registry owns all shared tracker state: the credential table, the active
// sessions, and the published-file catalog with its reverse index. One mutex
// covers everything, so a catalog read always sees liveness and publication
// state from the same instant. No other component touches these maps.
type Registry struct {
	mu        sync.Mutex
	creds     map[string]string
	sessions  map[string]*Session
	published map[string]map[string]struct{} // username -> filenames
	holders   map[string]map[string]struct{} // filename -> usernames
}

func NewRegistry(creds map[string]string) *Registry {
	return &Registry{
		creds:     creds,
		sessions:  make(map[string]*Session),
		published: make(map[string]map[string]struct{}),
		holders:   make(map[string]map[string]struct{}),
	}
}

// Authenticate validates credentials and creates a session. A username with
// a live session cannot re-authenticate until the reaper evicts it: at most
// one session per username exists at any instant.
func (r *Registry) Authenticate(username, password string, addr *net.UDPAddr, transferPort int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.creds[username]
	if !ok {
		return ErrUnknownUser
	}
	if stored != password {
		return ErrBadPassword
	}
	if _, active := r.sessions[username]; active {
		return ErrAlreadyActive
	}

	r.sessions[username] = &Session{
		Username:     username,
		Addr:         addr,
		TransferPort: transferPort,
		LastActive:   time.Now(),
	}
	return nil
}

// Touch refreshes a session's last-activity timestamp. Unknown or expired
// usernames are silently ignored; a heartbeat is a liveness signal, not an
// error channel. Returns whether the session was live.
func (r *Registry) Touch(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[username]
	if !ok {
		return false
	}
	s.LastActive = time.Now()
	return true
}

func (r *Registry) IsActive(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.sessions[username]
	return ok
}

// ActivePeers returns every active username except the excluded one, sorted.
func (r *Registry) ActivePeers(excluding string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	peers := make([]string, 0, len(r.sessions))
	for username := range r.sessions {
		if username != excluding {
			peers = append(peers, username)
		}
	}
	sort.Strings(peers)
	return peers
}

// EvictStale removes and returns every session whose last activity is older
// than the timeout. Catalog entries are left alone: an evicted user's files
// stay published but become invisible to search and get until the user
// authenticates again.
func (r *Registry) EvictStale(now time.Time, timeout time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for username, s := range r.sessions {
		if now.Sub(s.LastActive) > timeout {
			delete(r.sessions, username)
			evicted = append(evicted, username)
		}
	}
	sort.Strings(evicted)
	return evicted
}

// Publish records (username, filename) in both catalog indexes. Publishing
// an already-published name is a no-op success.
func (r *Registry) Publish(username, filename string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.published[username] == nil {
		r.published[username] = make(map[string]struct{})
	}
	r.published[username][filename] = struct{}{}

	if r.holders[filename] == nil {
		r.holders[filename] = make(map[string]struct{})
	}
	r.holders[filename][username] = struct{}{}
}

// Unpublish removes (username, filename) from both indexes. When the last
// publisher of a filename goes, the reverse-index entry goes with it.
func (r *Registry) Unpublish(username, filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	files, ok := r.published[username]
	if !ok {
		return ErrNotPublished
	}
	if _, ok := files[filename]; !ok {
		return ErrNotPublished
	}

	delete(files, filename)
	if len(files) == 0 {
		delete(r.published, username)
	}

	users := r.holders[filename]
	delete(users, username)
	if len(users) == 0 {
		delete(r.holders, filename)
	}
	return nil
}

// Published returns the caller's published filenames, sorted.
func (r *Registry) Published(username string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	files := make([]string, 0, len(r.published[username]))
	for filename := range r.published[username] {
		files = append(files, filename)
	}
	sort.Strings(files)
	return files
}

// Search returns every filename containing the substring that is not
// published by the excluded user and has at least one currently active
// publisher. The active check is deliberate even though eviction never
// prunes the catalog: liveness and publication are decoupled.
func (r *Registry) Search(substring, excluding string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matches []string
	for filename, users := range r.holders {
		if !strings.Contains(filename, substring) {
			continue
		}
		if _, mine := users[excluding]; mine {
			continue
		}
		for username := range users {
			if _, active := r.sessions[username]; active {
				matches = append(matches, filename)
				break
			}
		}
	}
	sort.Strings(matches)
	return matches
}

// FindActiveHolder returns one active publisher of the filename, excluding
// the requester. Tie-break is the lexicographically smallest username, so
// the result is deterministic for a fixed registry snapshot.
func (r *Registry) FindActiveHolder(filename, excluding string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var candidates []string
	for username := range r.holders[filename] {
		if username == excluding {
			continue
		}
		if _, active := r.sessions[username]; active {
			candidates = append(candidates, username)
		}
	}
	if len(candidates) == 0 {
		return Session{}, false
	}
	sort.Strings(candidates)
	return *r.sessions[candidates[0]], true
}

// Snapshot returns a consistent read-only view for the admin endpoint:
// active usernames and the full forward catalog.
func (r *Registry) Snapshot() (peers []string, catalog map[string][]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	peers = make([]string, 0, len(r.sessions))
	for username := range r.sessions {
		peers = append(peers, username)
	}
	sort.Strings(peers)

	catalog = make(map[string][]string, len(r.published))
	for username, files := range r.published {
		names := make([]string, 0, len(files))
		for filename := range files {
			names = append(names, filename)
		}
		sort.Strings(names)
		catalog[username] = names
	}
	return peers, catalog
}
