package main

import (
	"net"

	"bittrickle/common"
)

// handle interprets one decoded request and returns the single response to
// send back, or nil when the protocol calls for silence (heartbeats,
// unrecognized types). Handlers are stateless across datagrams; everything
// shared lives in the registry.
func (s *Server) handle(m common.Message, addr *net.UDPAddr) *common.Message {
	switch m.Type {
	case common.TypeAuth:
		return s.handleAuth(m, addr)
	case common.TypeHeartbeat:
		return s.handleHeartbeat(m)
	case common.TypeListPeers:
		return s.handleListPeers(m, addr)
	case common.TypeListFiles:
		return s.handleListFiles(m, addr)
	case common.TypePublish:
		return s.handlePublish(m, addr)
	case common.TypeUnpublish:
		return s.handleUnpublish(m, addr)
	case common.TypeSearch:
		return s.handleSearch(m, addr)
	case common.TypeGet:
		return s.handleGet(m, addr)
	default:
		s.log.Debugw("dropping unrecognized message", "type", m.Type, "from", addr.String())
		return nil
	}
}

func (s *Server) handleAuth(m common.Message, addr *net.UDPAddr) *common.Message {
	resp := &common.Message{Type: common.ResponseType(common.TypeAuth)}

	if err := s.reg.Authenticate(m.Username, m.Password, addr, m.TransferPort); err != nil {
		resp.Status = common.StatusFail
		resp.Reason = err.Error()
		s.log.Infow("authentication failed", "username", m.Username, "from", addr.String(), "reason", err.Error())
		return resp
	}

	resp.Status = common.StatusOK
	s.log.Infow("user authenticated", "username", m.Username, "from", addr.String(), "transfer_port", m.TransferPort)
	return resp
}

// Heartbeats get no response. An unknown username here is not an error,
// just a signal from a session that no longer exists.
func (s *Server) handleHeartbeat(m common.Message) *common.Message {
	if s.reg.Touch(m.Username) {
		s.log.Debugw("heartbeat", "username", m.Username)
	} else {
		s.log.Debugw("heartbeat from inactive user, ignoring", "username", m.Username)
	}
	return nil
}

// requireActive re-checks liveness for authenticated-only request types and
// refreshes the session. There is no session token beyond the username
// string; that trust boundary is the protocol's, not ours to fix here.
func (s *Server) requireActive(m common.Message, addr *net.UDPAddr) *common.Message {
	if s.reg.Touch(m.Username) {
		return nil
	}
	s.log.Infow("request from unauthenticated user", "type", m.Type, "username", m.Username, "from", addr.String())
	return &common.Message{
		Type:   common.ResponseType(m.Type),
		Status: common.StatusFail,
		Reason: "User not authenticated",
	}
}

func (s *Server) handleListPeers(m common.Message, addr *net.UDPAddr) *common.Message {
	if fail := s.requireActive(m, addr); fail != nil {
		return fail
	}

	peers := s.reg.ActivePeers(m.Username)
	s.log.Infow("listing active peers", "username", m.Username, "count", len(peers))
	return &common.Message{
		Type:   common.ResponseType(common.TypeListPeers),
		Status: common.StatusOK,
		Peers:  peers,
	}
}

func (s *Server) handleListFiles(m common.Message, addr *net.UDPAddr) *common.Message {
	if fail := s.requireActive(m, addr); fail != nil {
		return fail
	}

	files := s.reg.Published(m.Username)
	s.log.Infow("listing published files", "username", m.Username, "count", len(files))
	return &common.Message{
		Type:   common.ResponseType(common.TypeListFiles),
		Status: common.StatusOK,
		Files:  files,
	}
}

func (s *Server) handlePublish(m common.Message, addr *net.UDPAddr) *common.Message {
	if fail := s.requireActive(m, addr); fail != nil {
		return fail
	}

	s.reg.Publish(m.Username, m.Filename)
	s.log.Infow("file published", "username", m.Username, "filename", m.Filename)
	return &common.Message{
		Type:    common.ResponseType(common.TypePublish),
		Status:  common.StatusOK,
		Message: "File published successfully.",
	}
}

func (s *Server) handleUnpublish(m common.Message, addr *net.UDPAddr) *common.Message {
	if fail := s.requireActive(m, addr); fail != nil {
		return fail
	}

	resp := &common.Message{Type: common.ResponseType(common.TypeUnpublish)}
	if err := s.reg.Unpublish(m.Username, m.Filename); err != nil {
		resp.Status = common.StatusFail
		resp.Reason = err.Error()
		s.log.Infow("unpublish failed", "username", m.Username, "filename", m.Filename)
		return resp
	}

	resp.Status = common.StatusOK
	resp.Message = "File unpublished successfully."
	s.log.Infow("file unpublished", "username", m.Username, "filename", m.Filename)
	return resp
}

func (s *Server) handleSearch(m common.Message, addr *net.UDPAddr) *common.Message {
	if fail := s.requireActive(m, addr); fail != nil {
		return fail
	}

	files := s.reg.Search(m.Substring, m.Username)
	s.log.Infow("search", "username", m.Username, "substring", m.Substring, "matches", len(files))
	return &common.Message{
		Type:   common.ResponseType(common.TypeSearch),
		Status: common.StatusOK,
		Files:  files,
	}
}

func (s *Server) handleGet(m common.Message, addr *net.UDPAddr) *common.Message {
	if fail := s.requireActive(m, addr); fail != nil {
		return fail
	}

	resp := &common.Message{Type: common.ResponseType(common.TypeGet)}
	holder, ok := s.reg.FindActiveHolder(m.Filename, m.Username)
	if !ok {
		resp.Status = common.StatusFail
		resp.Reason = "No active peers have the file."
		s.log.Infow("no active holder", "username", m.Username, "filename", m.Filename)
		return resp
	}

	resp.Status = common.StatusOK
	resp.PeerUsername = holder.Username
	resp.PeerIP = holder.Addr.IP.String()
	resp.PeerTCPPort = holder.TransferPort
	s.log.Infow("brokered transfer", "requester", m.Username, "holder", holder.Username, "filename", m.Filename)
	return resp
}
