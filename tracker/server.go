package main

import (
	"net"

	"bittrickle/common"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// packet is one inbound datagram queued for a worker.
type packet struct {
	data []byte
	addr *net.UDPAddr
}

// Server reads one request per datagram and answers with at most one
// response datagram to the request's source address. A fixed pool of
// workers drains the queue, so a burst of requests cannot spawn unbounded
// goroutines.
type Server struct {
	conn *net.UDPConn
	reg  *Registry
	log  *zap.SugaredLogger
	jobs chan packet
	done chan struct{}
}

func NewServer(addr string, reg *Registry, workers int, log *zap.SugaredLogger) (*Server, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", addr)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "bind %s", addr)
	}

	s := &Server{
		conn: conn,
		reg:  reg,
		log:  log,
		jobs: make(chan packet, workers*4),
		done: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go s.worker()
	}
	return s, nil
}

func (s *Server) Addr() *net.UDPAddr {
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Serve blocks reading datagrams until Close.
func (s *Server) Serve() {
	buf := make([]byte, 2048)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			s.log.Warnw("datagram read error", "err", err)
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		select {
		case s.jobs <- packet{data: data, addr: addr}:
		case <-s.done:
			// Workers are gone; nobody will drain the queue.
			return
		}
	}
}

func (s *Server) worker() {
	for {
		select {
		case <-s.done:
			return
		case p := <-s.jobs:
			s.dispatch(p)
		}
	}
}

func (s *Server) dispatch(p packet) {
	m := common.Decode(p.data)
	if m.Type == "" {
		// Undecodable datagrams get no response; the return address is not
		// trustworthy enough to be worth an error report.
		s.log.Debugw("dropping undecodable datagram", "from", p.addr.String(), "bytes", len(p.data))
		return
	}

	resp := s.handle(m, p.addr)
	if resp == nil {
		return
	}

	out, err := common.Encode(*resp)
	if err != nil {
		s.log.Errorw("encode response", "type", resp.Type, "err", err)
		return
	}
	if _, err := s.conn.WriteToUDP(out, p.addr); err != nil {
		s.log.Warnw("send response", "to", p.addr.String(), "err", err)
	}
}

func (s *Server) Close() error {
	close(s.done)
	return s.conn.Close()
}
