// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package network is the TCP peer-to-peer transport: connect/accept, framing,
// and per-peer send queues. It hands decoded messages to a gossip.WorkerPool
// and exposes its peer set through gossip.PeerHandle / gossip.Server, so the
// dispatcher never has to care how bytes reach the wire.
//
// No separate PeerHandle/Server interfaces are declared here: Peer and Server
// below satisfy gossip's interfaces structurally. Declaring a second, parallel
// set of interfaces in this package would force gossip.WorkerPool call sites
// to convert a []network.PeerHandle into a []gossip.PeerHandle element by
// element, since Go slice types are invariant even when the element types'
// method sets agree.
package network

import (
	"net"
	"sync"

	"github.com/pkg/errors"

	"github.com/lumenchain/lumenchain/gossip"
	"github.com/lumenchain/lumenchain/log"
)

var logger = log.NewModuleLogger(log.ModuleNetwork)

// maxQueuedMsgs bounds a peer's outbound queue; once full, Send drops the
// message rather than blocking the caller (the gossip worker dispatching it).
const maxQueuedMsgs = 128

// Peer is one connected remote node. Callers never write to the socket
// directly, only to a buffered channel drained by a dedicated goroutine.
type Peer struct {
	id   string
	conn net.Conn

	out       chan gossip.Message
	closeCh   chan struct{}
	closeOnce sync.Once
}

func newPeer(conn net.Conn) *Peer {
	return &Peer{
		id:      conn.RemoteAddr().String(),
		conn:    conn,
		out:     make(chan gossip.Message, maxQueuedMsgs),
		closeCh: make(chan struct{}),
	}
}

// ID satisfies gossip.PeerHandle.
func (p *Peer) ID() string { return p.id }

// Send satisfies gossip.PeerHandle: it enqueues msg for the write loop and
// never blocks. A full queue means the peer is too slow to keep up; the
// message is dropped for that peer rather than stalling the dispatcher.
func (p *Peer) Send(msg gossip.Message) error {
	select {
	case p.out <- msg:
		return nil
	case <-p.closeCh:
		return errors.Errorf("network: peer %s is closed", p.id)
	default:
		return errors.Errorf("network: peer %s send queue full", p.id)
	}
}

func (p *Peer) writeLoop() {
	for {
		select {
		case <-p.closeCh:
			return
		case msg := <-p.out:
			frame, err := gossip.EncodeMessage(msg)
			if err != nil {
				logger.Warn("failed to encode outbound message", "peer", p.id, "err", err)
				continue
			}
			if _, err := p.conn.Write(frame); err != nil {
				logger.Debug("peer write failed, closing", "peer", p.id, "err", err)
				p.Close()
				return
			}
		}
	}
}

func (p *Peer) readLoop(pool *gossip.WorkerPool, onClose func(*Peer)) {
	defer onClose(p)
	for {
		body, err := gossip.ReadFrame(p.conn)
		if err != nil {
			logger.Debug("peer read failed, closing", "peer", p.id, "err", err)
			p.Close()
			return
		}
		msg, err := gossip.DecodeMessage(body)
		if err != nil {
			logger.Warn("dropping malformed frame", "peer", p.id, "err", err)
			continue
		}
		pool.Submit(p, msg)
	}
}

// Close tears down the connection; safe to call more than once.
func (p *Peer) Close() {
	p.closeOnce.Do(func() {
		close(p.closeCh)
		p.conn.Close()
	})
}

// Server is the node's transport: it accepts inbound connections, dials seed
// peers, and tracks the current peer set. It satisfies gossip.Server.
type Server struct {
	pool *gossip.WorkerPool

	mu    sync.Mutex
	peers map[string]*Peer

	listener net.Listener
}

// NewServer builds a transport with no pool attached yet; call SetPool
// before Listen/Dial. The split exists because the gossip worker pool and
// the transport each need a reference to the other (the pool to broadcast
// through the transport, the transport to submit decoded messages to the
// pool), so one of the two references has to be wired in after construction.
func NewServer() *Server {
	return &Server{
		peers: make(map[string]*Peer),
	}
}

// SetPool attaches the worker pool that receives every decoded inbound
// message. Must be called before Listen or Dial.
func (s *Server) SetPool(pool *gossip.WorkerPool) {
	s.pool = pool
}

// Listen starts accepting inbound connections on addr in the background.
func (s *Server) Listen(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "network: listen %s", addr)
	}
	s.listener = l
	go s.acceptLoop(l)
	logger.Info("listening", "addr", addr)
	return nil
}

func (s *Server) acceptLoop(l net.Listener) {
	for {
		conn, err := l.Accept()
		if err != nil {
			logger.Debug("accept loop stopped", "err", err)
			return
		}
		s.register(conn)
	}
}

// Dial connects outbound to a seed peer at addr.
func (s *Server) Dial(addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "network: dial %s", addr)
	}
	s.register(conn)
	return nil
}

func (s *Server) register(conn net.Conn) {
	p := newPeer(conn)
	s.mu.Lock()
	s.peers[p.id] = p
	s.mu.Unlock()

	logger.Info("peer connected", "peer", p.id)
	go p.writeLoop()
	go p.readLoop(s.pool, s.unregister)
}

func (s *Server) unregister(p *Peer) {
	s.mu.Lock()
	delete(s.peers, p.id)
	s.mu.Unlock()
	logger.Info("peer disconnected", "peer", p.id)
}

// Peers satisfies gossip.Server.
func (s *Server) Peers() []gossip.PeerHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gossip.PeerHandle, 0, len(s.peers))
	for _, p := range s.peers {
		out = append(out, p)
	}
	return out
}

// Broadcast satisfies gossip.Server: it queues msg on every connected peer.
// Sends happen here, outside of any engine lock — callers (the gossip worker
// pool, the miner) must already have released the blockchain mutex before
// reaching this point.
func (s *Server) Broadcast(msg gossip.Message) {
	for _, p := range s.Peers() {
		if err := p.Send(msg); err != nil {
			logger.Debug("broadcast send failed", "err", err)
		}
	}
}

// Close stops accepting new connections and closes every peer.
func (s *Server) Close() error {
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	peers := make([]*Peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()
	for _, p := range peers {
		p.Close()
	}
	return nil
}
