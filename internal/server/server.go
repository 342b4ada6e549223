// Package server implements the hag1 TCP accept loop and per-connection
// receive task, grounded on tcp_server.py's TcpServer /
// TcpClientSession and the teacher's goroutine-per-connection idiom from
// internal/fabric/websocket.go.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dhag/Py.HagLib.Socket/internal/config"
	"github.com/dhag/Py.HagLib.Socket/internal/fabric"
	"github.com/dhag/Py.HagLib.Socket/internal/imaging"
	"github.com/dhag/Py.HagLib.Socket/internal/protocol"
	"github.com/dhag/Py.HagLib.Socket/internal/transport"
)

// Server accepts TCP connections and routes decoded frames between
// sessions. One Server owns one session table, one router, and one
// callback hub shared across every connection it accepts.
type Server struct {
	cfg     *config.Config
	sm      *protocol.SessionManager
	router  *fabric.Router
	hub     *fabric.Hub
	framer  *transport.Framer
	codec   imaging.Codec
	metrics *fabric.RouterMetrics
	logger  *slog.Logger

	listener net.Listener
	wg       sync.WaitGroup
}

// New builds a Server. hub is the local callback hub that frames
// destined for dest_user_id==0 are delivered to (the router's local-delivery row).
func New(cfg *config.Config, hub *fabric.Hub, metrics *fabric.RouterMetrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	sm := protocol.NewSessionManager()
	framer := transport.NewFramer(cfg.Transport.MaxFrameBytes)
	router := fabric.NewRouter(sm, framer, metrics, logger)
	return &Server{
		cfg:     cfg,
		sm:      sm,
		router:  router,
		hub:     hub,
		framer:  framer,
		codec:   imaging.Default,
		metrics: metrics,
		logger:  logger,
	}
}

// Sessions exposes the session table for the admin HTTP surface.
func (s *Server) Sessions() *protocol.SessionManager { return s.sm }

// ListenAndServe binds cfg.Server.ListenAddr and accepts connections
// until ctx is cancelled. Cancellation also closes every open
// connection, and ListenAndServe returns once their handlers have exited.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.ListenAddr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("server listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				s.logger.Warn("accept failed", "error", err)
				return err
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	session := s.sm.Create(conn)
	session.Name = fmt.Sprintf("Client-%d", session.ID)
	traceID := uuid.NewString()
	if s.metrics != nil {
		s.metrics.SessionsLive.Inc()
		defer s.metrics.SessionsLive.Dec()
	}
	s.logger.Info("client connected", "remote_addr", conn.RemoteAddr().String(), "session_id", session.ID, "trace_id", traceID)

	welcome := protocol.Text(0, 0, 0, 0, s.cfg.Server.WelcomeMessage)
	if err := session.Send(protocol.Encode(welcome)); err != nil {
		s.logger.Warn("welcome send failed", "session_id", session.ID, "trace_id", traceID, "error", err)
	}

	first := true
	for {
		frame, err := s.framer.Recv(conn)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			// EOF, BadMagic, FrameTooLarge: log, close and clean up
			s.logger.Info("receive loop ended", "session_id", session.ID, "trace_id", traceID, "error", err)
			break
		}

		if first {
			s.hub.RaiseFirstMessage(frame.ToText())
			first = false
		}

		if frame.Header.PayloadType == protocol.PlainText {
			body := string(frame.Payload)
			if u, g, ok := parseHandshake(body); ok {
				s.sm.SetIdentity(session.ID, u, g)
			}
		}

		deliverLocal := s.router.Route(frame, session)
		if deliverLocal {
			fabric.Dispatch(s.hub, frame, s.codec)
		}
	}

	s.sm.Destroy(session.ID)
	s.logger.Info("client disconnected", "session_id", session.ID, "trace_id", traceID)
}

// SendData implements the server-initiated broadcast/targeted send of
// the same destination table as the router, but the broadcast
// case omits the "except S" exclusion since there is no sender session.
func (s *Server) SendData(frame *protocol.Frame) {
	h := &frame.Header
	switch {
	case h.DestUserID != 0 && h.DestUserID != protocol.WildcardID:
		for _, sess := range s.sm.SnapshotUser(h.DestUserID) {
			if h.DestGroupID != protocol.WildcardID && sess.GroupID != h.DestGroupID {
				continue
			}
			s.sendToSession(sess, frame)
		}
	case h.DestGroupID != 0 && h.DestGroupID != protocol.WildcardID:
		for _, sess := range s.sm.SnapshotGroup(h.DestGroupID) {
			s.sendToSession(sess, frame)
		}
	default:
		for _, sess := range s.sm.SnapshotAll() {
			s.sendToSession(sess, frame)
		}
	}
}

func (s *Server) sendToSession(sess *protocol.Session, frame *protocol.Frame) {
	if err := sess.Send(protocol.Encode(frame)); err != nil {
		s.logger.Warn("send_data failed for recipient", "session_id", sess.ID, "error", err)
	}
}

// parseHandshake parses "CONNECT:<u>:<g>", ignoring any further
// colon-separated segments beyond the first two integers (SPEC_FULL.md's
// resolution of the "extra colons" open question).
func parseHandshake(body string) (userID, groupID uint32, ok bool) {
	const prefix = "CONNECT:"
	if !strings.HasPrefix(body, prefix) {
		return 0, 0, false
	}
	parts := strings.Split(body[len(prefix):], ":")
	if len(parts) < 2 {
		return 0, 0, false
	}
	u, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, false
	}
	g, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, false
	}
	return uint32(u), uint32(g), true
}
