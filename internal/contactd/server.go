package contactd

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/tcpcl/internal/observability"
	"github.com/danmuck/tcpcl/internal/protocol/contact"
	"github.com/danmuck/tcpcl/internal/protocol/stream"
	"github.com/rs/zerolog"
)

// HeaderHandler observes each contact header decoded from a peer.
type HeaderHandler func(remote net.Addr, h contact.Header)

// Server owns the accept loop and per-connection contact exchange.
type Server struct {
	cfg    Config
	logger zerolog.Logger

	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	handler HeaderHandler

	active atomic.Int64
}

func NewServer(cfg Config, logger zerolog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger.With().Str("node", cfg.NodeID).Logger(),
		conns:  make(map[net.Conn]struct{}),
	}
}

// SetHeaderHandler installs fn to be called for every decoded peer header.
// It must be set before Serve.
func (s *Server) SetHeaderHandler(fn HeaderHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = fn
}

// ActiveConnections returns the number of connections being served.
func (s *Server) ActiveConnections() int {
	return int(s.active.Load())
}

// Run listens on the configured address and serves until ctx is canceled or
// either listener fails. The admin server is stopped before Run returns.
func (s *Server) Run(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("contactd listening")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	adminErr := make(chan error, 1)
	adminDone := make(chan struct{})
	if addr := strings.TrimSpace(s.cfg.AdminListenAddr); addr != "" {
		go func() {
			defer close(adminDone)
			adminErr <- s.serveAdmin(ctx, addr)
		}()
	} else {
		close(adminDone)
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.Serve(ctx, ln)
	}()

	var runErr error
	select {
	case runErr = <-serveErr:
		cancel()
	case runErr = <-adminErr:
		cancel()
		if err := <-serveErr; runErr == nil {
			runErr = err
		}
	}
	<-adminDone
	return runErr
}

// Serve accepts connections on ln until ctx is canceled or ln fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	defer ln.Close()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.closeAllConns()
			_ = ln.Close()
		case <-done:
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.closeAllConns()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.trackConn(conn)
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	defer s.untrackConn(conn)
	node := s.cfg.NodeID
	remote := conn.RemoteAddr()
	logger := s.logger.With().Str("remote", remote.String()).Logger()

	active := s.active.Add(1)
	observability.AddActiveConnections(node, 1)
	logger.Debug().Int64("active_clients", active).Msg("client connected")
	defer func() {
		remaining := s.active.Add(-1)
		observability.AddActiveConnections(node, -1)
		logger.Debug().Int64("active_clients", remaining).Msg("client disconnected")
	}()

	if s.cfg.ReadTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}
	n, err := stream.WriteHeader(conn, s.cfg.Local)
	observability.RecordContactBytes(node, observability.DirectionOut, n)
	if err != nil {
		logger.Warn().Err(err).Msg("write contact header failed")
		return
	}
	_ = conn.SetWriteDeadline(time.Time{})

	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()

	acc := stream.NewAccumulator()
	for {
		if s.cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		before := acc.Buffered()
		h, err := stream.ReadHeader(ctx, conn, acc)
		if err != nil {
			s.recordReadFailure(logger, err)
			return
		}
		observability.RecordContactDecode(node, observability.OutcomeComplete)
		observability.RecordContactBytes(node, observability.DirectionIn, h.Len()-before)
		eid, _ := h.EndpointID()
		logger.Info().
			Str("flags", h.Flags().String()).
			Uint16("keepalive", h.Keepalive()).
			Uint64("segment_mru", h.SegmentMRU()).
			Uint64("transfer_mru", h.TransferMRU()).
			Str("eid", eid).
			Msg("contact header received")
		if handler != nil {
			handler(remote, h)
		}
	}
}

func (s *Server) recordReadFailure(logger zerolog.Logger, err error) {
	node := s.cfg.NodeID
	switch {
	case contact.IsInvalid(err):
		observability.RecordContactDecode(node, observability.OutcomeInvalid)
		logger.Warn().Err(err).Msg("rejecting malformed contact header")
	case errors.Is(err, io.EOF):
		observability.RecordContactDecode(node, observability.OutcomeEOF)
		logger.Debug().Msg("peer closed")
	case errors.Is(err, os.ErrDeadlineExceeded):
		observability.RecordContactDecode(node, observability.OutcomeTimeout)
		logger.Debug().Msg("read timeout")
	case errors.Is(err, io.ErrUnexpectedEOF):
		observability.RecordContactDecode(node, observability.OutcomeEOF)
		logger.Warn().Err(err).Msg("peer closed mid header")
	case errors.Is(err, context.Canceled), errors.Is(err, net.ErrClosed):
	default:
		logger.Warn().Err(err).Msg("read failed")
	}
}

func (s *Server) serveAdmin(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           observability.NewAdminRouter(s.cfg.NodeID, s.logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.logger.Info().Str("addr", addr).Msg("admin listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) trackConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrackConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeAllConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}
