package contactd

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"runtime"
	"testing"
	"time"

	"github.com/danmuck/tcpcl/internal/protocol/contact"
	"github.com/danmuck/tcpcl/internal/protocol/stream"
	"github.com/danmuck/tcpcl/internal/testutil/testlog"
)

type received struct {
	remote net.Addr
	header contact.Header
}

func startServer(t *testing.T, cfg Config) (*Server, string, chan received) {
	t.Helper()
	logger := testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := NewServer(cfg, logger)
	got := make(chan received, 8)
	srv.SetHeaderHandler(func(remote net.Addr, h contact.Header) {
		got <- received{remote: remote, header: h}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("serve: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Errorf("serve did not stop")
		}
	})
	return srv, ln.Addr().String(), got
}

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func peerHeader(t *testing.T, eid string) contact.Header {
	t.Helper()
	h := contact.New()
	h.WithKeepalive(15).WithSegmentMRU(1 << 16).WithTransferMRU(1 << 24)
	if _, err := h.SetEndpointID(eid); err != nil {
		t.Fatalf("set endpoint id: %v", err)
	}
	return h
}

func TestServerSendsLocalHeaderFirst(t *testing.T) {
	cfg := DefaultConfig()
	_, addr, _ := startServer(t, cfg)
	conn := dial(t, addr)

	h, err := stream.ReadHeader(context.Background(), conn, stream.NewAccumulator())
	if err != nil {
		t.Fatalf("read server header: %v", err)
	}
	if h != cfg.Local {
		t.Fatalf("server header: got=%s want=%s", h, cfg.Local)
	}
	if eid, _ := h.EndpointID(); eid != "localhost" || !h.Flags().Has(contact.FlagCanTLS) {
		t.Fatalf("unexpected default header: %s", h)
	}
}

func TestServerDecodesPeerHeaders(t *testing.T) {
	_, addr, got := startServer(t, DefaultConfig())
	conn := dial(t, addr)
	if _, err := stream.ReadHeader(context.Background(), conn, stream.NewAccumulator()); err != nil {
		t.Fatalf("read server header: %v", err)
	}

	first := peerHeader(t, "dtn://peer-a/")
	second := peerHeader(t, "dtn://peer-b/")
	wire := append(contact.Encode(first), contact.Encode(second)...)
	// Split mid header to exercise reassembly.
	if _, err := conn.Write(wire[:7]); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := conn.Write(wire[7:]); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, want := range []contact.Header{first, second} {
		select {
		case r := <-got:
			if r.header != want {
				t.Fatalf("decoded: got=%s want=%s", r.header, want)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestServerClosesOnInvalidHeader(t *testing.T) {
	_, addr, got := startServer(t, DefaultConfig())
	conn := dial(t, addr)
	if _, err := stream.ReadHeader(context.Background(), conn, stream.NewAccumulator()); err != nil {
		t.Fatalf("read server header: %v", err)
	}
	if _, err := conn.Write([]byte{0x64, 0x74, 0x6e, 0x21, 0x05}); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); !errors.Is(err, io.EOF) {
		var opErr *net.OpError
		if !errors.As(err, &opErr) {
			t.Fatalf("expected closed connection, got %v", err)
		}
	}
	select {
	case r := <-got:
		t.Fatalf("unexpected header from invalid stream: %s", r.header)
	default:
	}
}

func TestServerReadTimeoutClosesIdleConn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReadTimeout = 100 * time.Millisecond
	srv, addr, _ := startServer(t, cfg)
	conn := dial(t, addr)
	if _, err := stream.ReadHeader(context.Background(), conn, stream.NewAccumulator()); err != nil {
		t.Fatalf("read server header: %v", err)
	}
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Fatalf("expected server to close idle connection")
	}
	deadline := time.Now().Add(2 * time.Second)
	for srv.ActiveConnections() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := srv.ActiveConnections(); n != 0 {
		t.Fatalf("active connections: %d", n)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := cfg
	bad.ListenAddr = " "
	if !errors.Is(bad.Validate(), ErrMissingListenAddr) {
		t.Fatalf("expected ErrMissingListenAddr")
	}
	bad = cfg
	bad.NodeID = ""
	if !errors.Is(bad.Validate(), ErrMissingNodeID) {
		t.Fatalf("expected ErrMissingNodeID")
	}
	bad = cfg
	bad.ReadTimeout = -time.Second
	if !errors.Is(bad.Validate(), ErrInvalidTimeout) {
		t.Fatalf("expected ErrInvalidTimeout")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ListenAddr = ""
	srv := NewServer(cfg, testlog.Start(t))
	if err := srv.Run(context.Background()); !errors.Is(err, ErrMissingListenAddr) {
		t.Fatalf("expected ErrMissingListenAddr, got %v", err)
	}
}

var errAcceptBroken = errors.New("accept broken")

type brokenListener struct {
	net.Listener
}

func (brokenListener) Accept() (net.Conn, error) { return nil, errAcceptBroken }

func waitGoroutines(t *testing.T, max int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > max && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := runtime.NumGoroutine(); n > max {
		t.Fatalf("goroutines: got %d want <= %d", n, max)
	}
}

func TestServeAcceptFailureReleasesWatcher(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	srv := NewServer(DefaultConfig(), testlog.Start(t))

	baseline := runtime.NumGoroutine()
	for i := 0; i < 20; i++ {
		if err := srv.Serve(context.Background(), brokenListener{ln}); !errors.Is(err, errAcceptBroken) {
			t.Fatalf("expected errAcceptBroken, got %v", err)
		}
	}
	waitGoroutines(t, baseline)
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func TestRunStopsAdminOnShutdown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.AdminListenAddr = freeAddr(t)
	srv := NewServer(cfg, testlog.Start(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	healthURL := "http://" + cfg.AdminListenAddr + "/health"
	deadline := time.Now().Add(3 * time.Second)
	for {
		resp, err := http.Get(healthURL)
		if err == nil {
			_ = resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("admin never came up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return")
	}
	if conn, err := net.DialTimeout("tcp", cfg.AdminListenAddr, 200*time.Millisecond); err == nil {
		_ = conn.Close()
		t.Fatalf("admin still listening after Run returned")
	}
}

func TestRunAdminFailureStopsServe(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer busy.Close()

	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.AdminListenAddr = busy.Addr().String()
	srv := NewServer(cfg, testlog.Start(t))

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(context.Background())
	}()
	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected admin listen error")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after admin failure")
	}
}
