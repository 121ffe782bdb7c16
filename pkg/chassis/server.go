// Package chassis serves the game over one port with two transports:
//   - TCP: HTTPS (HTTP/1.1 + HTTP/2) for browsers and curl
//   - UDP: QUIC, demuxed by ALPN into HTTP/3 ("h3") and MCP JSON-RPC
//     (mcpquic.ALPNProtocolMCP)
//
// Responses advertise HTTP/3 through Alt-Svc. Without certificate files a
// self-signed development certificate is generated.
package chassis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"

	"github.com/hazyhaar/energle/pkg/mcpquic"
)

// Config holds configuration for the chassis server.
type Config struct {
	Addr      string            // TCP and UDP listen address, e.g. ":8443"
	TLS       *tls.Config       // nil: load CertFile/KeyFile or self-sign
	CertFile  string
	KeyFile   string
	Handler   http.Handler
	MCPServer *server.MCPServer // nil disables MCP over QUIC
	Logger    *slog.Logger
}

// Server runs both transports until its context ends.
type Server struct {
	addr       string
	logger     *slog.Logger
	tlsCfg     *tls.Config
	handler    http.Handler
	mcpHandler *mcpquic.Handler

	mu        sync.Mutex
	tcpServer *http.Server
	h3Server  *http3.Server
	quicLn    *quic.Listener
}

// New validates cfg and prepares TLS.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Handler == nil {
		return nil, errors.New("chassis: nil handler")
	}
	tlsCfg, err := serverTLS(cfg)
	if err != nil {
		return nil, err
	}
	s := &Server{
		addr:    cfg.Addr,
		logger:  cfg.Logger,
		tlsCfg:  tlsCfg,
		handler: securityHeaders(altSvc(cfg.Addr, cfg.Handler)),
	}
	if cfg.MCPServer != nil {
		s.mcpHandler = mcpquic.NewHandler(cfg.MCPServer, cfg.Logger)
	}
	return s, nil
}

func serverTLS(cfg Config) (*tls.Config, error) {
	if cfg.TLS != nil {
		return cfg.TLS, nil
	}
	protos := []string{"h3", mcpquic.ALPNProtocolMCP}
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		c, err := mcpquic.ServerTLSConfig(cfg.CertFile, cfg.KeyFile, protos...)
		if err != nil {
			return nil, fmt.Errorf("load TLS cert: %w", err)
		}
		cfg.Logger.Info("TLS: certificate loaded", "cert", cfg.CertFile)
		return c, nil
	}
	c, err := mcpquic.SelfSignedTLSConfig(protos...)
	if err != nil {
		return nil, fmt.Errorf("generate dev TLS: %w", err)
	}
	cfg.Logger.Warn("TLS: self-signed development certificate in use")
	return c, nil
}

// securityHeaders adds standard security headers. The API serves JSON only.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// altSvc advertises HTTP/3 on the same port.
func altSvc(addr string, next http.Handler) http.Handler {
	_, port, _ := net.SplitHostPort(addr)
	if port == "" {
		port = "8443"
	}
	value := fmt.Sprintf(`h3=":%s"; ma=86400`, port)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", value)
		next.ServeHTTP(w, r)
	})
}

// Run listens on TCP and UDP and blocks until ctx is done or a listener
// fails. It shuts both transports down before returning.
func (s *Server) Run(ctx context.Context) error {
	tcpTLS := s.tlsCfg.Clone()
	tcpTLS.NextProtos = []string{"h2", "http/1.1"}
	tcpLn, err := tls.Listen("tcp", s.addr, tcpTLS)
	if err != nil {
		return fmt.Errorf("TCP listen: %w", err)
	}
	quicLn, err := quic.ListenAddr(s.addr, s.tlsCfg, mcpquic.ProductionQUICConfig())
	if err != nil {
		tcpLn.Close()
		return fmt.Errorf("QUIC listen: %w", err)
	}

	tcpSrv := &http.Server{Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}
	h3Srv := &http3.Server{Handler: s.handler}
	s.mu.Lock()
	s.tcpServer, s.h3Server, s.quicLn = tcpSrv, h3Srv, quicLn
	s.mu.Unlock()

	s.logger.Info("chassis started", "addr", s.addr, "tcp", "HTTPS h2+http/1.1", "udp", "QUIC h3+mcp", "mcp", s.mcpHandler != nil)

	errCh := make(chan error, 2)
	go func() {
		if err := tcpSrv.Serve(tcpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("TCP: %w", err)
		}
	}()
	go func() {
		if err := s.acceptQUIC(ctx, quicLn, h3Srv); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		err = nil
	case err = <-errCh:
	}
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if stopErr := s.Stop(stopCtx); err == nil {
		err = stopErr
	}
	return err
}

// acceptQUIC demuxes QUIC connections by negotiated ALPN.
func (s *Server) acceptQUIC(ctx context.Context, ln *quic.Listener, h3 *http3.Server) error {
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, quic.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("QUIC accept: %w", err)
		}

		switch alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn {
		case "h3":
			go func() {
				if err := h3.ServeQUICConn(conn); err != nil {
					s.logger.Debug("HTTP/3 conn done", "remote", conn.RemoteAddr(), "error", err)
				}
			}()
		case mcpquic.ALPNProtocolMCP:
			if s.mcpHandler == nil {
				conn.CloseWithError(quic.ApplicationErrorCode(0x10), "MCP not enabled")
				continue
			}
			go s.mcpHandler.ServeConn(ctx, conn)
		default:
			s.logger.Warn("unknown ALPN, closing", "alpn", alpn, "remote", conn.RemoteAddr())
			conn.CloseWithError(mcpquic.ConnErrorUnsupportedALPN, "unsupported ALPN: "+alpn)
		}
	}
}

// Stop shuts down both transports. It is safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.tcpServer != nil {
		errs = append(errs, s.tcpServer.Shutdown(ctx))
		s.tcpServer = nil
	}
	if s.h3Server != nil {
		errs = append(errs, s.h3Server.Close())
		s.h3Server = nil
	}
	if s.quicLn != nil {
		errs = append(errs, s.quicLn.Close())
		s.quicLn = nil
	}
	s.logger.Info("chassis stopped")
	return errors.Join(errs...)
}
