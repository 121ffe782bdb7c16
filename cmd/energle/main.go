package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/energle/pkg/api"
	"github.com/hazyhaar/energle/pkg/chassis"
	"github.com/hazyhaar/energle/pkg/game"
)

const version = "0.3.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "mcp":
		cmdMCP(os.Args[2:])
	case "probe":
		cmdProbe(os.Args[2:])
	case "daily":
		cmdDaily(os.Args[2:])
	case "call":
		cmdCall(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: energle <command>

Commands:
  serve   Start the HTTP API (or HTTPS + HTTP/3 + MCP over QUIC with chassis: true)
  mcp     Serve the MCP tools on stdin/stdout
  probe   Show dataset candidates, availability and the source that resolves
  daily   Print a day's round key and target
  call    Call an MCP tool on a running chassis server over QUIC
`)
}

// setup parses the shared -config flag and loads the configuration.
func setup(fs *flag.FlagSet, args []string) (config, *slog.Logger) {
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath, newLogger(false))
	if err != nil {
		fmt.Fprintf(os.Stderr, "energle: %v\n", err)
		os.Exit(1)
	}
	return cfg, newLogger(cfg.Debug)
}

// openService opens the history database and resolves the dataset.
func openService(ctx context.Context, cfg config, logger *slog.Logger) (*game.Service, func()) {
	gcfg, err := cfg.gameConfig(logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	hist, err := game.OpenHistory(cfg.HistoryDB)
	if err != nil {
		logger.Error("open history", "path", cfg.HistoryDB, "error", err)
		os.Exit(1)
	}
	svc := game.NewService(ctx, gcfg, hist)
	return svc, func() {
		svc.Close()
		hist.Close()
	}
}

func newMCPServer(svc *game.Service, logger *slog.Logger) *server.MCPServer {
	srv := server.NewMCPServer("energle", version, server.WithToolCapabilities(false))
	api.RegisterMCPTools(srv, svc, logger)
	return srv
}

func cmdServe(args []string) {
	cfg, logger := setup(flag.NewFlagSet("serve", flag.ExitOnError), args)

	// SIGINT/SIGTERM: graceful shutdown.
	// SIGHUP: re-resolve datasets.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, closeSvc := openService(ctx, cfg, logger)
	defer closeSvc()

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			v := svc.Reload(ctx)
			logger.Info("datasets reloaded", "source", v.Source.String(), "year", v.SelectedYear)
		}
	}()

	router := api.NewRouter(svc, logger)

	if cfg.Chassis {
		srv, err := chassis.New(chassis.Config{
			Addr:      cfg.Addr,
			CertFile:  cfg.CertFile,
			KeyFile:   cfg.KeyFile,
			Handler:   router,
			MCPServer: newMCPServer(svc, logger),
			Logger:    logger,
		})
		if err != nil {
			logger.Error("chassis setup", "error", err)
			os.Exit(1)
		}
		if err := srv.Run(ctx); err != nil {
			logger.Error("chassis error", "error", err)
			os.Exit(1)
		}
		return
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("energle listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func cmdMCP(args []string) {
	cfg, logger := setup(flag.NewFlagSet("mcp", flag.ExitOnError), args)

	svc, closeSvc := openService(context.Background(), cfg, logger)
	defer closeSvc()

	if err := server.ServeStdio(newMCPServer(svc, logger)); err != nil {
		logger.Error("mcp stdio", "error", err)
		os.Exit(1)
	}
}
