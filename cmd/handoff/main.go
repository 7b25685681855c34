// Handoff: persistent memory for AI coding sessions
//
// An MCP server that gives coding assistants durable project memory:
// tasks, decisions, notes, sessions, and context survive across
// conversations in a local SQLite database. A small web dashboard
// shows the same data to humans.
//
// Usage:
//
//	handoff serve       # Start MCP server (stdio transport)
//	handoff dashboard   # Start the web dashboard
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwhitford/handoff/internal/config"
	"github.com/mwhitford/handoff/internal/server"
	"github.com/mwhitford/handoff/internal/store"
	"github.com/mwhitford/handoff/internal/web"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "dashboard":
		if err := runDashboard(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("handoff v%s\n", server.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// runServe starts the MCP server on stdio. All logging goes to stderr so
// it cannot corrupt the protocol stream on stdout.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	s, cleanup, err := server.New(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	return mcpserver.ServeStdio(s)
}

// runDashboard starts the web dashboard with graceful shutdown on
// SIGINT/SIGTERM.
func runDashboard() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	srv, err := web.NewServer(st, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(cfg.DashboardAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Handoff v%s — persistent memory for AI coding sessions

Usage:
  handoff serve       Start the MCP server (stdio transport)
  handoff dashboard   Start the web dashboard (default %s)

Environment:
  HANDOFF_DATA_DIR        Data directory (default: ~/.handoff)
  HANDOFF_DB_PATH         Full database path (overrides data dir)
  HANDOFF_DASHBOARD_ADDR  Dashboard listen address
  HANDOFF_LOG_LEVEL       debug, info, warn, error

MCP configuration:

  {
    "mcpServers": {
      "handoff": {
        "command": "handoff",
        "args": ["serve"]
      }
    }
  }
`, server.Version, ":7347")
}
