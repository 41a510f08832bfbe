// Shardy: spec sharding and adaptive context assembly MCP server.
//
// Shardy splits large spec documents into bounded, cross-referenced
// section shards, scores how well-specified each work unit is, and
// assembles an adaptive context packet per unit for AI coding tools.
//
// Usage:
//
//	shardy serve     # Start MCP server (stdio transport)
//	shardy version   # Print version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	shardyserver "github.com/HendryAvila/shardy/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("shardy v%s\n", shardyserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := shardyserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt. All diagnostics go to stderr —
	// stdout belongs to the MCP stdio transport.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	_ = ctx // stdio server manages its own lifecycle

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Shardy v%s — Spec Sharding & Adaptive Context MCP Server

Usage:
  shardy serve     Start the MCP server (stdio transport)
  shardy version   Print version

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "shardy": {
        "command": "shardy",
        "args": ["serve"]
      }
    }
  }
`, shardyserver.Version)
}
