// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools that depend on abstractions. No business
// logic lives here — only wiring.
package server

import (
	"log"

	"github.com/HendryAvila/shardy/internal/config"
	"github.com/HendryAvila/shardy/internal/memory"
	"github.com/HendryAvila/shardy/internal/prompts"
	"github.com/HendryAvila/shardy/internal/resources"
	"github.com/HendryAvila/shardy/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
// This is the single place where all dependencies are resolved.
//
// The returned cleanup function closes the context store's database
// connection and must be called on shutdown (typically via defer). It
// is always non-nil and safe to call even if store init failed.
func New() (*server.MCPServer, func(), error) {
	// --- Create shared dependencies ---

	store := config.NewFileStore()

	s := server.NewMCPServer(
		"shardy",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Context store ---
	//
	// Persistence is an independent subsystem: if it fails to
	// initialize, the sharding and scoring tools continue working.
	// Tools that can run without it take a nil store.

	cleanup := noop
	memStore, memErr := memory.New(memory.DefaultConfig())
	if memErr != nil {
		log.Printf("WARNING: context store disabled: %v", memErr)
		memStore = nil
	} else {
		cleanup = func() {
			if err := memStore.Close(); err != nil {
				log.Printf("WARNING: context store close: %v", err)
			}
		}
	}

	// --- Register pipeline tools ---

	initTool := tools.NewInitTool(store)
	s.AddTool(initTool.Definition(), initTool.Handle)

	shardTool := tools.NewShardTool(store)
	s.AddTool(shardTool.Definition(), shardTool.Handle)

	scoreTool := tools.NewScoreTool(store, memStore)
	s.AddTool(scoreTool.Definition(), scoreTool.Handle)

	assembleTool := tools.NewAssembleTool(store, memStore)
	s.AddTool(assembleTool.Definition(), assembleTool.Handle)

	if memStore != nil {
		statsTool := tools.NewStatsTool(memStore)
		s.AddTool(statsTool.Definition(), statsTool.Handle)
	}

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)
	s.AddResource(resourceHandler.IndexResource(), resourceHandler.HandleIndex)

	return s, cleanup, nil
}

func noop() {}

// serverInstructions returns the guidance sent to the AI client on
// connection: what the pipeline is for and the order tools are meant
// to be consumed in.
func serverInstructions() string {
	return `Shardy decomposes a large spec document into bounded section shards and
assembles an adaptive context packet per work unit.

Intended flow:
1. shard_spec — split the spec at heading boundaries into shards plus an
   index. Shards carry cross-reference metadata: backward links are
   dependencies (preconditions), forward links are informational.
2. score_confidence — per work unit, a 0-100 score from six weighted
   factors plus a questioning phase:
     <30 triage, <60 exploration, <80 edge_cases, <95 validation,
     >=95 complete.
   Low factors come with concrete recommendations; ask the user
   clarifying questions in phase order before implementing.
3. assemble_context — one packet per unit, in declared order. Packet
   depth adapts: confident units get a lean core block (requirements,
   acceptance criteria, dependency status); uncertain units also get
   extended context mined from their shard. Packets persist in a
   session-scoped store with TTL expiry — pass session_id to group runs.

Policy constants (shard size limit, ambiguity scale, confidence deltas,
strict shard matching) live in .shardy/shardy.json; run shardy_init to
materialize them for a project.`
}
