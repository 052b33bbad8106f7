// Package mcp exposes the combat engine and roster over the Model Context
// Protocol so chat-based game masters can run encounters.
package mcp

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/louisbranch/torchlight/internal/combat/projection"
	"github.com/louisbranch/torchlight/internal/combat/service"
	"github.com/louisbranch/torchlight/internal/storage"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Torchlight MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// Server hosts the MCP server.
type Server struct {
	mcpServer *server.MCPServer
}

// Dependencies carries the engine-side collaborators the tools call into.
type Dependencies struct {
	Combat     *service.Service
	Projection *projection.Projector
	Opponents  storage.OpponentStore
}

// New creates a configured MCP server over the combat engine.
func New(deps Dependencies) (*Server, error) {
	if deps.Combat == nil {
		return nil, fmt.Errorf("combat engine is required")
	}
	if deps.Projection == nil {
		return nil, fmt.Errorf("combat projection is required")
	}
	if deps.Opponents == nil {
		return nil, fmt.Errorf("opponent store is required")
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	mcpServer.AddTool(combatStartTool(), combatStartHandler(deps.Combat))
	mcpServer.AddTool(combatStateTool(), combatStateHandler(deps.Projection))
	mcpServer.AddTool(combatAdvanceTurnTool(), combatAdvanceTurnHandler(deps.Combat))
	mcpServer.AddTool(combatFinishTool(), combatFinishHandler(deps.Combat))
	mcpServer.AddTool(combatAddParticipantTool(), combatAddParticipantHandler(deps.Combat))
	mcpServer.AddTool(combatRemoveParticipantTool(), combatRemoveParticipantHandler(deps.Combat))
	mcpServer.AddTool(combatSetInitiativeTool(), combatSetInitiativeHandler(deps.Combat))
	mcpServer.AddTool(combatAddEffectTool(), combatAddEffectHandler(deps.Combat))
	mcpServer.AddTool(combatRemoveEffectTool(), combatRemoveEffectHandler(deps.Combat))
	mcpServer.AddTool(rosterListOpponentsTool(), rosterListOpponentsHandler(deps.Opponents))

	return &Server{mcpServer: mcpServer}, nil
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
