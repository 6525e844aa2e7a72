package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"unixman/internal/catalog"
	"unixman/internal/config"
	"unixman/internal/library"
	"unixman/internal/logging"
	"unixman/internal/manual"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// serverName identifies this MCP server to clients.
const serverName = "unix-manual-server"

// categoriesURI is the static resource with the category table.
const categoriesURI = "unixman://categories"

// Server hosts the MCP server and the domain services behind it.
type Server struct {
	mcpServer *server.MCPServer
	log       *logging.AppLogger
}

// New builds a fully wired MCP server from the user configuration.
// A nil config uses the defaults; a nil logger selects the process default.
func New(cfg *config.Config, logger *logging.AppLogger, version string) *Server {
	if cfg == nil {
		defaults := config.DefaultConfig()
		cfg = &defaults
	}
	if logger == nil {
		logger = logging.GetDefault()
	}
	if version == "" {
		version = "dev"
	}

	engine := manual.NewEngine(manual.Options{
		Shell:          cfg.Shell,
		HelpTimeout:    cfg.HelpTimeout.Std(),
		ManTimeout:     cfg.ManTimeout.Std(),
		ResolveTimeout: cfg.ResolveTimeout.Std(),
	}, logger)
	lister := catalog.NewLister(cfg.CommandDirs, logger)
	sheets := library.NewManager(cfg.Library.StorageDir, logger)

	mcpServer := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	mcpServer.AddTool(documentationTool(), documentationHandler(engine))
	mcpServer.AddTool(listCommandsTool(), listCommandsHandler(lister))
	mcpServer.AddTool(checkCommandTool(), checkCommandHandler(engine))
	mcpServer.AddTool(cheatsheetTool(), cheatsheetHandler(sheets))

	mcpServer.AddResource(categoriesResource(), categoriesHandler())

	logger.Info("MCP server configured",
		"name", serverName,
		"version", version,
		"shell", cfg.Shell,
		"commandDirs", cfg.CommandDirs,
		"storageDir", cfg.Library.StorageDir)

	return &Server{mcpServer: mcpServer, log: logger}
}

// Serve runs the server on stdio until the client disconnects. Stdout is
// reserved for protocol traffic from this point on.
func (s *Server) Serve() error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}

	s.log.Info("Serving MCP over stdio")
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// categoryJSON shapes the resource payload.
type categoryJSON struct {
	Name     string   `json:"name"`
	Commands []string `json:"commands"`
}

// categoriesResource declares the static category table resource.
func categoriesResource() mcp.Resource {
	return mcp.NewResource(
		categoriesURI,
		"Command categories",
		mcp.WithResourceDescription("The fixed category table used by list-common-commands"),
		mcp.WithMIMEType("application/json"),
	)
}

// categoriesHandler serves the category table as JSON.
func categoriesHandler() func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		cats := catalog.Categories()
		payload := make([]categoryJSON, len(cats))
		for i, cat := range cats {
			payload[i] = categoryJSON{Name: cat.Name, Commands: cat.Commands}
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode categories: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}

// serverInstructions tells clients what the tools are for and how to pick
// between them.
func serverInstructions() string {
	return `This server documents the Unix commands installed on the local system.

Use get-command-documentation to fetch documentation for a command. By
default it tries the command's own --help style output first and falls
back to the man page; set prefer_economic to false to read the full man
page first. Pass a command with a subcommand ("git commit") to get
subcommand help.

Use check-command-exists before suggesting a command when you are unsure
it is installed. Use list-common-commands for an overview of what is
available, grouped into File Operations, Text Processing, System
Information, and Networking.

Use get-command-cheatsheet for the user's own notes on a command; these
are curated markdown files and may not exist for every command.

All lookups run locally. Command names are validated before anything is
executed, and only the documentation probes themselves are run.`
}
