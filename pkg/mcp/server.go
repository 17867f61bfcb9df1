// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes the image service as Model Context Protocol tools,
// over stdio for local agent hosts or streamable HTTP behind the gateway.
package mcp

import (
	"context"
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/leseb/meigen-gw/pkg/core/services"
	"github.com/leseb/meigen-gw/pkg/observability/logging"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "meigen"

// Server registers the gallery and generation tools on an MCP server.
type Server struct {
	images *services.ImageService
	logger *logging.Logger
	server *sdkmcp.Server
}

// NewServer creates the MCP server with every tool registered.
func NewServer(images *services.ImageService, version string, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		images: images,
		logger: logger,
		server: sdkmcp.NewServer(&sdkmcp.Implementation{
			Name:    ServerName,
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

// SDK returns the underlying protocol server.
func (s *Server) SDK() *sdkmcp.Server {
	return s.server
}

// HTTPHandler serves the tools over the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return s.server
	}, nil)
}

// RunStdio serves a single client on stdin/stdout until ctx is done or the
// client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("Serving MCP over stdio")
	return s.server.Run(ctx, &sdkmcp.StdioTransport{})
}
