// Package mcpserver serves a skill library over the Model Context
// Protocol. Every skill is exposed twice: as a prompt whose resolution
// renders the document body with the caller's arguments, and as a
// skill://<key> resource carrying the raw markdown. This is the interface
// an agent runtime uses to load skills as prompt fragments.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"

	"github.com/skillet-cli/skillet/pkg/logger"
	"github.com/skillet-cli/skillet/pkg/registry"
	"github.com/skillet-cli/skillet/pkg/render"
	"github.com/skillet-cli/skillet/pkg/skilldoc"
	"github.com/skillet-cli/skillet/pkg/version"
)

// ResourceScheme prefixes skill resource URIs
const ResourceScheme = "skill://"

const serverName = "skillet"

// Server bridges a skill registry onto an MCP server
type Server struct {
	registry *registry.Registry
	renderer *render.Renderer
	mcp      *server.MCPServer
}

// New builds the MCP server over the given registry. Rendering runs with
// bash splicing disabled: MCP clients are not the operator.
func New(reg *registry.Registry) *Server {
	s := &Server{
		registry: reg,
		renderer: render.New(render.WithBashDisabled()),
	}

	s.mcp = server.NewMCPServer(
		serverName,
		version.Get().Version,
		server.WithPromptCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("Skill documents from a curated library. Fetch a prompt to splice task guidance into context, or read skill:// resources for the raw markdown."),
	)

	s.registerSkills()
	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout
func (s *Server) ServeStdio(ctx context.Context) error {
	logger.G(ctx).WithField("skills", s.registry.Len()).Info("serving skill library over MCP stdio")
	return server.ServeStdio(s.mcp)
}

// MCPServer exposes the underlying server, used by tests
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) registerSkills() {
	for _, doc := range s.registry.Documents() {
		s.mcp.AddPrompt(
			mcp.NewPrompt(doc.Key(),
				mcp.WithPromptDescription(doc.Description),
			),
			s.promptHandler(doc.Key()),
		)

		s.mcp.AddResource(
			mcp.NewResource(ResourceURI(doc),
				doc.Name,
				mcp.WithResourceDescription(doc.Description),
				mcp.WithMIMEType("text/markdown"),
			),
			s.resourceHandler(doc.Key()),
		)
	}
}

// promptHandler renders the skill with the request arguments. The handler
// resolves through the registry at call time so a reloaded registry is
// not required for consistent cache behavior.
func (s *Server) promptHandler(key string) server.PromptHandlerFunc {
	return func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		doc, err := s.registry.Get(key)
		if err != nil {
			return nil, err
		}

		args := request.Params.Arguments
		rendered, err := s.registry.CachedRender(doc, render.Fingerprint(args), func() (string, error) {
			return s.renderer.Render(ctx, doc, args)
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to render skill %q", key)
		}

		return mcp.NewGetPromptResult(
			doc.Description,
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(rendered)),
			},
		), nil
	}
}

func (s *Server) resourceHandler(key string) server.ResourceHandlerFunc {
	return func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		doc, err := s.registry.Get(key)
		if err != nil {
			return nil, err
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "text/markdown",
				Text:     doc.Body,
			},
		}, nil
	}
}

// ResourceURI returns the skill:// URI of a document
func ResourceURI(doc *skilldoc.Document) string {
	return ResourceScheme + doc.Key()
}
