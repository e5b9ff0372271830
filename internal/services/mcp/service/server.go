package service

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/wfrp3e.dice/internal/services/mcp/domain"
)

const (
	// serverName identifies the MCP implementation to clients.
	serverName = "wfrp3e-dice"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"

	tracerName = "github.com/louisbranch/wfrp3e.dice/internal/services/mcp"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP runs MCP over streamable HTTP for remote clients.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	Transport TransportKind
	HTTPAddr  string // HTTP listen address. Defaults to localhost:8081.
	// NewSeed generates server seeds for rolls without a replay seed. Nil
	// uses the crypto-backed generator.
	NewSeed func() (int64, error)
}

// NewServer builds an MCP server with every dice tool registered.
func NewServer(newSeed func() (int64, error)) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	server.AddReceivingMiddleware(tracingMiddleware)
	registerDiceTools(server, newSeed)
	return server
}

func registerDiceTools(server *mcp.Server, newSeed func() (int64, error)) {
	mcp.AddTool(server, domain.RollTool(), domain.RollHandler(newSeed))
	mcp.AddTool(server, domain.FacesTool(), domain.FacesHandler())
	mcp.AddTool(server, domain.ProbabilityTool(), domain.ProbabilityHandler())
	mcp.AddTool(server, domain.RulesVersionTool(), domain.RulesVersionHandler())
}

// tracingMiddleware opens one server span per MCP request.
func tracingMiddleware(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		ctx, span := otel.Tracer(tracerName).Start(ctx, "mcp."+method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		span.SetAttributes(attribute.String("mcp.method", method))
		if call, ok := req.(*mcp.CallToolRequest); ok && call.Params != nil {
			span.SetAttributes(attribute.String("mcp.tool", call.Params.Name))
		}
		result, err := next(ctx, method, req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return result, err
	}
}
