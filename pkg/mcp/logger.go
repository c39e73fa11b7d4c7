package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/openltablets/dtinfer/pkg/log"
)

// TracedToolHandler is the signature of tool handlers wrapped by
// [WithTracing].
type TracedToolHandler[In, Out any] func(
	context.Context,
	*mcp.ServerSession,
	*mcp.CallToolParamsFor[In],
) (*mcp.CallToolResultFor[Out], error)

// WithTracing runs handler in a span named after the tool and logs the
// call with the span's trace ID.
func WithTracing[In, Out any](
	tracer trace.Tracer,
	handler TracedToolHandler[In, Out],
) mcp.ToolHandlerFor[In, Out] {
	return func(
		ctx context.Context,
		session *mcp.ServerSession,
		params *mcp.CallToolParamsFor[In],
	) (*mcp.CallToolResultFor[Out], error) {
		name := params.Name

		ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attribute.String("tool", name)))
		defer span.End()

		logger := log.WithContext(ctx)
		logger.DebugContext(ctx, "handle tool call",
			slog.String("name", name),
			slog.Any("args", params.Arguments),
		)

		result, err := handler(ctx, session, params)
		if err != nil {
			span.RecordError(err)
			logger.ErrorContext(ctx, "tool call failed",
				slog.String("name", name),
				slog.Any("error", err),
			)

			return result, err
		}

		if result != nil && result.IsError {
			span.SetAttributes(attribute.Bool("tool.error", true))
		}

		logger.DebugContext(ctx, "tool call done", slog.String("name", name))

		return result, nil
	}
}
