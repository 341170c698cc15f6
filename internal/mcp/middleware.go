package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const requestIDKey contextKey = iota

const requestIDHeader = "X-Request-Id"

// getRequestID extracts the HTTP request id from context.
func getRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// requestIDMiddleware carries the front door's X-Request-Id into tool
// handlers so their log lines can be joined with the access log.
func requestIDMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if req == nil {
				return next(ctx, method, req)
			}
			if extra := req.GetExtra(); extra != nil && extra.Header != nil {
				if id := extra.Header.Get(requestIDHeader); id != "" {
					ctx = context.WithValue(ctx, requestIDKey, id)
				}
			}
			return next(ctx, method, req)
		}
	}
}
