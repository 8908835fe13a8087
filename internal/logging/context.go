package logging

import "context"

type ctxKey struct{}

// ContextWithRequestID returns ctx carrying id. Both backends add it to every
// entry logged with that context under the "request_id" key.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestIDFrom returns the request id stored by ContextWithRequestID.
func RequestIDFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok
}

// withRequestID appends the context request id to args.
func withRequestID(ctx context.Context, args []any) []any {
	id, ok := RequestIDFrom(ctx)
	if !ok {
		return args
	}
	return append(args[:len(args):len(args)], "request_id", id)
}
