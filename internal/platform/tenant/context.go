// Package tenant carries the acting organization of a request.
//
// A fresh Context cell is placed on every request's context.Context by
// Middleware. A privileged override may fill it first; otherwise Resolver
// fills it from the token's organization claim. Data access reads it with
// IDFromContext.
package tenant

import "context"

type contextKey string

const cellKey contextKey = "tenant_cell"

// Context is a request-scoped cell holding the acting tenant.
// It performs no validation of the identifier.
type Context struct {
	id    string
	isSet bool
}

func (t *Context) Set(id string) {
	t.id = id
	t.isSet = true
}

// Get returns the tenant and whether one was set.
func (t *Context) Get() (string, bool) {
	if t == nil {
		return "", false
	}
	return t.id, t.isSet
}

func (t *Context) Clear() {
	t.id = ""
	t.isSet = false
}

// WithContext attaches a new, empty cell to ctx and returns both.
func WithContext(ctx context.Context) (context.Context, *Context) {
	cell := &Context{}
	return context.WithValue(ctx, cellKey, cell), cell
}

// FromContext returns the request's cell, or nil when none was attached.
func FromContext(ctx context.Context) *Context {
	cell, _ := ctx.Value(cellKey).(*Context)
	return cell
}

// IDFromContext returns the resolved tenant, or nil when unresolved.
// The pointer form plugs straight into query.Builder.Equals.
func IDFromContext(ctx context.Context) *string {
	if id, ok := FromContext(ctx).Get(); ok {
		return &id
	}
	return nil
}
