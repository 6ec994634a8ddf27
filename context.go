package goSession

import "context"

type routePathContextKey struct{}
type checkoutFlowContextKey struct{}

// WithRoutePath attaches the current route to ctx. The Engine uses it to
// pick the role-appropriate login destination when a refresh fails and to
// annotate notices with the route that triggered them.
func WithRoutePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, routePathContextKey{}, path)
}

// WithCheckoutFlow marks ctx as part of the checkout flow, which switches
// onboarding redirects to the checkout-specific signup step.
func WithCheckoutFlow(ctx context.Context) context.Context {
	return context.WithValue(ctx, checkoutFlowContextKey{}, true)
}

func routePathFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	path, _ := ctx.Value(routePathContextKey{}).(string)
	return path
}

func checkoutFlowFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}

	checkout, _ := ctx.Value(checkoutFlowContextKey{}).(bool)
	return checkout
}
