package transport

import "context"

type callFlagsKey struct{}

type callFlags struct {
	anonymous bool
	noGuard   bool
	bearer    string
	requestID string
}

func flagsFrom(ctx context.Context) callFlags {
	if ctx == nil {
		return callFlags{}
	}
	f, _ := ctx.Value(callFlagsKey{}).(callFlags)
	return f
}

func withFlags(ctx context.Context, update func(*callFlags)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	f := flagsFrom(ctx)
	update(&f)
	return context.WithValue(ctx, callFlagsKey{}, f)
}

// WithAnonymous marks calls made with ctx as anonymous: no bearer credential is
// attached and a 401 is returned to the caller without session teardown.
func WithAnonymous(ctx context.Context) context.Context {
	return withFlags(ctx, func(f *callFlags) { f.anonymous = true })
}

// IsAnonymous reports whether ctx was marked by [WithAnonymous].
func IsAnonymous(ctx context.Context) bool {
	return flagsFrom(ctx).anonymous
}

// WithBearer attaches token instead of the stored access token. Used for
// short-lived challenge tokens that must never reach the token store.
func WithBearer(ctx context.Context, token string) context.Context {
	return withFlags(ctx, func(f *callFlags) { f.bearer = token })
}

// WithoutSessionGuard keeps the credential but disables 401 handling for calls made
// with ctx. Used by reachability probes.
func WithoutSessionGuard(ctx context.Context) context.Context {
	return withFlags(ctx, func(f *callFlags) { f.noGuard = true })
}

// WithRequestID sets the X-Request-ID sent by calls made with ctx, so one
// operation can be correlated across its request, logs and audit trail.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withFlags(ctx, func(f *callFlags) { f.requestID = id })
}

// RequestIDFrom returns the id set by [WithRequestID], or "".
func RequestIDFrom(ctx context.Context) string {
	return flagsFrom(ctx).requestID
}
