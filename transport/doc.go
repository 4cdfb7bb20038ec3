// Package transport is the single chokepoint for outbound calls to the remote API.
//
// Every call carries the current access token from the token store as a bearer
// credential unless the call's context is marked with [WithAnonymous]. A 401 on a
// credentialed call clears the token store and sends the navigator to the login
// boundary, except when the navigator already sits inside one of the public paths.
// Failures where no response arrived at all are reported as [*NetworkError] with a
// stable user-facing message; the raw cause stays reachable through errors.Unwrap.
//
// # What this package must NOT do
//
//   - Retry requests. Re-probing belongs to the liveness monitor.
//   - Turn per-call flags into request headers.
//   - Cache tokens: the store is read at dispatch time on every call.
package transport
