// Package flows contains pure-function orchestrators for the Client session
// operations.
//
// Each flow function (RunLogin, RunVerifyTwoFactor, RunLogout) accepts a typed
// dependency struct and performs no I/O of its own: the remote call, token
// persistence, metrics and audit emission all go through the dependency funcs.
// This keeps the Client type thin and lets every branch be tested with fakes.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goSession (to avoid import cycles).
//   - Perform I/O directly.
package flows
