// Package goSession is the session core of an application that talks to a remote
// JSON API: it persists the credential pair, authenticates outgoing calls, drives
// two-factor verification and watches API reachability.
//
// A [Client] is built once through [Builder.Build] and is safe for concurrent use.
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Client], [Builder], [Config] and value
// types (LoginResult, SessionInfo, MetricsSnapshot). The four components live in
// their own packages and can be used alone:
//
//   - tokenstore: the credential pair and cached profile (memory, file, redis).
//   - transport: bearer injection, 401 teardown and redirect, typed errors.
//   - twofactor: the pure verification state machine and its effect executor.
//   - liveness: the edge-triggered reachability monitor.
//
// Flow orchestration for login, verification and logout lives under internal/ and
// is never exported.
//
// # Session teardown
//
// Any 401 on a call that carried the stored credential clears the token store and
// sends the navigator to the login path, unless it is already on a public path.
// Anonymous calls, the liveness probe and two-factor verification never tear the
// session down.
package goSession
