// Package twofactor drives the second step of a login: collecting a six-digit TOTP
// code or an eight-digit backup code, checking its shape locally, and submitting it
// to a [Verifier].
//
// The state machine is the pure function [Reduce]; [Engine] wraps it with a mutex and
// runs the one side effect (the verification call). UI layers either feed events to
// an Engine or call Reduce directly.
//
// Format errors never reach the network, and a rejected code leaves the engine in
// [PhaseEditing] with the input kept and the message set. Neither is returned as an
// error from [Engine.Submit].
package twofactor
