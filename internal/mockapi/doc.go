// Package mockapi is an in-process fake of the remote auth API. It serves the login,
// two-factor and profile endpoints the client talks to and is used by tests and the
// terminal example's demo mode.
package mockapi
