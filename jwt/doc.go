// Package jwt reads the claims of access tokens held by the client and, for test
// servers, issues HS256 tokens with the same claim layout.
//
// The client never owns the signing key of the remote API, so [Inspect] decodes
// claims without verifying the signature. Its results are hints for the caller
// (expiry, subject) and must never be used for authorization decisions.
package jwt
