// Package access decides whether a request may act on a shared resource.
//
// A request for a public page carries a share token and, for password
// protected shares, either a password or a session that already proved the
// password. The Gate resolves the token, validates the share record and runs
// the Authorizer; the result is an Instruction telling the caller which
// environment to build. Every failure is an *Error of kind KindNotFound or
// KindUnauthorized so the HTTP layer can answer 404 or 401 without leaking
// why a link did not work.
//
// Share lookup, session storage and password hashing are injected through
// the Resolver, Session and Hasher interfaces.
package access
