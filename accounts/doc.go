// Package accounts implements registration, login, logout and the account
// operations that depend on a resolved identity.
//
// Passwords are never stored: at registration a random salt is generated
// and only the keyed digest of the password is kept. Login recomputes the
// digest with the stored salt and, if it matches, mints a new session token
// which replaces any previous one. The token is what the HTTP layer hands to
// the client (as a cookie) and what it later exchanges for an Identity.
//
// A session is issued both at registration and at login, so a client that
// just registered does not need a second round trip.
package accounts
