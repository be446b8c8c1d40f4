// Package credential derives password digests and session tokens.
//
// Every digest is an HMAC-SHA256 over the secret (a password, or a user id
// when minting session tokens). The HMAC key is not the application key
// itself: it is expanded with HKDF from the application key and the salt, so
// two accounts with the same password never share a digest and a leaked
// digest table is useless without the application key.
//
// The application key is loaded once, at startup, and passed explicitly to
// NewHasher. Nothing in this package keeps global state.
package credential
