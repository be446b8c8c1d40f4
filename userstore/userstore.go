// Package userstore persists account credentials.
//
// General read paths (List) only ever project the public Identity columns;
// salt, digest and session token are loaded exclusively by the Find* calls
// used on the login, logout and authentication paths.
package userstore

import (
	"context"
)

type (
	Identity struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	UserCredential struct {
		Identity

		Salt           string `json:"-"`
		PasswordDigest string `json:"-"`
		// SessionToken is empty when there is no active session.
		SessionToken string `json:"-"`
		// Revision is bumped by every successful Save.
		Revision int64 `json:"-"`
	}

	Store interface {
		FindByEmail(ctx context.Context, email string) (*UserCredential, error)
		FindBySessionToken(ctx context.Context, token string) (*UserCredential, error)
		FindByID(ctx context.Context, id string) (*UserCredential, error)
		// Revision reads only the revision of the account with the given id.
		Revision(ctx context.Context, id string) (int64, error)
		Create(ctx context.Context, email, username, salt, passwordDigest string) (*UserCredential, error)
		// Save persists username and session token of uc in a single statement.
		// It fails with StaleRecord when uc was changed since it was loaded.
		Save(ctx context.Context, uc *UserCredential) error
		DeleteByID(ctx context.Context, id string) (*UserCredential, error)
		List(ctx context.Context) ([]Identity, error)
		Close() error
	}
)
