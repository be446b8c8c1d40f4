package accounts

import (
	"context"

	"github.com/andrebq/authbox/userstore"
)

// Login checks password against the stored digest and replaces the session
// token of the account. No token is issued when the password is wrong.
func (s *Service) Login(ctx context.Context, email, password string) (*userstore.UserCredential, error) {
	if email == "" || password == "" {
		return nil, ValidationError{Reason: "Missing email or password for login"}
	}
	uc, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(uc.Salt, password, uc.PasswordDigest) {
		return nil, Forbidden{Reason: "Incorrect password"}
	}
	if err = s.startSession(ctx, uc); err != nil {
		return nil, err
	}
	return uc, nil
}

// Authenticate resolves token into the identity that owns it.
func (s *Service) Authenticate(ctx context.Context, token string) (*userstore.Identity, error) {
	uc, err := s.store.FindBySessionToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &uc.Identity, nil
}
