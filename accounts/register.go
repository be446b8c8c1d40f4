package accounts

import (
	"context"
	"fmt"

	"github.com/andrebq/authbox/credential"
	"github.com/andrebq/authbox/userstore"
)

// Register creates the account and starts its first session.
func (s *Service) Register(ctx context.Context, email, username, password string) (*userstore.UserCredential, error) {
	uc, err := s.createAccount(ctx, email, username, password)
	if err != nil {
		return nil, err
	}
	if err = s.startSession(ctx, uc); err != nil {
		return nil, fmt.Errorf("account %v created but session not started, cause %w", uc.ID, err)
	}
	return uc, nil
}

// Provision creates the account without a session, the user has to login
// to get one.
func (s *Service) Provision(ctx context.Context, email, username, password string) (*userstore.Identity, error) {
	uc, err := s.createAccount(ctx, email, username, password)
	if err != nil {
		return nil, err
	}
	return &uc.Identity, nil
}

func (s *Service) createAccount(ctx context.Context, email, username, password string) (*userstore.UserCredential, error) {
	if email == "" || username == "" || password == "" {
		return nil, ValidationError{Reason: "Missing email, password, or username for register"}
	}
	salt, err := credential.RandomSalt(s.entropy)
	if err != nil {
		return nil, err
	}
	return s.store.Create(ctx, email, username, salt, s.hasher.Hash(salt, password))
}
