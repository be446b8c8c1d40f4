package accounts

import (
	"context"

	"github.com/andrebq/authbox/userstore"
)

// Logout clears the stored session token. It fails with userstore.NotFound
// when token does not belong to any account.
func (s *Service) Logout(ctx context.Context, token string) (*userstore.Identity, error) {
	if token == "" {
		return nil, ValidationError{Reason: "Missing session token"}
	}
	uc, err := s.store.FindBySessionToken(ctx, token)
	if err != nil {
		return nil, err
	}
	err = s.modify(ctx, uc, func(uc *userstore.UserCredential) error {
		if uc.SessionToken != token {
			// a concurrent login already replaced it
			return userstore.NotFound{Lookup: "session token"}
		}
		uc.SessionToken = ""
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &uc.Identity, nil
}
