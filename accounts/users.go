package accounts

import (
	"context"

	"github.com/andrebq/authbox/userstore"
)

func (s *Service) List(ctx context.Context) ([]userstore.Identity, error) {
	return s.store.List(ctx)
}

func (s *Service) Rename(ctx context.Context, id, username string) (*userstore.Identity, error) {
	if username == "" {
		return nil, ValidationError{Reason: "Missing username"}
	}
	uc, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.modify(ctx, uc, func(uc *userstore.UserCredential) error {
		uc.Username = username
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &uc.Identity, nil
}

// Delete removes the account, which also ends its session.
func (s *Service) Delete(ctx context.Context, id string) (*userstore.Identity, error) {
	uc, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &uc.Identity, nil
}
