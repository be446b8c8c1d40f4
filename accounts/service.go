package accounts

import (
	"context"
	"errors"
	"io"

	"github.com/andrebq/authbox/credential"
	"github.com/andrebq/authbox/userstore"
)

const (
	maxSaveAttempts = 3
)

type (
	Service struct {
		store   userstore.Store
		hasher  *credential.Hasher
		issuer  *credential.Issuer
		entropy io.Reader
	}
)

// New returns a Service backed by store. A nil entropy uses crypto/rand.
func New(store userstore.Store, hasher *credential.Hasher, entropy io.Reader) *Service {
	return &Service{
		store:   store,
		hasher:  hasher,
		issuer:  credential.NewIssuer(hasher, entropy),
		entropy: entropy,
	}
}

// modify applies mutate to uc and saves it, reloading and re-applying when
// another request changed the record in between.
func (s *Service) modify(ctx context.Context, uc *userstore.UserCredential, mutate func(*userstore.UserCredential) error) error {
	for attempt := 1; ; attempt++ {
		if err := mutate(uc); err != nil {
			return err
		}
		err := s.store.Save(ctx, uc)
		var stale userstore.StaleRecord
		if !errors.As(err, &stale) || attempt == maxSaveAttempts {
			return err
		}
		fresh, err := s.store.FindByID(ctx, uc.ID)
		if err != nil {
			return err
		}
		*uc = *fresh
	}
}

func (s *Service) startSession(ctx context.Context, uc *userstore.UserCredential) error {
	return s.modify(ctx, uc, func(uc *userstore.UserCredential) error {
		token, err := s.issuer.Issue(uc.ID)
		if err != nil {
			return err
		}
		uc.SessionToken = token
		return nil
	})
}
