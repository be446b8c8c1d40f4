package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/andrebq/authbox/accounts"
	"github.com/andrebq/authbox/internal/logutil"
	"github.com/andrebq/authbox/userstore"
	"github.com/julienschmidt/httprouter"
)

type (
	// Request is what flows through a guard pipeline. Guards never mutate
	// it in place, they return the value the next stage should see.
	Request struct {
		*http.Request
		Params   httprouter.Params
		Identity *userstore.Identity
	}

	Rejection struct {
		Status int
		Reason string
	}

	Guard   func(Request) (Request, *Rejection)
	Handler func(http.ResponseWriter, Request)

	SecurityRealm struct {
		accounts *accounts.Service
	}

	identityKey struct{}
)

func NewRealm(svc *accounts.Service) *SecurityRealm {
	return &SecurityRealm{accounts: svc}
}

// Chain runs guards in order and calls h only if none of them rejected the
// request.
func Chain(h Handler, guards ...Guard) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		req := Request{Request: r, Params: params}
		for _, g := range guards {
			var rej *Rejection
			req, rej = g(req)
			if rej != nil {
				http.Error(w, rej.Reason, rej.Status)
				return
			}
		}
		h(w, req)
	}
}

// Authenticated resolves the session cookie into an Identity. It only tells
// who is calling, authorization is left to later guards.
func (s *SecurityRealm) Authenticated(req Request) (Request, *Rejection) {
	ctx := req.Context()
	log := logutil.GetOrDefault(ctx)
	cookie, err := req.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return req, &Rejection{Status: http.StatusForbidden, Reason: "Forbidden - No session token found"}
	}
	id, err := s.accounts.Authenticate(ctx, cookie.Value)
	if errors.As(err, &userstore.NotFound{}) {
		return req, &Rejection{Status: http.StatusForbidden, Reason: "No user found for session token"}
	} else if err != nil {
		log.Error().Err(err).Msg("Unexpected error when resolving session token")
		return req, &Rejection{Status: http.StatusUnauthorized, Reason: "Unable to authenticate user"}
	}
	ctx = context.WithValue(ctx, identityKey{}, *id)
	ctx = logutil.WithLogger(ctx, log.With().Str("user.id", id.ID).Logger())
	req.Request = req.WithContext(ctx)
	req.Identity = id
	return req, nil
}

// Owner only lets the request through when the authenticated identity is
// the one named by the param path parameter. It fails closed when no
// identity was resolved.
func Owner(param string) Guard {
	return func(req Request) (Request, *Rejection) {
		if req.Identity == nil || req.Identity.ID == "" {
			return req, &Rejection{Status: http.StatusForbidden, Reason: "Forbidden"}
		}
		if req.Identity.ID != req.Params.ByName(param) {
			return req, &Rejection{Status: http.StatusForbidden, Reason: "Forbidden - You are not the owner"}
		}
		return req, nil
	}
}

// IdentityFrom returns the identity attached by Authenticated.
func IdentityFrom(ctx context.Context) (userstore.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(userstore.Identity)
	return id, ok
}
