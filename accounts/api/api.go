package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/andrebq/authbox/accounts"
	"github.com/andrebq/authbox/internal/logutil"
	"github.com/andrebq/authbox/userstore"
	"github.com/julienschmidt/httprouter"
)

const (
	maxBodySize = 1 << 20
)

type (
	api struct {
		accounts *accounts.Service
		realm    *SecurityRealm
		cookies  CookieOptions
	}

	credentialsBody struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}

	renameBody struct {
		Username string `json:"username"`
	}
)

// AsHandler exposes svc over HTTP:
//
//	POST   /auth/register
//	POST   /auth/login
//	POST   /auth/logout
//	GET    /users        (authenticated)
//	PATCH  /users/:id    (authenticated, owner)
//	DELETE /users/:id    (authenticated, owner)
func AsHandler(svc *accounts.Service, cookies CookieOptions) http.Handler {
	a := &api{
		accounts: svc,
		realm:    NewRealm(svc),
		cookies:  cookies,
	}
	router := httprouter.New()
	router.POST("/auth/register", Chain(a.register))
	router.POST("/auth/login", Chain(a.login))
	router.POST("/auth/logout", Chain(a.logout))

	router.GET("/users", Chain(a.listUsers, a.realm.Authenticated))
	router.PATCH("/users/:id", a.owned(a.updateUser))
	router.DELETE("/users/:id", a.owned(a.deleteUser))
	return logutil.Requests(router)
}

// owned is the pipeline every mutating user endpoint must go through.
func (a *api) owned(h Handler) httprouter.Handle {
	return Chain(h, a.realm.Authenticated, Owner("id"))
}

func (a *api) register(w http.ResponseWriter, req Request) {
	var body credentialsBody
	if !decodeBody(w, req, &body) {
		return
	}
	uc, err := a.accounts.Register(req.Context(), body.Email, body.Username, body.Password)
	var validation accounts.ValidationError
	switch {
	case errors.As(err, &validation):
		http.Error(w, validation.Reason, http.StatusBadRequest)
	case errors.As(err, &userstore.DuplicateEmail{}):
		http.Error(w, "User already exists", http.StatusBadRequest)
	case err != nil:
		internalError(w, req, err, "Unable to create user")
	default:
		http.SetCookie(w, a.cookies.session(uc.SessionToken))
		writeJSON(w, req, http.StatusOK, uc.Identity)
	}
}

func (a *api) login(w http.ResponseWriter, req Request) {
	var body credentialsBody
	if !decodeBody(w, req, &body) {
		return
	}
	uc, err := a.accounts.Login(req.Context(), body.Email, body.Password)
	var validation accounts.ValidationError
	var forbidden accounts.Forbidden
	switch {
	case errors.As(err, &validation):
		http.Error(w, validation.Reason, http.StatusBadRequest)
	case errors.As(err, &userstore.NotFound{}):
		http.Error(w, "User does not exist", http.StatusBadRequest)
	case errors.As(err, &forbidden):
		http.Error(w, forbidden.Reason, http.StatusForbidden)
	case err != nil:
		internalError(w, req, err, "Unable to login user")
	default:
		http.SetCookie(w, a.cookies.session(uc.SessionToken))
		writeJSON(w, req, http.StatusOK, uc.Identity)
	}
}

func (a *api) logout(w http.ResponseWriter, req Request) {
	// whatever happens next, the client should drop its cookie
	http.SetCookie(w, a.cookies.expired())
	cookie, err := req.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		http.Error(w, "Missing session token", http.StatusBadRequest)
		return
	}
	_, err = a.accounts.Logout(req.Context(), cookie.Value)
	switch {
	case errors.As(err, &userstore.NotFound{}):
		http.Error(w, "Invalid session token", http.StatusBadRequest)
	case err != nil:
		internalError(w, req, err, "Unable to logout user")
	default:
		writeJSON(w, req, http.StatusOK, map[string]string{"message": "Logged out"})
	}
}

func (a *api) listUsers(w http.ResponseWriter, req Request) {
	users, err := a.accounts.List(req.Context())
	if err != nil {
		internalError(w, req, err, "Unable to get all users")
		return
	}
	writeJSON(w, req, http.StatusOK, users)
}

func (a *api) updateUser(w http.ResponseWriter, req Request) {
	var body renameBody
	if !decodeBody(w, req, &body) {
		return
	}
	id, err := a.accounts.Rename(req.Context(), req.Identity.ID, body.Username)
	var validation accounts.ValidationError
	switch {
	case errors.As(err, &validation):
		http.Error(w, validation.Reason, http.StatusBadRequest)
	case errors.As(err, &userstore.NotFound{}):
		http.Error(w, "Unable to update user", http.StatusBadRequest)
	case err != nil:
		internalError(w, req, err, "Unable to update user")
	default:
		writeJSON(w, req, http.StatusOK, map[string]interface{}{
			"user":    id,
			"message": "User updated successfully",
		})
	}
}

func (a *api) deleteUser(w http.ResponseWriter, req Request) {
	id, err := a.accounts.Delete(req.Context(), req.Identity.ID)
	switch {
	case errors.As(err, &userstore.NotFound{}):
		http.Error(w, "Unable to delete user", http.StatusBadRequest)
	case err != nil:
		internalError(w, req, err, "Unable to delete user")
	default:
		// the session died with the account
		http.SetCookie(w, a.cookies.expired())
		writeJSON(w, req, http.StatusOK, id)
	}
}

func decodeBody(w http.ResponseWriter, req Request, out interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodySize))
	if err := dec.Decode(out); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, req Request, status int, body interface{}) {
	buf, err := json.Marshal(body)
	if err != nil {
		internalError(w, req, err, "Unable to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf)
}

func internalError(w http.ResponseWriter, req Request, err error, msg string) {
	log := logutil.GetOrDefault(req.Context())
	log.Error().Err(err).Msg(msg)
	http.Error(w, msg, http.StatusInternalServerError)
}
