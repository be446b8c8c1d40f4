package api

import (
	"net/http"
	"time"
)

const (
	CookieName = "AUTH_TOKEN"
)

type (
	CookieOptions struct {
		Domain string
	}
)

// The session token only ever leaves the server in this cookie: script
// access is disabled and browsers only send it over TLS.
func (o CookieOptions) session(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Domain:   o.Domain,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

func (o CookieOptions) expired() *http.Cookie {
	c := o.session("")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}
