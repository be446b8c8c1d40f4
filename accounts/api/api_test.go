package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"testing"

	"github.com/andrebq/authbox/accounts"
	"github.com/andrebq/authbox/internal/testutil"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/require"
)

func acquireHandler(t *testing.T) (http.Handler, func()) {
	store, cleanup := testutil.AcquireStore(context.Background(), t)
	svc := accounts.New(store, testutil.RandomHasher(t), nil)
	return AsHandler(svc, CookieOptions{}), cleanup
}

func bodyContains(text string) func(*http.Response, *http.Request) error {
	return func(res *http.Response, _ *http.Request) error {
		buf, err := ioutil.ReadAll(res.Body)
		if err != nil {
			return err
		}
		if !strings.Contains(string(buf), text) {
			return fmt.Errorf("body %q does not contain %q", buf, text)
		}
		return nil
	}
}

func bodyNotContains(text string) func(*http.Response, *http.Request) error {
	return func(res *http.Response, _ *http.Request) error {
		buf, err := ioutil.ReadAll(res.Body)
		if err != nil {
			return err
		}
		if strings.Contains(string(buf), text) {
			return fmt.Errorf("body %q should not contain %q", buf, text)
		}
		return nil
	}
}

func captureBody(out *string) func(*http.Response, *http.Request) error {
	return func(res *http.Response, _ *http.Request) error {
		buf, err := ioutil.ReadAll(res.Body)
		*out = string(buf)
		return err
	}
}

func sessionFrom(t *testing.T, res apitest.Result) *http.Cookie {
	for _, c := range res.Response.Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("response has no session cookie")
	return nil
}

func register(t *testing.T, h http.Handler, email, username, password string) *http.Cookie {
	res := apitest.New().Handler(h).
		Post("/auth/register").
		JSON(fmt.Sprintf(`{"email": %q, "username": %q, "password": %q}`, email, username, password)).
		Expect(t).
		Status(http.StatusOK).
		End()
	return sessionFrom(t, res)
}

func TestRegisterScenario(t *testing.T) {
	h, cleanup := acquireHandler(t)
	defer cleanup()

	res := apitest.New().Handler(h).
		Post("/auth/register").
		JSON(`{"email": "a@x.com", "username": "alice", "password": "p1"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal(`$.username`, "alice")).
		Assert(jsonpath.Equal(`$.email`, "a@x.com")).
		Assert(jsonpath.Present(`$.id`)).
		Assert(jsonpath.NotPresent(`$.password`)).
		Assert(jsonpath.NotPresent(`$.salt`)).
		Assert(jsonpath.NotPresent(`$.sessionToken`)).
		CookiePresent(CookieName).
		End()

	cookie := sessionFrom(t, res)
	require.NotEmpty(t, cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)
	require.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	require.Equal(t, "/", cookie.Path)

	apitest.New().Handler(h).
		Post("/auth/register").
		JSON(`{"email": "a@x.com", "username": "alice", "password": "p1"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(bodyContains("User already exists")).
		CookieNotPresent(CookieName).
		End()

	apitest.New().Handler(h).
		Post("/auth/register").
		JSON(`{"email": "b@x.com", "password": "p1"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(bodyContains("Missing email, password, or username")).
		End()

	apitest.New().Handler(h).
		Post("/auth/register").
		Body(`not json`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestRegisterDoesNotLeakToken(t *testing.T) {
	h, cleanup := acquireHandler(t)
	defer cleanup()

	var body string
	res := apitest.New().Handler(h).
		Post("/auth/register").
		JSON(`{"email": "a@x.com", "username": "alice", "password": "p1"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(captureBody(&body)).
		End()
	cookie := sessionFrom(t, res)
	require.NotEmpty(t, body)
	require.NotContains(t, body, cookie.Value)
}

func TestLoginScenario(t *testing.T) {
	h, cleanup := acquireHandler(t)
	defer cleanup()

	first := register(t, h, "a@x.com", "alice", "p1")

	apitest.New().Handler(h).
		Post("/auth/login").
		JSON(`{"email": "nobody@x.com", "password": "p1"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(bodyContains("User does not exist")).
		End()

	apitest.New().Handler(h).
		Post("/auth/login").
		JSON(`{"email": "a@x.com", "password": "wrong"}`).
		Expect(t).
		Status(http.StatusForbidden).
		Assert(bodyContains("Incorrect password")).
		CookieNotPresent(CookieName).
		End()

	apitest.New().Handler(h).
		Post("/auth/login").
		JSON(`{"email": "a@x.com"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(bodyContains("Missing email or password")).
		End()

	seen := map[string]bool{first.Value: true}
	for i := 0; i < 3; i++ {
		res := apitest.New().Handler(h).
			Post("/auth/login").
			JSON(`{"email": "a@x.com", "password": "p1"}`).
			Expect(t).
			Status(http.StatusOK).
			Assert(jsonpath.Equal(`$.username`, "alice")).
			Assert(jsonpath.NotPresent(`$.salt`)).
			End()
		cookie := sessionFrom(t, res)
		require.False(t, seen[cookie.Value], "login must issue a fresh token")
		seen[cookie.Value] = true
	}
}

func TestLogoutScenario(t *testing.T) {
	h, cleanup := acquireHandler(t)
	defer cleanup()

	session := register(t, h, "a@x.com", "alice", "p1")

	apitest.New().Handler(h).
		Post("/auth/logout").
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(bodyContains("Missing session token")).
		End()

	apitest.New().Handler(h).
		Post("/auth/logout").
		Cookie(CookieName, "bogus").
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(bodyContains("Invalid session token")).
		End()

	apitest.New().Handler(h).
		Get("/users").
		Cookie(CookieName, session.Value).
		Expect(t).
		Status(http.StatusOK).
		End()

	res := apitest.New().Handler(h).
		Post("/auth/logout").
		Cookie(CookieName, session.Value).
		Expect(t).
		Status(http.StatusOK).
		End()
	cleared := sessionFrom(t, res)
	require.Empty(t, cleared.Value)
	require.True(t, cleared.MaxAge < 0)

	apitest.New().Handler(h).
		Get("/users").
		Cookie(CookieName, session.Value).
		Expect(t).
		Status(http.StatusForbidden).
		End()
}

func TestUsersEndpoints(t *testing.T) {
	h, cleanup := acquireHandler(t)
	defer cleanup()

	alice := register(t, h, "a@x.com", "alice", "p1")
	register(t, h, "b@x.com", "bob", "p2")

	apitest.New().Handler(h).
		Get("/users").
		Expect(t).
		Status(http.StatusForbidden).
		End()

	var listing string
	apitest.New().Handler(h).
		Get("/users").
		Cookie(CookieName, alice.Value).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len(`$`, 2)).
		Assert(jsonpath.Equal(`$[0].username`, "alice")).
		Assert(jsonpath.Equal(`$[1].username`, "bob")).
		Assert(bodyNotContains("salt")).
		Assert(bodyNotContains(alice.Value)).
		Assert(captureBody(&listing)).
		End()
	aliceID := idOf(t, listing, "alice")
	bobID := idOf(t, listing, "bob")

	// authenticated, but not the owner
	apitest.New().Handler(h).
		Patch("/users/"+bobID).
		Cookie(CookieName, alice.Value).
		JSON(`{"username": "mallory"}`).
		Expect(t).
		Status(http.StatusForbidden).
		Assert(bodyContains("You are not the owner")).
		End()
	apitest.New().Handler(h).
		Delete("/users/"+bobID).
		Cookie(CookieName, alice.Value).
		Expect(t).
		Status(http.StatusForbidden).
		End()

	apitest.New().Handler(h).
		Patch("/users/"+aliceID).
		Cookie(CookieName, alice.Value).
		JSON(`{"username": ""}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(bodyContains("Missing username")).
		End()

	apitest.New().Handler(h).
		Patch("/users/"+aliceID).
		Cookie(CookieName, alice.Value).
		JSON(`{"username": "alicia"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal(`$.user.username`, "alicia")).
		Assert(jsonpath.Equal(`$.message`, "User updated successfully")).
		End()

	apitest.New().Handler(h).
		Delete("/users/"+aliceID).
		Cookie(CookieName, alice.Value).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal(`$.id`, aliceID)).
		End()

	// the deleted account's session is gone
	apitest.New().Handler(h).
		Get("/users").
		Cookie(CookieName, alice.Value).
		Expect(t).
		Status(http.StatusForbidden).
		End()
}

func idOf(t *testing.T, listing string, username string) string {
	var users []struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal([]byte(listing), &users))
	for _, u := range users {
		if u.Username == username {
			return u.ID
		}
	}
	t.Fatalf("user %v not in listing", username)
	return ""
}
