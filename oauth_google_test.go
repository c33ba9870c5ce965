package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// newGoogleMock serves the token endpoint and the userinfo endpoint.
func newGoogleMock(t *testing.T, profile string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			r.ParseForm()
			if r.Form.Get("code") != "good-code" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"google-token","token_type":"Bearer","expires_in":3600}`))
		case "/userinfo":
			if r.Header.Get("Authorization") != "Bearer google-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(profile))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGoogleEnv(t *testing.T, profile string) *testEnv {
	t.Helper()
	env := newSessionEnv(t)
	mock := newGoogleMock(t, profile)
	env.h.google.Endpoint = oauth2.Endpoint{
		AuthURL:   mock.URL + "/auth",
		TokenURL:  mock.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	env.h.googleUserInfoURL = mock.URL + "/userinfo"
	return env
}

func callback(env *testEnv, state, cookieState, code string) *httptest.ResponseRecorder {
	q := url.Values{"state": {state}, "code": {code}}
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?"+q.Encode(), nil)
	if cookieState != "" {
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: cookieState})
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestGoogleLogin_Redirect(t *testing.T) {
	env := newGoogleEnv(t, `{}`)

	w := env.do(http.MethodGet, "/api/auth/google", "")
	require.Equal(t, http.StatusFound, w.Code)

	var state string
	for _, c := range w.Result().Cookies() {
		if c.Name == oauthStateCookie {
			state = c.Value
		}
	}
	require.NotEmpty(t, state)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(loc.Path, "/auth"))
	assert.Equal(t, state, loc.Query().Get("state"))
	assert.Equal(t, "client-id", loc.Query().Get("client_id"))
}

func TestGoogleCallback_CreatesUserAndSession(t *testing.T) {
	env := newGoogleEnv(t, `{"id":"g-123","email":"eva@example.com","verified_email":true,"name":"Eva"}`)

	w := callback(env, "abc", "abc", "good-code")
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/", w.Header().Get("Location"))

	cookie := sessionCookieOf(w)
	require.NotNil(t, cookie)

	u, err := env.store.userByLogin(context.Background(), "eva@example.com")
	require.NoError(t, err)
	require.NotNil(t, u.GoogleID)
	assert.Equal(t, "g-123", *u.GoogleID)
	assert.Equal(t, defaultGoals.Calories, u.DailyCalories)

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGoogleCallback_LinksExistingAccount(t *testing.T) {
	env := newGoogleEnv(t, `{"id":"g-9","email":"ana@example.com","name":"Ana G"}`)
	existing := env.store.addUser(user{Username: "ana", Email: "ana@example.com", Name: "Ana"})

	w := callback(env, "s", "s", "good-code")
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	u, err := env.store.userByID(context.Background(), existing.ID)
	require.NoError(t, err)
	require.NotNil(t, u.GoogleID)
	assert.Equal(t, "g-9", *u.GoogleID)
	assert.Equal(t, "Ana", u.Name, "an existing name is kept")
}

func TestGoogleCallback_Errors(t *testing.T) {
	env := newGoogleEnv(t, `{"id":"g-1","email":""}`)

	assert.Equal(t, http.StatusUnauthorized, callback(env, "a", "b", "good-code").Code, "state mismatch")
	assert.Equal(t, http.StatusUnauthorized, callback(env, "a", "", "good-code").Code, "no state cookie")
	assert.Equal(t, http.StatusBadRequest, callback(env, "a", "a", "").Code, "missing code")
	assert.Equal(t, http.StatusUnauthorized, callback(env, "a", "a", "bad-code").Code, "exchange fails")
	assert.Equal(t, http.StatusBadRequest, callback(env, "a", "a", "good-code").Code, "profile without email")
}
