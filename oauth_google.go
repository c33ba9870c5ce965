package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	oauthStateCookie  = "nutria_oauth_state"
)

func newGoogleOAuthConfig(cfg appConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// googleProfile is the subset of the userinfo response we use.
type googleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// googleLogin redirects to Google's consent page with a random state that is
// also stored in a short-lived cookie.
// GET /api/auth/google (public).
func (h *Handler) googleLogin(c *gin.Context) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		respondError(c, err, "falha ao iniciar login com Google")
		return
	}
	state := base64.RawURLEncoding.EncodeToString(buf)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state))
}

// googleCallback checks the state, exchanges the code, fetches the profile,
// links or creates the user and starts a session before redirecting home.
// GET /api/auth/google/callback (public).
func (h *Handler) googleCallback(c *gin.Context) {
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || c.Query("state") != state {
		apiError(c, http.StatusUnauthorized, "estado de autenticação inválido")
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		apiError(c, http.StatusBadRequest, "código de autorização ausente")
		return
	}

	tok, err := h.google.Exchange(c, code)
	if err != nil {
		log.Error().Err(err).Str("fn", "googleCallback").Msg("code exchange failed")
		apiError(c, http.StatusUnauthorized, "falha na autenticação com Google")
		return
	}

	profile, err := h.fetchGoogleProfile(c, tok)
	if err != nil {
		respondError(c, err, "falha ao obter perfil do Google")
		return
	}

	u, err := h.users.upsertGoogleUser(c, profile.ID, profile.Email, profile.Name)
	if err != nil {
		respondError(c, err, "falha ao registrar usuário do Google")
		return
	}

	token, expiresAt, err := h.auth.issue(c, u.ID)
	if err != nil {
		respondError(c, err, "falha ao iniciar sessão")
		return
	}
	setSessionCookie(c, token, expiresAt)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) fetchGoogleProfile(ctx context.Context, tok *oauth2.Token) (googleProfile, error) {
	client := h.google.Client(ctx, tok)
	resp, err := client.Get(h.googleUserInfoURL)
	if err != nil {
		return googleProfile{}, fmt.Errorf("%w: userinfo: %v", errUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return googleProfile{}, fmt.Errorf("%w: userinfo status %d", errUpstream, resp.StatusCode)
	}

	var p googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return googleProfile{}, fmt.Errorf("%w: decode userinfo: %v", errUpstream, err)
	}
	p.Email = strings.TrimSpace(p.Email)
	if p.ID == "" || p.Email == "" {
		return googleProfile{}, invalid("perfil do Google sem email")
	}
	return p, nil
}
