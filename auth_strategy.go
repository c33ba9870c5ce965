package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const (
	sessionCookie = "nutria_session"
	sessionTTL    = 7 * 24 * time.Hour
)

// authenticator issues and resolves the credential carried by every
// authenticated request. One implementation is picked at startup.
type authenticator interface {
	issue(ctx context.Context, userID int) (token string, expiresAt time.Time, err error)
	resolve(ctx context.Context, token string) (int, error)
	revoke(ctx context.Context, token string) error
}

// newAuthenticator returns the strategy named by cfg.AuthStrategy.
func newAuthenticator(cfg appConfig, sessions sessionStore) (authenticator, error) {
	switch cfg.AuthStrategy {
	case authStrategySession:
		return &sessionAuth{store: sessions, ttl: sessionTTL, now: time.Now}, nil
	case authStrategyJWT:
		return &jwtAuth{secret: []byte(cfg.SessionSecret), ttl: sessionTTL, now: time.Now}, nil
	case authStrategyDev:
		return devAuth{userID: cfg.DevUserID}, nil
	}
	return nil, fmt.Errorf("unknown auth strategy %q", cfg.AuthStrategy)
}

/* ─── Session strategy ───────────────────────────────────────────────── */

// sessionAuth keeps sessions in the database; the token is the session id.
type sessionAuth struct {
	store sessionStore
	ttl   time.Duration
	now   func() time.Time
}

func (a *sessionAuth) issue(ctx context.Context, userID int) (string, time.Time, error) {
	expiresAt := a.now().Add(a.ttl)
	token, err := a.store.createSession(ctx, userID, expiresAt)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (a *sessionAuth) resolve(ctx context.Context, token string) (int, error) {
	if token == "" {
		return 0, errUnauthorized
	}
	userID, err := a.store.sessionUser(ctx, token, a.now())
	if errors.Is(err, errNotFound) {
		return 0, errUnauthorized
	}
	return userID, err
}

func (a *sessionAuth) revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return a.store.deleteSession(ctx, token)
}

// sweep deletes expired sessions every interval until ctx is done.
func (a *sessionAuth) sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.store.pruneSessions(ctx, a.now())
			if err != nil {
				log.Warn().Err(err).Msg("prune sessions failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("expired sessions pruned")
			}
		}
	}
}

/* ─── JWT strategy ───────────────────────────────────────────────────── */

// jwtAuth issues stateless HS256 tokens. Revocation is a no-op: a token stays
// valid until it expires.
type jwtAuth struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (a *jwtAuth) issue(_ context.Context, userID int) (string, time.Time, error) {
	now := a.now()
	expiresAt := now.Add(a.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

func (a *jwtAuth) resolve(_ context.Context, token string) (int, error) {
	if token == "" {
		return 0, errUnauthorized
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return 0, errUnauthorized
	}
	userID, err := strconv.Atoi(claims.Subject)
	if err != nil || userID <= 0 {
		return 0, errUnauthorized
	}
	return userID, nil
}

func (a *jwtAuth) revoke(context.Context, string) error { return nil }

/* ─── Dev strategy ───────────────────────────────────────────────────── */

// devAuth authenticates every request as one fixed user. Only selectable
// through AUTH_STRATEGY=dev.
type devAuth struct{ userID int }

func (a devAuth) issue(context.Context, int) (string, time.Time, error) {
	return "dev", time.Now().Add(sessionTTL), nil
}

func (a devAuth) resolve(context.Context, string) (int, error) { return a.userID, nil }

func (a devAuth) revoke(context.Context, string) error { return nil }
