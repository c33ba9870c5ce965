package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a pre-computed bcrypt hash used when a login username isn't found.
// Running bcrypt against it (instead of returning early) keeps response time
// constant, preventing timing-based username enumeration.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy"), bcrypt.DefaultCost)

// register creates an account with default goals and starts a session.
// POST /api/register (public).
func (h *Handler) register(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Name     string `json:"name"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "informe usuário, email válido e senha com pelo menos 6 caracteres")
		return
	}
	body.Username = strings.TrimSpace(body.Username)
	if body.Username == "" {
		apiError(c, http.StatusBadRequest, "usuário é obrigatório")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err, "falha ao criar usuário")
		return
	}
	password := string(hash)
	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = body.Username
	}

	u, err := h.users.createUser(c, user{
		Username:      body.Username,
		Email:         body.Email,
		Name:          name,
		Password:      &password,
		Goal:          "maintain",
		DailyCalories: defaultGoals.Calories,
		DailyProtein:  defaultGoals.Protein,
		DailyCarbs:    defaultGoals.Carbs,
		DailyFat:      defaultGoals.Fat,
	})
	if err != nil {
		respondError(c, err, "falha ao criar usuário")
		return
	}
	h.startSession(c, http.StatusCreated, u)
}

// login verifies username (or email) and password and starts a session.
// POST /api/login (public).
func (h *Handler) login(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	u, lookupErr := h.users.userByLogin(c, strings.TrimSpace(body.Username))
	if lookupErr != nil && !errors.Is(lookupErr, errNotFound) {
		respondError(c, lookupErr, "falha ao autenticar")
		return
	}

	// Always run bcrypt so unknown usernames and Google-only accounts take as long as a wrong password.
	hashToCheck := string(dummyHash)
	if lookupErr == nil && u.Password != nil {
		hashToCheck = *u.Password
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(hashToCheck), []byte(body.Password))

	if lookupErr != nil || u.Password == nil || compareErr != nil {
		apiError(c, http.StatusUnauthorized, "credenciais inválidas")
		return
	}
	h.startSession(c, http.StatusOK, u)
}

// logout revokes the current credential and clears the cookie.
// POST /api/logout.
func (h *Handler) logout(c *gin.Context) {
	if err := h.auth.revoke(c, requestCredential(c)); err != nil {
		log.Error().Err(err).Str("fn", "logout").Msg("revoke failed")
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "sessão encerrada"})
}

// getCurrentUser returns the authenticated user's profile and goals.
// GET /api/user.
func (h *Handler) getCurrentUser(c *gin.Context) {
	u, err := h.users.userByID(c, currentUserID(c))
	if err != nil {
		respondError(c, err, "falha ao carregar usuário")
		return
	}
	c.JSON(http.StatusOK, u)
}

// startSession issues a credential for u, sets the session cookie and writes
// {token, user} with the given status.
func (h *Handler) startSession(c *gin.Context, status int, u user) {
	token, expiresAt, err := h.auth.issue(c, u.ID)
	if err != nil {
		respondError(c, err, "falha ao iniciar sessão")
		return
	}
	setSessionCookie(c, token, expiresAt)
	c.JSON(status, gin.H{"token": token, "user": u})
}

func setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(time.Until(expiresAt).Seconds()), "/", "", c.Request.TLS != nil, true)
}

// requestCredential reads the session cookie, falling back to a Bearer token.
func requestCredential(c *gin.Context) string {
	if cookie, err := c.Cookie(sessionCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// authMiddleware resolves the request credential and sets user_id on the context.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := h.auth.resolve(c, requestCredential(c))
		if err != nil {
			if !errors.Is(err, errUnauthorized) {
				log.Error().Err(err).Str("fn", "authMiddleware").Msg("resolve credential")
			}
			apiError(c, http.StatusUnauthorized, "não autenticado")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
