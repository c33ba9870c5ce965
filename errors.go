package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

var (
	errNotFound     = errors.New("not found")
	errUnauthorized = errors.New("unauthorized")
	errUpstream     = errors.New("upstream request failed")
	errLLMParse     = errors.New("could not parse ai response")
)

// validationError carries a user-facing message for a malformed request.
type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

// notFoundError carries a user-facing message and matches errNotFound.
type notFoundError struct{ msg string }

func (e *notFoundError) Error() string        { return e.msg }
func (e *notFoundError) Is(target error) bool { return target == errNotFound }

func notFound(msg string) error { return &notFoundError{msg: msg} }

// conflictError reports a uniqueness clash with a user-facing message.
type conflictError struct{ msg string }

func (e *conflictError) Error() string { return e.msg }

func conflict(msg string) error { return &conflictError{msg: msg} }

// notFoundOr converts pgx.ErrNoRows into a notFoundError with msg and returns
// every other error unchanged.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound(msg)
	}
	return err
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondError maps err onto the error taxonomy and writes the response.
// fallback is the message used for unexpected (500) errors.
func respondError(c *gin.Context, err error, fallback string) {
	var ve *validationError
	var nf *notFoundError
	var ce *conflictError
	switch {
	case errors.As(err, &ve):
		apiError(c, http.StatusBadRequest, ve.msg)
	case errors.As(err, &nf):
		apiError(c, http.StatusNotFound, nf.msg)
	case errors.As(err, &ce):
		apiError(c, http.StatusConflict, ce.msg)
	case errors.Is(err, errNotFound), errors.Is(err, pgx.ErrNoRows):
		apiError(c, http.StatusNotFound, "registro não encontrado")
	case errors.Is(err, errUnauthorized):
		apiError(c, http.StatusUnauthorized, "não autenticado")
	case errors.Is(err, errUpstream):
		log.Error().Err(err).Str("route", c.FullPath()).Msg("upstream failure")
		apiError(c, http.StatusBadGateway, fallback)
	case errors.Is(err, errLLMParse):
		log.Error().Err(err).Str("route", c.FullPath()).Msg("unparseable ai response")
		apiError(c, http.StatusInternalServerError, "não foi possível interpretar a resposta da IA")
	default:
		log.Error().Err(err).Str("route", c.FullPath()).Msg(fallback)
		apiError(c, http.StatusInternalServerError, fallback)
	}
}
