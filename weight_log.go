package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

const maxWeightKG = 500

// weightStore persists body-weight entries. UNIQUE(user_id, date).
type weightStore interface {
	listWeights(ctx context.Context, userID int, from, to string) ([]weightEntry, error)
	upsertWeight(ctx context.Context, userID int, date string, kg float64) (weightEntry, error)
	updateWeight(ctx context.Context, userID, id int, date *string, kg *float64) (weightEntry, error)
	deleteWeight(ctx context.Context, userID, id int) error
}

const weightColumns = "id, user_id, date, weight_kg, created_at"

func (s *pgStore) listWeights(ctx context.Context, userID int, from, to string) ([]weightEntry, error) {
	return queryMany[weightEntry](ctx, s.db,
		`SELECT `+weightColumns+` FROM weight_log
		 WHERE user_id = @userID AND date >= @from AND date <= @to
		 ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID, "from": from, "to": to})
}

// upsertWeight writes the entry for date, replacing any existing one.
func (s *pgStore) upsertWeight(ctx context.Context, userID int, date string, kg float64) (weightEntry, error) {
	return queryOne[weightEntry](ctx, s.db,
		`INSERT INTO weight_log (user_id, date, weight_kg)
		 VALUES (@userID, @date, @kg)
		 ON CONFLICT (user_id, date) DO UPDATE SET weight_kg = EXCLUDED.weight_kg
		 RETURNING `+weightColumns,
		pgx.NamedArgs{"userID": userID, "date": date, "kg": kg})
}

// updateWeight uses COALESCE so omitted fields keep their current values.
func (s *pgStore) updateWeight(ctx context.Context, userID, id int, date *string, kg *float64) (weightEntry, error) {
	e, err := queryOne[weightEntry](ctx, s.db,
		`UPDATE weight_log SET
			date      = COALESCE(@date::date, date),
			weight_kg = COALESCE(@kg::float8, weight_kg)
		 WHERE id = @id AND user_id = @userID
		 RETURNING `+weightColumns,
		pgx.NamedArgs{"id": id, "userID": userID, "date": date, "kg": kg})
	if isUniqueViolation(err) {
		return weightEntry{}, conflict("já existe um registro de peso nesta data")
	}
	if err != nil {
		return weightEntry{}, notFoundOr(err, "registro de peso não encontrado")
	}
	return e, nil
}

func (s *pgStore) deleteWeight(ctx context.Context, userID, id int) error {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM weight_log WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return fmt.Errorf("delete weight entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("registro de peso não encontrado")
	}
	return nil
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// getWeightLog returns weight entries within [start, end]. Both default to
// the last 30 nutritional days.
// GET /api/weight-log?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *Handler) getWeightLog(c *gin.Context) {
	end := c.DefaultQuery("end", h.days.today())
	start := c.DefaultQuery("start", shiftDay(end, -29))

	s, err := h.days.parse(start)
	if err != nil {
		respondError(c, err, "")
		return
	}
	e, err := h.days.parse(end)
	if err != nil {
		respondError(c, err, "")
		return
	}
	if s.After(e) {
		apiError(c, http.StatusBadRequest, "a data inicial deve ser anterior à data final")
		return
	}

	entries, err := h.weights.listWeights(c, currentUserID(c), start, end)
	if err != nil {
		respondError(c, err, "falha ao buscar registros de peso")
		return
	}
	c.JSON(http.StatusOK, entries)
}

// upsertWeightEntry creates or replaces the entry for a date, today when omitted.
// POST /api/weight-log {date?, weight}.
func (h *Handler) upsertWeightEntry(c *gin.Context) {
	var body struct {
		Date   string  `json:"date"`
		Weight float64 `json:"weight"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	if body.Date == "" {
		body.Date = h.days.today()
	}
	if _, err := h.days.parse(body.Date); err != nil {
		respondError(c, err, "")
		return
	}
	if err := validateWeight(body.Weight); err != nil {
		respondError(c, err, "")
		return
	}

	entry, err := h.weights.upsertWeight(c, currentUserID(c), body.Date, body.Weight)
	if err != nil {
		respondError(c, err, "falha ao salvar registro de peso")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// updateWeightEntry partially updates an entry.
// PUT /api/weight-log/:id {date?, weight?}.
func (h *Handler) updateWeightEntry(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	var body struct {
		Date   *string  `json:"date"`
		Weight *float64 `json:"weight"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	if body.Date == nil && body.Weight == nil {
		apiError(c, http.StatusBadRequest, "nenhum campo para atualizar")
		return
	}
	if body.Date != nil {
		if _, err := h.days.parse(*body.Date); err != nil {
			respondError(c, err, "")
			return
		}
	}
	if body.Weight != nil {
		if err := validateWeight(*body.Weight); err != nil {
			respondError(c, err, "")
			return
		}
	}

	entry, err := h.weights.updateWeight(c, currentUserID(c), id, body.Date, body.Weight)
	if err != nil {
		respondError(c, err, "falha ao atualizar registro de peso")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// deleteWeightEntry removes an entry. DELETE /api/weight-log/:id → 204.
func (h *Handler) deleteWeightEntry(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	if err := h.weights.deleteWeight(c, currentUserID(c), id); err != nil {
		respondError(c, err, "falha ao excluir registro de peso")
		return
	}
	c.Status(http.StatusNoContent)
}

func validateWeight(kg float64) error {
	if kg <= 0 || kg > maxWeightKG {
		return invalid("peso deve estar entre 0 e %d kg", maxWeightKG)
	}
	return nil
}
