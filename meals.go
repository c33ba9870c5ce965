package main

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// backfillOffset places a meal logged for a past day at 12:00 local time of
// that nutritional day.
const backfillOffset = 7 * time.Hour

// listMealTypes returns the seeded meal types in display order.
// GET /api/meal-types.
func (h *Handler) listMealTypes(c *gin.Context) {
	types, err := h.meals.listMealTypes(c)
	if err != nil {
		respondError(c, err, "falha ao buscar tipos de refeição")
		return
	}
	c.JSON(http.StatusOK, types)
}

// listMeals returns the meals of one nutritional day.
// GET /api/meals?date=YYYY-MM-DD (defaults to the current nutritional day).
func (h *Handler) listMeals(c *gin.Context) {
	key := c.DefaultQuery("date", h.days.today())
	start, end, err := h.days.dayRange(key)
	if err != nil {
		respondError(c, err, "")
		return
	}
	meals, err := h.meals.listMeals(c, currentUserID(c), start, end)
	if err != nil {
		respondError(c, err, "falha ao buscar refeições")
		return
	}
	c.JSON(http.StatusOK, meals)
}

// getMeal returns one meal with its lines.
// GET /api/meals/:id.
func (h *Handler) getMeal(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	m, err := h.meals.mealByID(c, currentUserID(c), id)
	if err != nil {
		respondError(c, err, "falha ao buscar refeição")
		return
	}
	c.JSON(http.StatusOK, m)
}

// createMeal logs a meal with at least one food.
// POST /api/meals.
func (h *Handler) createMeal(c *gin.Context) {
	userID := currentUserID(c)

	var body createMealRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	if body.MealTypeID <= 0 {
		apiError(c, http.StatusBadRequest, "tipo de refeição é obrigatório")
		return
	}
	if len(body.Foods) == 0 {
		apiError(c, http.StatusBadRequest, "adicione pelo menos um alimento à refeição")
		return
	}

	createdAt, err := h.mealTimestamp(body, time.Now())
	if err != nil {
		respondError(c, err, "")
		return
	}

	mt, err := h.meals.mealTypeByID(c, body.MealTypeID)
	if err != nil {
		respondError(c, err, "falha ao criar refeição")
		return
	}

	lines := make([]mealFood, 0, len(body.Foods))
	for _, req := range body.Foods {
		line, err := h.buildLine(c, userID, req)
		if err != nil {
			respondError(c, err, "falha ao criar refeição")
			return
		}
		lines = append(lines, line)
	}

	day, _ := h.days.parse(h.days.dayKey(createdAt))
	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = mt.Label
	}

	created, err := h.meals.createMeal(c, meal{
		UserID:     userID,
		MealTypeID: mt.ID,
		Name:       name,
		Date:       DateOnly{day},
		CreatedAt:  createdAt,
		Foods:      lines,
	})
	if err != nil {
		respondError(c, err, "falha ao criar refeição")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// addMealFood adds one food line to a meal.
// POST /api/meals/:id/foods.
func (h *Handler) addMealFood(c *gin.Context) {
	userID := currentUserID(c)
	mealID, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}

	var body foodLineRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	line, err := h.buildLine(c, userID, body)
	if err != nil {
		respondError(c, err, "falha ao adicionar alimento")
		return
	}
	m, err := h.meals.addMealLine(c, userID, mealID, line)
	if err != nil {
		respondError(c, err, "falha ao adicionar alimento")
		return
	}
	c.JSON(http.StatusCreated, m)
}

// updateMealFood changes the quantity/unit of a line. Nutrition is recomputed
// from the food's per-100g values, never from the previous snapshot.
// PUT /api/meals/:id/foods/:foodId (foodId is the line id).
func (h *Handler) updateMealFood(c *gin.Context) {
	userID := currentUserID(c)
	mealID, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	lineID, err := idParam(c, "foodId")
	if err != nil {
		respondError(c, err, "")
		return
	}

	var body updateLineRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	if err := validateQuantity(body.Quantity); err != nil {
		respondError(c, err, "")
		return
	}

	m, err := h.meals.mealByID(c, userID, mealID)
	if err != nil {
		respondError(c, err, "falha ao atualizar alimento")
		return
	}
	var line *mealFood
	for i := range m.Foods {
		if m.Foods[i].ID == lineID {
			line = &m.Foods[i]
			break
		}
	}
	if line == nil {
		apiError(c, http.StatusNotFound, "alimento não encontrado na refeição")
		return
	}

	f, err := h.foods.foodByID(c, userID, line.FoodID)
	if err != nil {
		respondError(c, err, "falha ao atualizar alimento")
		return
	}
	unit := strings.TrimSpace(body.Unit)
	if unit == "" {
		unit = line.Unit
	}
	updated := snapshotLine(f, body.Quantity, unit)
	updated.ID = lineID

	m, err = h.meals.updateMealLine(c, userID, mealID, updated)
	if err != nil {
		respondError(c, err, "falha ao atualizar alimento")
		return
	}
	c.JSON(http.StatusOK, m)
}

// deleteMealFood removes one line from a meal.
// DELETE /api/meals/:id/foods/:foodId (foodId is the line id).
func (h *Handler) deleteMealFood(c *gin.Context) {
	mealID, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	lineID, err := idParam(c, "foodId")
	if err != nil {
		respondError(c, err, "")
		return
	}
	m, err := h.meals.deleteMealLine(c, currentUserID(c), mealID, lineID)
	if err != nil {
		respondError(c, err, "falha ao remover alimento")
		return
	}
	c.JSON(http.StatusOK, m)
}

// deleteMeal removes a meal and its lines.
// DELETE /api/meals/:id.
func (h *Handler) deleteMeal(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	if err := h.meals.deleteMeal(c, currentUserID(c), id); err != nil {
		respondError(c, err, "falha ao excluir refeição")
		return
	}
	c.Status(http.StatusNoContent)
}

/* ─── Line helpers ───────────────────────────────────────────────────── */

// buildLine validates a line request and snapshots the food's nutrition.
func (h *Handler) buildLine(ctx context.Context, userID int, req foodLineRequest) (mealFood, error) {
	if req.FoodID <= 0 {
		return mealFood{}, invalid("foodId é obrigatório")
	}
	if err := validateQuantity(req.Quantity); err != nil {
		return mealFood{}, err
	}
	f, err := h.foods.foodByID(ctx, userID, req.FoodID)
	if err != nil {
		return mealFood{}, err
	}
	return snapshotLine(f, req.Quantity, req.Unit), nil
}

func snapshotLine(f food, quantity float64, unit string) mealFood {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		unit = "g"
	}
	n := lineNutrition(f, quantity, unit)
	return mealFood{
		FoodID:   f.ID,
		FoodName: f.Name,
		Quantity: quantity,
		Unit:     unit,
		Calories: n.Calories,
		Protein:  n.Protein,
		Carbs:    n.Carbs,
		Fat:      n.Fat,
	}
}

func validateQuantity(q float64) error {
	if q <= 0 || math.IsInf(q, 0) || math.IsNaN(q) {
		return invalid("quantidade deve ser maior que zero")
	}
	return nil
}

// mealTimestamp picks created_at for a new meal: loggedAt when given, now when
// the date is today's nutritional day or absent, otherwise midday of that date.
func (h *Handler) mealTimestamp(req createMealRequest, now time.Time) (time.Time, error) {
	if req.LoggedAt != nil {
		return *req.LoggedAt, nil
	}
	if req.Date == "" || req.Date == h.days.dayKey(now) {
		return now, nil
	}
	start, _, err := h.days.dayRange(req.Date)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(backfillOffset), nil
}
