package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// historyResponse is returned by GET /api/nutrition/history.
type historyResponse struct {
	Period    string      `json:"period"`
	StartDate string      `json:"startDate"`
	EndDate   string      `json:"endDate"`
	Days      []dayTotals `json:"days"`
}

// getDailyNutrition returns one nutritional day's totals and goals and
// refreshes its daily_nutrition row.
// GET /api/nutrition/daily?date=YYYY-MM-DD (defaults to the current nutritional day).
func (h *Handler) getDailyNutrition(c *gin.Context) {
	key := c.DefaultQuery("date", h.days.today())
	d, err := h.agg.dailyTotal(c, currentUserID(c), key)
	if err != nil {
		respondError(c, err, "falha ao calcular nutrição diária")
		return
	}
	c.JSON(http.StatusOK, d)
}

// getNutritionHistory returns per-day totals for the day, week or month
// containing date.
// GET /api/nutrition/history?period=day|week|month&date=YYYY-MM-DD.
func (h *Handler) getNutritionHistory(c *gin.Context) {
	userID := currentUserID(c)
	period := c.DefaultQuery("period", "week")
	key := c.DefaultQuery("date", h.days.today())

	var days []dayTotals
	var err error
	switch period {
	case "day":
		var d dayTotals
		d, err = h.agg.dailyTotal(c, userID, key)
		days = []dayTotals{d}
	case "week":
		days, err = h.agg.weeklyTotals(c, userID, key)
	case "month":
		days, err = h.agg.monthDays(c, userID, key)
	default:
		apiError(c, http.StatusBadRequest, "período deve ser day, week ou month")
		return
	}
	if err != nil {
		respondError(c, err, "falha ao buscar histórico")
		return
	}

	c.JSON(http.StatusOK, historyResponse{
		Period:    period,
		StartDate: days[0].Date,
		EndDate:   days[len(days)-1].Date,
		Days:      days,
	})
}

// getHourlyProgress returns the hourly buckets of one nutritional day.
// GET /api/progress/hourly?date=YYYY-MM-DD.
func (h *Handler) getHourlyProgress(c *gin.Context) {
	key := c.DefaultQuery("date", h.days.today())
	hours, err := h.agg.hourlyTotals(c, currentUserID(c), key)
	if err != nil {
		respondError(c, err, "falha ao calcular progresso por hora")
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": key, "hours": hours})
}

// getWeeklyProgress returns the Sunday..Saturday week containing date.
// GET /api/progress/weekly?date=YYYY-MM-DD.
func (h *Handler) getWeeklyProgress(c *gin.Context) {
	key := c.DefaultQuery("date", h.days.today())
	days, err := h.agg.weeklyTotals(c, currentUserID(c), key)
	if err != nil {
		respondError(c, err, "falha ao calcular progresso semanal")
		return
	}
	c.JSON(http.StatusOK, gin.H{"weekStart": days[0].Date, "days": days})
}

// getMonthlyProgress returns week buckets for the month containing date.
// GET /api/progress/monthly?date=YYYY-MM-DD.
func (h *Handler) getMonthlyProgress(c *gin.Context) {
	key := c.DefaultQuery("date", h.days.today())
	weeks, err := h.agg.monthlyTotals(c, currentUserID(c), key)
	if err != nil {
		respondError(c, err, "falha ao calcular progresso mensal")
		return
	}
	c.JSON(http.StatusOK, gin.H{"month": key[:7], "weeks": weeks})
}
