package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedWeek logs one 500 kcal meal at 12:00 on each of the first n days of
// the week of 2026-03-08 (a Sunday).
func seedWeek(t *testing.T, env *testEnv, n int) {
	t.Helper()
	f := seedChicken(env)
	for i := 0; i < n; i++ {
		at := time.Date(2026, 3, 8+i, 12, 0, 0, 0, time.UTC)
		env.store.addMealAt(env.user.ID, at, env.h.days,
			mealFood{FoodID: f.ID, Quantity: 500, Unit: "g", Calories: 500, Protein: 155, Fat: 18})
	}
}

func TestDailyNutritionHandler(t *testing.T) {
	env := newTestEnv(t)
	seedWeek(t, env, 1)

	w := env.do(http.MethodGet, "/api/nutrition/daily?date=2026-03-08", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d := decode[dayTotals](t, w)
	assert.Equal(t, 500, d.Calories)
	assert.Equal(t, 1, d.MealCount)
	assert.True(t, d.HasData)
	assert.Equal(t, "Domingo", d.Weekday)
	assert.Equal(t, defaultGoals, d.Goals)
	assert.Len(t, env.store.dailyRows(env.user.ID), 1, "reading a day refreshes its rollup")

	w = env.do(http.MethodGet, "/api/nutrition/daily?date=amanha", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNutritionHistoryHandler(t *testing.T) {
	env := newTestEnv(t)
	seedWeek(t, env, 3)

	w := env.do(http.MethodGet, "/api/nutrition/history?period=week&date=2026-03-11", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	h := decode[historyResponse](t, w)
	assert.Equal(t, "2026-03-08", h.StartDate)
	assert.Equal(t, "2026-03-14", h.EndDate)
	require.Len(t, h.Days, 7)
	assert.True(t, h.Days[2].HasData)
	assert.False(t, h.Days[3].HasData)

	w = env.do(http.MethodGet, "/api/nutrition/history?period=month&date=2026-02-10", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[historyResponse](t, w).Days, 28)

	w = env.do(http.MethodGet, "/api/nutrition/history?period=day&date=2026-03-09", "")
	require.Equal(t, http.StatusOK, w.Code)
	h = decode[historyResponse](t, w)
	require.Len(t, h.Days, 1)
	assert.Equal(t, 500, h.Days[0].Calories)

	w = env.do(http.MethodGet, "/api/nutrition/history?period=year", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgressHandlers(t *testing.T) {
	env := newTestEnv(t)
	seedWeek(t, env, 7)

	w := env.do(http.MethodGet, "/api/progress/weekly?date=2026-03-10", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	weekly := decode[struct {
		WeekStart string      `json:"weekStart"`
		Days      []dayTotals `json:"days"`
	}](t, w)
	assert.Equal(t, "2026-03-08", weekly.WeekStart)
	assert.Len(t, weekly.Days, 7)

	w = env.do(http.MethodGet, "/api/progress/monthly?date=2026-03-10", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	monthly := decode[struct {
		Month string             `json:"month"`
		Weeks []weekBucketTotals `json:"weeks"`
	}](t, w)
	assert.Equal(t, "2026-03", monthly.Month)
	require.Len(t, monthly.Weeks, 5)
	assert.Equal(t, 3500, monthly.Weeks[1].Calories)
	assert.Equal(t, 7, monthly.Weeks[1].MealCount)

	w = env.do(http.MethodGet, "/api/progress/hourly?date=2026-03-09", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	hourly := decode[struct {
		Date  string       `json:"date"`
		Hours []hourTotals `json:"hours"`
	}](t, w)
	require.Len(t, hourly.Hours, 24)
	var total int
	for _, h := range hourly.Hours {
		total += h.Calories
	}
	assert.Equal(t, 500, total)

	for _, path := range []string{"/api/progress/weekly?date=x", "/api/progress/monthly?date=x", "/api/progress/hourly?date=x"} {
		assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, path, "").Code, path)
	}
}
