package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// nutritionStore reads meal sums and keeps the daily_nutrition rollup.
type nutritionStore interface {
	sumMeals(ctx context.Context, userID int, start, end time.Time) (macroTotals, error)
	sumMealsByHour(ctx context.Context, userID int, start, end time.Time) ([]hourlySum, error)
	upsertDailyNutrition(ctx context.Context, d dailyNutrition) (dailyNutrition, error)
	dailyNutritionRange(ctx context.Context, userID int, from, to string) ([]dailyNutrition, error)
}

// hourlySum is the meal sum of one hour, Offset hours after the day start.
type hourlySum struct {
	Offset    int     `db:"hour_offset"`
	Calories  float64 `db:"calories"`
	Protein   float64 `db:"protein"`
	Carbs     float64 `db:"carbs"`
	Fat       float64 `db:"fat"`
	MealCount int     `db:"meal_count"`
}

const dailyNutritionColumns = "user_id, date, calories, protein, carbs, fat, meal_count, updated_at"

// sumMeals adds up meal totals for meals created in [start, end).
func (s *pgStore) sumMeals(ctx context.Context, userID int, start, end time.Time) (macroTotals, error) {
	return queryOne[macroTotals](ctx, s.db,
		`SELECT
			COALESCE(SUM(total_calories), 0)::float8 AS calories,
			COALESCE(SUM(total_protein), 0)::float8  AS protein,
			COALESCE(SUM(total_carbs), 0)::float8    AS carbs,
			COALESCE(SUM(total_fat), 0)::float8      AS fat,
			COUNT(*)::int                            AS meal_count
		 FROM meals
		 WHERE user_id = @userID AND created_at >= @start AND created_at < @end`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
}

func (s *pgStore) sumMealsByHour(ctx context.Context, userID int, start, end time.Time) ([]hourlySum, error) {
	return queryMany[hourlySum](ctx, s.db,
		`SELECT
			FLOOR(EXTRACT(EPOCH FROM (created_at - @start::timestamptz)) / 3600)::int AS hour_offset,
			COALESCE(SUM(total_calories), 0)::float8 AS calories,
			COALESCE(SUM(total_protein), 0)::float8  AS protein,
			COALESCE(SUM(total_carbs), 0)::float8    AS carbs,
			COALESCE(SUM(total_fat), 0)::float8      AS fat,
			COUNT(*)::int                            AS meal_count
		 FROM meals
		 WHERE user_id = @userID AND created_at >= @start AND created_at < @end
		 GROUP BY 1
		 ORDER BY 1`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
}

// upsertDailyNutrition writes the rollup for (user, date); a second call for
// the same key overwrites the row.
func (s *pgStore) upsertDailyNutrition(ctx context.Context, d dailyNutrition) (dailyNutrition, error) {
	return queryOne[dailyNutrition](ctx, s.db,
		`INSERT INTO daily_nutrition (user_id, date, calories, protein, carbs, fat, meal_count, updated_at)
		 VALUES (@userID, @date, @calories, @protein, @carbs, @fat, @mealCount, now())
		 ON CONFLICT (user_id, date) DO UPDATE SET
			calories   = EXCLUDED.calories,
			protein    = EXCLUDED.protein,
			carbs      = EXCLUDED.carbs,
			fat        = EXCLUDED.fat,
			meal_count = EXCLUDED.meal_count,
			updated_at = now()
		 RETURNING `+dailyNutritionColumns,
		pgx.NamedArgs{
			"userID": d.UserID, "date": d.Date.Key(),
			"calories": d.Calories, "protein": d.Protein, "carbs": d.Carbs, "fat": d.Fat,
			"mealCount": d.MealCount,
		})
}

// dailyNutritionRange returns stored rollups with from <= date <= to, oldest first.
func (s *pgStore) dailyNutritionRange(ctx context.Context, userID int, from, to string) ([]dailyNutrition, error) {
	return queryMany[dailyNutrition](ctx, s.db,
		`SELECT `+dailyNutritionColumns+` FROM daily_nutrition
		 WHERE user_id = @userID AND date >= @from AND date <= @to
		 ORDER BY date`,
		pgx.NamedArgs{"userID": userID, "from": from, "to": to})
}
