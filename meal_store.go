package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// mealStore persists meals and their lines. Every line change recomputes the
// owning meal's totals in the same transaction.
type mealStore interface {
	listMealTypes(ctx context.Context) ([]mealType, error)
	mealTypeByID(ctx context.Context, id int) (mealType, error)
	listMeals(ctx context.Context, userID int, start, end time.Time) ([]meal, error)
	mealByID(ctx context.Context, userID, id int) (meal, error)
	createMeal(ctx context.Context, m meal) (meal, error)
	addMealLine(ctx context.Context, userID, mealID int, line mealFood) (meal, error)
	updateMealLine(ctx context.Context, userID, mealID int, line mealFood) (meal, error)
	deleteMealLine(ctx context.Context, userID, mealID, lineID int) (meal, error)
	deleteMeal(ctx context.Context, userID, id int) error
}

const mealColumns = `id, user_id, meal_type_id, name, date, total_calories, total_protein,
	total_carbs, total_fat, created_at`

const mealFoodColumns = `mf.id, mf.meal_id, mf.food_id, f.name AS food_name, mf.quantity, mf.unit,
	mf.calories, mf.protein, mf.carbs, mf.fat, mf.created_at`

func (s *pgStore) listMealTypes(ctx context.Context) ([]mealType, error) {
	return queryMany[mealType](ctx, s.db,
		"SELECT id, name, label, sort_order FROM meal_types ORDER BY sort_order")
}

func (s *pgStore) mealTypeByID(ctx context.Context, id int) (mealType, error) {
	mt, err := queryOne[mealType](ctx, s.db,
		"SELECT id, name, label, sort_order FROM meal_types WHERE id = @id",
		pgx.NamedArgs{"id": id})
	return mt, notFoundOr(err, "tipo de refeição não encontrado")
}

// listMeals returns the user's meals created in [start, end), oldest first,
// each with its lines.
func (s *pgStore) listMeals(ctx context.Context, userID int, start, end time.Time) ([]meal, error) {
	meals, err := queryMany[meal](ctx, s.db,
		`SELECT `+mealColumns+` FROM meals
		 WHERE user_id = @userID AND created_at >= @start AND created_at < @end
		 ORDER BY created_at, id`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return meals, nil
	}

	ids := make([]int, len(meals))
	for i, m := range meals {
		ids[i] = m.ID
	}
	lines, err := queryMany[mealFood](ctx, s.db,
		`SELECT `+mealFoodColumns+` FROM meal_foods mf JOIN foods f ON f.id = mf.food_id
		 WHERE mf.meal_id = ANY(@ids) ORDER BY mf.id`,
		pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, err
	}

	byMeal := make(map[int][]mealFood, len(meals))
	for _, l := range lines {
		byMeal[l.MealID] = append(byMeal[l.MealID], l)
	}
	for i := range meals {
		meals[i].Foods = byMeal[meals[i].ID]
		if meals[i].Foods == nil {
			meals[i].Foods = []mealFood{}
		}
	}
	return meals, nil
}

func (s *pgStore) mealByID(ctx context.Context, userID, id int) (meal, error) {
	return loadMeal(ctx, s.db, userID, id)
}

func loadMeal(ctx context.Context, db querier, userID, id int) (meal, error) {
	m, err := queryOne[meal](ctx, db,
		"SELECT "+mealColumns+" FROM meals WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return meal{}, notFoundOr(err, "refeição não encontrada")
	}
	m.Foods, err = queryMany[mealFood](ctx, db,
		`SELECT `+mealFoodColumns+` FROM meal_foods mf JOIN foods f ON f.id = mf.food_id
		 WHERE mf.meal_id = @id ORDER BY mf.id`,
		pgx.NamedArgs{"id": id})
	if err != nil {
		return meal{}, err
	}
	return m, nil
}

// createMeal inserts a meal and all of m.Foods, then sets the totals.
func (s *pgStore) createMeal(ctx context.Context, m meal) (meal, error) {
	var created meal
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var mealID int
		err := tx.QueryRow(ctx,
			`INSERT INTO meals (user_id, meal_type_id, name, date, created_at)
			 VALUES (@userID, @mealTypeID, @name, @date, @createdAt)
			 RETURNING id`,
			pgx.NamedArgs{
				"userID": m.UserID, "mealTypeID": m.MealTypeID, "name": m.Name,
				"date": m.Date.Key(), "createdAt": m.CreatedAt,
			}).Scan(&mealID)
		if isForeignKeyViolation(err) {
			return notFound("tipo de refeição não encontrado")
		}
		if err != nil {
			return fmt.Errorf("insert meal: %w", err)
		}

		for _, line := range m.Foods {
			if err := insertMealLine(ctx, tx, mealID, line); err != nil {
				return err
			}
		}
		if err := recomputeMealTotals(ctx, tx, mealID); err != nil {
			return err
		}
		created, err = loadMeal(ctx, tx, m.UserID, mealID)
		return err
	})
	return created, err
}

func (s *pgStore) addMealLine(ctx context.Context, userID, mealID int, line mealFood) (meal, error) {
	return s.changeMeal(ctx, userID, mealID, func(tx pgx.Tx) error {
		return insertMealLine(ctx, tx, mealID, line)
	})
}

// updateMealLine overwrites quantity, unit and the nutrition snapshot of one line.
func (s *pgStore) updateMealLine(ctx context.Context, userID, mealID int, line mealFood) (meal, error) {
	return s.changeMeal(ctx, userID, mealID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE meal_foods SET quantity = @quantity, unit = @unit, calories = @calories,
				protein = @protein, carbs = @carbs, fat = @fat
			 WHERE id = @id AND meal_id = @mealID`,
			pgx.NamedArgs{
				"id": line.ID, "mealID": mealID, "quantity": line.Quantity, "unit": line.Unit,
				"calories": line.Calories, "protein": line.Protein, "carbs": line.Carbs, "fat": line.Fat,
			})
		if err != nil {
			return fmt.Errorf("update meal line: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return notFound("alimento não encontrado na refeição")
		}
		return nil
	})
}

func (s *pgStore) deleteMealLine(ctx context.Context, userID, mealID, lineID int) (meal, error) {
	return s.changeMeal(ctx, userID, mealID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"DELETE FROM meal_foods WHERE id = @id AND meal_id = @mealID",
			pgx.NamedArgs{"id": lineID, "mealID": mealID})
		if err != nil {
			return fmt.Errorf("delete meal line: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return notFound("alimento não encontrado na refeição")
		}
		return nil
	})
}

func (s *pgStore) deleteMeal(ctx context.Context, userID, id int) error {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM meals WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("refeição não encontrada")
	}
	return nil
}

// changeMeal locks the user's meal row, applies fn and recomputes the totals
// before returning the updated meal.
func (s *pgStore) changeMeal(ctx context.Context, userID, mealID int, fn func(pgx.Tx) error) (meal, error) {
	var updated meal
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var id int
		err := tx.QueryRow(ctx,
			"SELECT id FROM meals WHERE id = @id AND user_id = @userID FOR UPDATE",
			pgx.NamedArgs{"id": mealID, "userID": userID}).Scan(&id)
		if err != nil {
			return notFoundOr(err, "refeição não encontrada")
		}
		if err := fn(tx); err != nil {
			return err
		}
		if err := recomputeMealTotals(ctx, tx, mealID); err != nil {
			return err
		}
		updated, err = loadMeal(ctx, tx, userID, mealID)
		return err
	})
	return updated, err
}

func insertMealLine(ctx context.Context, tx pgx.Tx, mealID int, line mealFood) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO meal_foods (meal_id, food_id, quantity, unit, calories, protein, carbs, fat)
		 VALUES (@mealID, @foodID, @quantity, @unit, @calories, @protein, @carbs, @fat)`,
		pgx.NamedArgs{
			"mealID": mealID, "foodID": line.FoodID, "quantity": line.Quantity, "unit": line.Unit,
			"calories": line.Calories, "protein": line.Protein, "carbs": line.Carbs, "fat": line.Fat,
		})
	if isForeignKeyViolation(err) {
		return notFound("alimento não encontrado")
	}
	if err != nil {
		return fmt.Errorf("insert meal line: %w", err)
	}
	return nil
}

// recomputeMealTotals sets a meal's totals to the sum of its own lines.
func recomputeMealTotals(ctx context.Context, tx pgx.Tx, mealID int) error {
	_, err := tx.Exec(ctx,
		`UPDATE meals SET
			total_calories = COALESCE(t.calories, 0),
			total_protein  = COALESCE(t.protein, 0),
			total_carbs    = COALESCE(t.carbs, 0),
			total_fat      = COALESCE(t.fat, 0)
		 FROM (
			SELECT SUM(calories) AS calories, SUM(protein) AS protein,
				SUM(carbs) AS carbs, SUM(fat) AS fat
			FROM meal_foods WHERE meal_id = @mealID
		 ) t
		 WHERE meals.id = @mealID`,
		pgx.NamedArgs{"mealID": mealID})
	if err != nil {
		return fmt.Errorf("recompute meal totals: %w", err)
	}
	return nil
}
