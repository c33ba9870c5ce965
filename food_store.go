package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// foodStore persists custom and USDA-materialized foods. A food is visible to a
// user when the user owns it or it is shared (user_id IS NULL).
type foodStore interface {
	listFoods(ctx context.Context, userID int, search string) ([]food, error)
	foodByID(ctx context.Context, userID, id int) (food, error)
	createFood(ctx context.Context, f food) (food, error)
	upsertUSDAFood(ctx context.Context, f food) (food, error)
	updateFood(ctx context.Context, userID, id int, p patchFoodRequest) (food, error)
	deleteFood(ctx context.Context, userID, id int) error
}

const foodColumns = `id, user_id, name, brand, category, calories_per_100g, protein_per_100g,
	carbs_per_100g, fat_per_100g, fiber_per_100g, usda_fdc_id, is_custom, created_at`

func (s *pgStore) listFoods(ctx context.Context, userID int, search string) ([]food, error) {
	q := psql.Select(foodColumns).From("foods").
		Where("(user_id = ? OR user_id IS NULL)", userID).
		OrderBy("name").
		Limit(100)
	if search != "" {
		pattern := containsPattern(search)
		q = q.Where(`(name ILIKE ? ESCAPE '\' OR category ILIKE ? ESCAPE '\')`, pattern, pattern)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build food search: %w", err)
	}
	foods, err := queryMany[food](ctx, s.db, sql, args...)
	for i := range foods {
		foods[i].Source = foodSource(foods[i])
	}
	return foods, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern is a LIKE pattern matching search literally anywhere.
func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

func (s *pgStore) foodByID(ctx context.Context, userID, id int) (food, error) {
	return foodVisibleTo(ctx, s.db, userID, id)
}

func foodVisibleTo(ctx context.Context, db querier, userID, id int) (food, error) {
	f, err := queryOne[food](ctx, db,
		"SELECT "+foodColumns+" FROM foods WHERE id = @id AND (user_id = @userID OR user_id IS NULL)",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return food{}, notFoundOr(err, "alimento não encontrado")
	}
	f.Source = foodSource(f)
	return f, nil
}

func (s *pgStore) createFood(ctx context.Context, f food) (food, error) {
	created, err := queryOne[food](ctx, s.db,
		`INSERT INTO foods (user_id, name, brand, category, calories_per_100g, protein_per_100g,
			carbs_per_100g, fat_per_100g, fiber_per_100g, is_custom)
		 VALUES (@userID, @name, @brand, @category, @calories, @protein, @carbs, @fat, @fiber, true)
		 RETURNING `+foodColumns,
		foodArgs(f))
	if err != nil {
		return food{}, err
	}
	created.Source = foodSourceCustom
	return created, nil
}

// upsertUSDAFood inserts a shared food keyed by its FDC id. A second call with
// the same id returns the existing row.
func (s *pgStore) upsertUSDAFood(ctx context.Context, f food) (food, error) {
	args := foodArgs(f)
	args["fdcID"] = f.USDAFdcID
	created, err := queryOne[food](ctx, s.db,
		`INSERT INTO foods (user_id, name, brand, category, calories_per_100g, protein_per_100g,
			carbs_per_100g, fat_per_100g, fiber_per_100g, usda_fdc_id, is_custom)
		 VALUES (NULL, @name, @brand, @category, @calories, @protein, @carbs, @fat, @fiber, @fdcID, false)
		 ON CONFLICT (usda_fdc_id) DO UPDATE SET usda_fdc_id = EXCLUDED.usda_fdc_id
		 RETURNING `+foodColumns,
		args)
	if err != nil {
		return food{}, err
	}
	created.Source = foodSourceUSDA
	return created, nil
}

// updateFood writes the non-nil fields of p. Only the owner can edit a food.
func (s *pgStore) updateFood(ctx context.Context, userID, id int, p patchFoodRequest) (food, error) {
	q := psql.Update("foods").
		Where("id = ? AND user_id = ?", id, userID).
		Suffix("RETURNING " + foodColumns)
	if p.Name != nil {
		q = q.Set("name", *p.Name)
	}
	if p.Brand != nil {
		q = q.Set("brand", *p.Brand)
	}
	if p.Category != nil {
		q = q.Set("category", *p.Category)
	}
	if p.CaloriesPer100g != nil {
		q = q.Set("calories_per_100g", *p.CaloriesPer100g)
	}
	if p.ProteinPer100g != nil {
		q = q.Set("protein_per_100g", *p.ProteinPer100g)
	}
	if p.CarbsPer100g != nil {
		q = q.Set("carbs_per_100g", *p.CarbsPer100g)
	}
	if p.FatPer100g != nil {
		q = q.Set("fat_per_100g", *p.FatPer100g)
	}
	if p.FiberPer100g != nil {
		q = q.Set("fiber_per_100g", *p.FiberPer100g)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return food{}, fmt.Errorf("build food update: %w", err)
	}
	f, err := queryOne[food](ctx, s.db, sql, args...)
	if err != nil {
		return food{}, notFoundOr(err, "alimento não encontrado")
	}
	f.Source = foodSourceCustom
	return f, nil
}

func (s *pgStore) deleteFood(ctx context.Context, userID, id int) error {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM foods WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if isForeignKeyViolation(err) {
		return conflict("alimento em uso por refeições ou receitas")
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("alimento não encontrado")
	}
	return nil
}

func foodArgs(f food) pgx.NamedArgs {
	return pgx.NamedArgs{
		"userID":   f.UserID,
		"name":     f.Name,
		"brand":    f.Brand,
		"category": f.Category,
		"calories": f.CaloriesPer100g,
		"protein":  f.ProteinPer100g,
		"carbs":    f.CarbsPer100g,
		"fat":      f.FatPer100g,
		"fiber":    f.FiberPer100g,
	}
}
