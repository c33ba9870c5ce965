package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// recipeStore persists recipes and their ingredients with the same
// denormalized-totals rule as meals.
type recipeStore interface {
	listRecipes(ctx context.Context, userID int) ([]recipe, error)
	recipeByID(ctx context.Context, userID, id int) (recipe, error)
	createRecipe(ctx context.Context, r recipe) (recipe, error)
	addRecipeIngredient(ctx context.Context, userID, recipeID int, ing recipeIngredient) (recipe, error)
	deleteRecipeIngredient(ctx context.Context, userID, recipeID, ingredientID int) (recipe, error)
	deleteRecipe(ctx context.Context, userID, id int) error
}

const recipeColumns = `id, user_id, name, description, instructions, servings, total_calories,
	total_protein, total_carbs, total_fat, created_at`

const ingredientColumns = `ri.id, ri.recipe_id, ri.food_id, f.name AS food_name, ri.quantity, ri.unit,
	ri.calories, ri.protein, ri.carbs, ri.fat`

func (s *pgStore) listRecipes(ctx context.Context, userID int) ([]recipe, error) {
	recipes, err := queryMany[recipe](ctx, s.db,
		"SELECT "+recipeColumns+" FROM recipes WHERE user_id = @userID ORDER BY name",
		pgx.NamedArgs{"userID": userID})
	if err != nil || len(recipes) == 0 {
		return recipes, err
	}

	ids := make([]int, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
	}
	ings, err := queryMany[recipeIngredient](ctx, s.db,
		`SELECT `+ingredientColumns+` FROM recipe_ingredients ri JOIN foods f ON f.id = ri.food_id
		 WHERE ri.recipe_id = ANY(@ids) ORDER BY ri.id`,
		pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, err
	}
	byRecipe := make(map[int][]recipeIngredient, len(recipes))
	for _, ing := range ings {
		byRecipe[ing.RecipeID] = append(byRecipe[ing.RecipeID], ing)
	}
	for i := range recipes {
		recipes[i].Ingredients = byRecipe[recipes[i].ID]
		if recipes[i].Ingredients == nil {
			recipes[i].Ingredients = []recipeIngredient{}
		}
	}
	return recipes, nil
}

func (s *pgStore) recipeByID(ctx context.Context, userID, id int) (recipe, error) {
	return loadRecipe(ctx, s.db, userID, id)
}

func loadRecipe(ctx context.Context, db querier, userID, id int) (recipe, error) {
	r, err := queryOne[recipe](ctx, db,
		"SELECT "+recipeColumns+" FROM recipes WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return recipe{}, notFoundOr(err, "receita não encontrada")
	}
	r.Ingredients, err = queryMany[recipeIngredient](ctx, db,
		`SELECT `+ingredientColumns+` FROM recipe_ingredients ri JOIN foods f ON f.id = ri.food_id
		 WHERE ri.recipe_id = @id ORDER BY ri.id`,
		pgx.NamedArgs{"id": id})
	if err != nil {
		return recipe{}, err
	}
	return r, nil
}

func (s *pgStore) createRecipe(ctx context.Context, r recipe) (recipe, error) {
	var created recipe
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var recipeID int
		err := tx.QueryRow(ctx,
			`INSERT INTO recipes (user_id, name, description, instructions, servings)
			 VALUES (@userID, @name, @description, @instructions, @servings)
			 RETURNING id`,
			pgx.NamedArgs{
				"userID": r.UserID, "name": r.Name, "description": r.Description,
				"instructions": r.Instructions, "servings": r.Servings,
			}).Scan(&recipeID)
		if err != nil {
			return fmt.Errorf("insert recipe: %w", err)
		}
		for _, ing := range r.Ingredients {
			if err := insertIngredient(ctx, tx, recipeID, ing); err != nil {
				return err
			}
		}
		if err := recomputeRecipeTotals(ctx, tx, recipeID); err != nil {
			return err
		}
		created, err = loadRecipe(ctx, tx, r.UserID, recipeID)
		return err
	})
	return created, err
}

func (s *pgStore) addRecipeIngredient(ctx context.Context, userID, recipeID int, ing recipeIngredient) (recipe, error) {
	return s.changeRecipe(ctx, userID, recipeID, func(tx pgx.Tx) error {
		return insertIngredient(ctx, tx, recipeID, ing)
	})
}

func (s *pgStore) deleteRecipeIngredient(ctx context.Context, userID, recipeID, ingredientID int) (recipe, error) {
	return s.changeRecipe(ctx, userID, recipeID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"DELETE FROM recipe_ingredients WHERE id = @id AND recipe_id = @recipeID",
			pgx.NamedArgs{"id": ingredientID, "recipeID": recipeID})
		if err != nil {
			return fmt.Errorf("delete ingredient: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return notFound("ingrediente não encontrado")
		}
		return nil
	})
}

func (s *pgStore) deleteRecipe(ctx context.Context, userID, id int) error {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM recipes WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("receita não encontrada")
	}
	return nil
}

func (s *pgStore) changeRecipe(ctx context.Context, userID, recipeID int, fn func(pgx.Tx) error) (recipe, error) {
	var updated recipe
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var id int
		err := tx.QueryRow(ctx,
			"SELECT id FROM recipes WHERE id = @id AND user_id = @userID FOR UPDATE",
			pgx.NamedArgs{"id": recipeID, "userID": userID}).Scan(&id)
		if err != nil {
			return notFoundOr(err, "receita não encontrada")
		}
		if err := fn(tx); err != nil {
			return err
		}
		if err := recomputeRecipeTotals(ctx, tx, recipeID); err != nil {
			return err
		}
		updated, err = loadRecipe(ctx, tx, userID, recipeID)
		return err
	})
	return updated, err
}

func insertIngredient(ctx context.Context, tx pgx.Tx, recipeID int, ing recipeIngredient) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO recipe_ingredients (recipe_id, food_id, quantity, unit, calories, protein, carbs, fat)
		 VALUES (@recipeID, @foodID, @quantity, @unit, @calories, @protein, @carbs, @fat)`,
		pgx.NamedArgs{
			"recipeID": recipeID, "foodID": ing.FoodID, "quantity": ing.Quantity, "unit": ing.Unit,
			"calories": ing.Calories, "protein": ing.Protein, "carbs": ing.Carbs, "fat": ing.Fat,
		})
	if isForeignKeyViolation(err) {
		return notFound("alimento não encontrado")
	}
	if err != nil {
		return fmt.Errorf("insert ingredient: %w", err)
	}
	return nil
}

func recomputeRecipeTotals(ctx context.Context, tx pgx.Tx, recipeID int) error {
	_, err := tx.Exec(ctx,
		`UPDATE recipes SET
			total_calories = COALESCE(t.calories, 0),
			total_protein  = COALESCE(t.protein, 0),
			total_carbs    = COALESCE(t.carbs, 0),
			total_fat      = COALESCE(t.fat, 0)
		 FROM (
			SELECT SUM(calories) AS calories, SUM(protein) AS protein,
				SUM(carbs) AS carbs, SUM(fat) AS fat
			FROM recipe_ingredients WHERE recipe_id = @recipeID
		 ) t
		 WHERE recipes.id = @recipeID`,
		pgx.NamedArgs{"recipeID": recipeID})
	if err != nil {
		return fmt.Errorf("recompute recipe totals: %w", err)
	}
	return nil
}
