package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// createRecipeRequest is the request body for POST /api/recipes.
type createRecipeRequest struct {
	Name         string            `json:"name"`
	Description  *string           `json:"description"`
	Instructions *string           `json:"instructions"`
	Servings     int               `json:"servings"`
	Ingredients  []foodLineRequest `json:"ingredients"`
}

// logRecipeRequest is the request body for POST /api/recipes/:id/log.
// Servings defaults to 1.
type logRecipeRequest struct {
	MealTypeID int        `json:"mealTypeId"`
	Servings   float64    `json:"servings"`
	Date       string     `json:"date"`
	LoggedAt   *time.Time `json:"loggedAt"`
}

// listRecipes returns the user's recipes with ingredients.
// GET /api/recipes.
func (h *Handler) listRecipes(c *gin.Context) {
	recipes, err := h.recipes.listRecipes(c, currentUserID(c))
	if err != nil {
		respondError(c, err, "falha ao buscar receitas")
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// getRecipe returns one recipe.
// GET /api/recipes/:id.
func (h *Handler) getRecipe(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	r, err := h.recipes.recipeByID(c, currentUserID(c), id)
	if err != nil {
		respondError(c, err, "falha ao buscar receita")
		return
	}
	c.JSON(http.StatusOK, r)
}

// createRecipe stores a recipe and its ingredient snapshots.
// POST /api/recipes.
func (h *Handler) createRecipe(c *gin.Context) {
	userID := currentUserID(c)

	var body createRecipeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		apiError(c, http.StatusBadRequest, "nome da receita é obrigatório")
		return
	}
	if body.Servings == 0 {
		body.Servings = 1
	}
	if body.Servings < 0 {
		apiError(c, http.StatusBadRequest, "porções deve ser maior que zero")
		return
	}

	ings := make([]recipeIngredient, 0, len(body.Ingredients))
	for _, req := range body.Ingredients {
		line, err := h.buildLine(c, userID, req)
		if err != nil {
			respondError(c, err, "falha ao criar receita")
			return
		}
		ings = append(ings, ingredientFromLine(line))
	}

	created, err := h.recipes.createRecipe(c, recipe{
		UserID:       userID,
		Name:         body.Name,
		Description:  body.Description,
		Instructions: body.Instructions,
		Servings:     body.Servings,
		Ingredients:  ings,
	})
	if err != nil {
		respondError(c, err, "falha ao criar receita")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// addRecipeIngredient adds one ingredient to a recipe.
// POST /api/recipes/:id/ingredients.
func (h *Handler) addRecipeIngredient(c *gin.Context) {
	userID := currentUserID(c)
	recipeID, err := idParam(c, "id")
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
		respondError(c, err, "falha ao adicionar ingrediente")
		return
	}
	r, err := h.recipes.addRecipeIngredient(c, userID, recipeID, ingredientFromLine(line))
	if err != nil {
		respondError(c, err, "falha ao adicionar ingrediente")
		return
	}
	c.JSON(http.StatusCreated, r)
}

// deleteRecipeIngredient removes one ingredient.
// DELETE /api/recipes/:id/ingredients/:ingredientId.
func (h *Handler) deleteRecipeIngredient(c *gin.Context) {
	recipeID, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	ingredientID, err := idParam(c, "ingredientId")
	if err != nil {
		respondError(c, err, "")
		return
	}
	r, err := h.recipes.deleteRecipeIngredient(c, currentUserID(c), recipeID, ingredientID)
	if err != nil {
		respondError(c, err, "falha ao remover ingrediente")
		return
	}
	c.JSON(http.StatusOK, r)
}

// deleteRecipe removes a recipe. Meals already logged from it are kept.
// DELETE /api/recipes/:id.
func (h *Handler) deleteRecipe(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	if err := h.recipes.deleteRecipe(c, currentUserID(c), id); err != nil {
		respondError(c, err, "falha ao excluir receita")
		return
	}
	c.Status(http.StatusNoContent)
}

// logRecipe logs a number of servings of a recipe as a new meal. Each
// ingredient becomes a meal line scaled by servings/recipe.Servings and
// recomputed from the food's current per-100g values.
// POST /api/recipes/:id/log.
func (h *Handler) logRecipe(c *gin.Context) {
	userID := currentUserID(c)
	recipeID, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}

	var body logRecipeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	if body.MealTypeID <= 0 {
		apiError(c, http.StatusBadRequest, "tipo de refeição é obrigatório")
		return
	}
	if body.Servings == 0 {
		body.Servings = 1
	}
	if err := validateQuantity(body.Servings); err != nil {
		apiError(c, http.StatusBadRequest, "porções deve ser maior que zero")
		return
	}

	r, err := h.recipes.recipeByID(c, userID, recipeID)
	if err != nil {
		respondError(c, err, "falha ao registrar receita")
		return
	}
	if len(r.Ingredients) == 0 {
		apiError(c, http.StatusBadRequest, "a receita não tem ingredientes")
		return
	}
	mt, err := h.meals.mealTypeByID(c, body.MealTypeID)
	if err != nil {
		respondError(c, err, "falha ao registrar receita")
		return
	}
	createdAt, err := h.mealTimestamp(createMealRequest{Date: body.Date, LoggedAt: body.LoggedAt}, time.Now())
	if err != nil {
		respondError(c, err, "")
		return
	}

	scale := body.Servings / float64(max(r.Servings, 1))
	lines := make([]mealFood, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		f, err := h.foods.foodByID(c, userID, ing.FoodID)
		if err != nil {
			respondError(c, err, "falha ao registrar receita")
			return
		}
		lines = append(lines, snapshotLine(f, ing.Quantity*scale, ing.Unit))
	}

	day, _ := h.days.parse(h.days.dayKey(createdAt))
	m, err := h.meals.createMeal(c, meal{
		UserID:     userID,
		MealTypeID: mt.ID,
		Name:       r.Name,
		Date:       DateOnly{day},
		CreatedAt:  createdAt,
		Foods:      lines,
	})
	if err != nil {
		respondError(c, err, "falha ao registrar receita")
		return
	}
	c.JSON(http.StatusCreated, m)
}

func ingredientFromLine(l mealFood) recipeIngredient {
	return recipeIngredient{
		FoodID:   l.FoodID,
		FoodName: l.FoodName,
		Quantity: l.Quantity,
		Unit:     l.Unit,
		Calories: l.Calories,
		Protein:  l.Protein,
		Carbs:    l.Carbs,
		Fat:      l.Fat,
	}
}
