package main

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createOmelete stores a 2-serving recipe: 200 g of egg (150 kcal/100 g) and
// 100 g of spinach (20 kcal/100 g), 320 kcal in total.
func createOmelete(t *testing.T, env *testEnv) (recipe, food, food) {
	t.Helper()
	egg := env.store.addFood(food{Name: "Ovo", UserID: &env.user.ID, IsCustom: true,
		CaloriesPer100g: 150, ProteinPer100g: 13, CarbsPer100g: 1, FatPer100g: 10})
	spinach := env.store.addFood(food{Name: "Espinafre", UserID: &env.user.ID, IsCustom: true,
		CaloriesPer100g: 20, ProteinPer100g: 3, CarbsPer100g: 3.5, FatPer100g: 0.4})

	w := env.do(http.MethodPost, "/api/recipes", fmt.Sprintf(`{
		"name":"Omelete de espinafre","servings":2,
		"ingredients":[{"foodId":%d,"quantity":200,"unit":"g"},{"foodId":%d,"quantity":100}]}`, egg.ID, spinach.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[recipe](t, w), egg, spinach
}

func TestCreateRecipe(t *testing.T) {
	env := newTestEnv(t)
	r, _, _ := createOmelete(t, env)

	assert.Equal(t, 2, r.Servings)
	require.Len(t, r.Ingredients, 2)
	assert.Equal(t, 300, r.Ingredients[0].Calories)
	assert.Equal(t, "g", r.Ingredients[1].Unit, "unit defaults to grams")
	assert.Equal(t, 320, r.TotalCalories)
	assert.InDelta(t, 29.0, r.TotalProtein, 0.001)
}

func TestCreateRecipe_Validation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/recipes", `{"name":" "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPost, "/api/recipes", `{"name":"X","servings":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPost, "/api/recipes", `{"name":"X","ingredients":[{"foodId":999999,"quantity":10}]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, "/api/recipes", `{"name":"Vazia"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, decode[recipe](t, w).Servings)
}

func TestRecipeIngredients(t *testing.T) {
	env := newTestEnv(t)
	r, egg, _ := createOmelete(t, env)
	base := fmt.Sprintf("/api/recipes/%d/ingredients", r.ID)

	w := env.do(http.MethodPost, base, fmt.Sprintf(`{"foodId":%d,"quantity":1,"unit":"unidade"}`, egg.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	r = decode[recipe](t, w)
	require.Len(t, r.Ingredients, 3)
	assert.Equal(t, 470, r.TotalCalories)

	w = env.do(http.MethodDelete, fmt.Sprintf("%s/%d", base, r.Ingredients[2].ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 320, decode[recipe](t, w).TotalCalories)

	w = env.do(http.MethodDelete, base+"/999999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogRecipe_ScalesByServings(t *testing.T) {
	env := newTestEnv(t)
	r, _, _ := createOmelete(t, env)
	path := fmt.Sprintf("/api/recipes/%d/log", r.ID)

	// one serving out of two: half of every ingredient
	w := env.do(http.MethodPost, path, `{"mealTypeId":1}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	m := decode[meal](t, w)
	assert.Equal(t, "Omelete de espinafre", m.Name)
	require.Len(t, m.Foods, 2)
	assert.Equal(t, 100.0, m.Foods[0].Quantity)
	assert.Equal(t, 150, m.Foods[0].Calories)
	assert.Equal(t, 160, m.TotalCalories)

	w = env.do(http.MethodPost, path, `{"mealTypeId":2,"servings":3}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 480, decode[meal](t, w).TotalCalories)
}

func TestLogRecipe_UsesCurrentFoodValues(t *testing.T) {
	env := newTestEnv(t)
	r, egg, _ := createOmelete(t, env)

	w := env.do(http.MethodPut, fmt.Sprintf("/api/foods/%d", egg.ID), `{"caloriesPer100g":200}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/log", r.ID), `{"mealTypeId":1,"servings":2}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 420, decode[meal](t, w).TotalCalories)

	w = env.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d", r.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 320, decode[recipe](t, w).TotalCalories, "the recipe snapshot is unchanged")
}

func TestLogRecipe_Errors(t *testing.T) {
	env := newTestEnv(t)
	r, _, _ := createOmelete(t, env)
	path := fmt.Sprintf("/api/recipes/%d/log", r.ID)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, path, `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, path, `{"mealTypeId":1,"servings":-2}`).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, path, `{"mealTypeId":9}`).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/api/recipes/999999/log", `{"mealTypeId":1}`).Code)

	w := env.do(http.MethodPost, "/api/recipes", `{"name":"Vazia"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	empty := decode[recipe](t, w)
	w = env.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/log", empty.ID), `{"mealTypeId":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteRecipe_KeepsLoggedMeals(t *testing.T) {
	env := newTestEnv(t)
	r, _, _ := createOmelete(t, env)

	w := env.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/log", r.ID), `{"mealTypeId":1}`)
	require.Equal(t, http.StatusCreated, w.Code)
	m := decode[meal](t, w)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, fmt.Sprintf("/api/recipes/%d", r.ID), "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d", r.ID), "").Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, fmt.Sprintf("/api/meals/%d", m.ID), "").Code)

	w = env.do(http.MethodGet, "/api/recipes", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]recipe](t, w))
}
