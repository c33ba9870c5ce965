package main

import (
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// listFoods searches the user's own foods and the shared USDA-sourced ones.
// GET /api/foods?search=<q> (q optional).
func (h *Handler) listFoods(c *gin.Context) {
	foods, err := h.foods.listFoods(c, currentUserID(c), strings.TrimSpace(c.Query("search")))
	if err != nil {
		respondError(c, err, "falha ao buscar alimentos")
		return
	}
	c.JSON(http.StatusOK, foods)
}

// searchCatalog queries the remote catalog. Upstream failures are answered
// with the built-in list and degraded=true.
// GET /api/foods/search?query=<q> (len(q) >= 3).
func (h *Handler) searchCatalog(c *gin.Context) {
	result, err := h.catalog.search(c, c.Query("query"))
	if err != nil {
		respondError(c, err, "falha ao buscar alimentos")
		return
	}
	c.JSON(http.StatusOK, result)
}

// createFood creates a custom food owned by the user.
// POST /api/foods.
func (h *Handler) createFood(c *gin.Context) {
	var body foodRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	if err := validateFoodRequest(body); err != nil {
		respondError(c, err, "falha ao criar alimento")
		return
	}

	userID := currentUserID(c)
	f := body.toFood()
	f.UserID = &userID
	created, err := h.foods.createFood(c, f)
	if err != nil {
		respondError(c, err, "falha ao criar alimento")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// createFoodFromUSDA materializes a remote catalog food into the shared
// catalog. Posting the same usdaFdcId twice returns the existing food.
// POST /api/foods/from-usda.
func (h *Handler) createFoodFromUSDA(c *gin.Context) {
	var body foodRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	if body.USDAFdcID == nil || *body.USDAFdcID <= 0 {
		apiError(c, http.StatusBadRequest, "usdaFdcId é obrigatório")
		return
	}
	if err := validateFoodRequest(body); err != nil {
		respondError(c, err, "falha ao importar alimento")
		return
	}

	created, err := h.foods.upsertUSDAFood(c, body.toFood())
	if err != nil {
		respondError(c, err, "falha ao importar alimento")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// updateFood edits a custom food owned by the user.
// PUT /api/foods/:id.
func (h *Handler) updateFood(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}

	var body patchFoodRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	if body.Name != nil && strings.TrimSpace(*body.Name) == "" {
		apiError(c, http.StatusBadRequest, "nome é obrigatório")
		return
	}
	for _, v := range []*float64{body.CaloriesPer100g, body.ProteinPer100g, body.CarbsPer100g, body.FatPer100g, body.FiberPer100g} {
		if v != nil && !validPer100g(*v) {
			apiError(c, http.StatusBadRequest, "valores nutricionais devem ser números não negativos")
			return
		}
	}
	if body == (patchFoodRequest{}) {
		apiError(c, http.StatusBadRequest, "nenhum campo para atualizar")
		return
	}

	f, err := h.foods.updateFood(c, currentUserID(c), id, body)
	if err != nil {
		respondError(c, err, "falha ao atualizar alimento")
		return
	}
	c.JSON(http.StatusOK, f)
}

// deleteFood removes a custom food owned by the user.
// DELETE /api/foods/:id. Returns 409 while meals or recipes still reference it.
func (h *Handler) deleteFood(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	if err := h.foods.deleteFood(c, currentUserID(c), id); err != nil {
		respondError(c, err, "falha ao excluir alimento")
		return
	}
	c.Status(http.StatusNoContent)
}

func validateFoodRequest(r foodRequest) error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("nome é obrigatório")
	}
	values := []float64{r.CaloriesPer100g, r.ProteinPer100g, r.CarbsPer100g, r.FatPer100g}
	if r.FiberPer100g != nil {
		values = append(values, *r.FiberPer100g)
	}
	for _, v := range values {
		if !validPer100g(v) {
			return invalid("valores nutricionais devem ser números não negativos")
		}
	}
	return nil
}

func validPer100g(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func (r foodRequest) toFood() food {
	return food{
		Name:            strings.TrimSpace(r.Name),
		Brand:           r.Brand,
		Category:        r.Category,
		CaloriesPer100g: r.CaloriesPer100g,
		ProteinPer100g:  r.ProteinPer100g,
		CarbsPer100g:    r.CarbsPer100g,
		FatPer100g:      r.FatPer100g,
		FiberPer100g:    r.FiberPer100g,
		USDAFdcID:       r.USDAFdcID,
	}
}
