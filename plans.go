package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	planTypeNutrition = "nutrition"
	planTypeWorkout   = "workout"

	planSourceAI     = "ai"
	planSourceManual = "manual"
)

/* ─── Prompts ────────────────────────────────────────────────────────── */

const mealPlanSystemPrompt = `Você é um nutricionista. Monte um plano alimentar semanal em português do Brasil
para a pessoa descrita, respeitando as metas diárias informadas. Responda apenas com um objeto JSON:
{
  "name": string,
  "description": string,
  "dailyCalories": number,
  "days": [
    {"day": string, "meals": [
      {"type": string, "foods": [{"name": string, "quantity": string}], "calories": number,
       "protein": number, "carbs": number, "fat": number}
    ]}
  ],
  "tips": [string]
}`

const workoutPlanSystemPrompt = `Você é um educador físico. Monte um plano de treino semanal em português do Brasil
para a pessoa descrita. Responda apenas com um objeto JSON:
{
  "name": string,
  "description": string,
  "level": string,
  "days": [
    {"day": string, "focus": string, "exercises": [
      {"name": string, "sets": number, "reps": string, "rest": string}
    ]}
  ],
  "tips": [string]
}`

// planRequest is the request body for the plan generators.
type planRequest struct {
	Description string `json:"description"`
}

// createPlanRequest is the request body for POST /api/user-plans.
type createPlanRequest struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Description *string         `json:"description"`
	Content     json.RawMessage `json:"content"`
}

// generateMealPlan handles POST /api/generate-meal-plan.
func (h *Handler) generateMealPlan(c *gin.Context) {
	h.generatePlan(c, planTypeNutrition)
}

// generateWorkoutPlan handles POST /api/generate-workout-plan.
func (h *Handler) generateWorkoutPlan(c *gin.Context) {
	h.generatePlan(c, planTypeWorkout)
}

// generatePlan asks the LLM for a plan, keeps the object between the first
// '{' and the last '}' of the answer and stores it inactive.
func (h *Handler) generatePlan(c *gin.Context, planType string) {
	userID := currentUserID(c)

	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		apiError(c, http.StatusBadRequest, "descrição é obrigatória")
		return
	}

	u, err := h.users.userByID(c, userID)
	if err != nil {
		respondError(c, err, "falha ao gerar plano")
		return
	}

	system := mealPlanSystemPrompt
	if planType == planTypeWorkout {
		system = workoutPlanSystemPrompt
	}
	messages := []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: profilePrompt(u) + "\n\nPedido: " + req.Description},
	}

	raw, err := h.llm.complete(c, "plan_"+planType, messages, true)
	if err != nil {
		respondError(c, err, "falha ao gerar plano, tente novamente mais tarde")
		return
	}

	var content json.RawMessage
	if err := extractJSONObject(raw, &content); err != nil {
		log.Error().Err(err).Str("fn", "generatePlan").Str("raw", truncate(raw, 200)).Msg("bad plan json")
		respondError(c, err, "falha ao gerar plano")
		return
	}
	name, description := planMeta(content)
	if name == "" {
		name = defaultPlanName(planType)
	}
	if description == "" {
		description = req.Description
	}

	p, err := h.plans.createPlan(c, plan{
		UserID:      userID,
		Name:        name,
		Type:        planType,
		Description: &description,
		Content:     content,
		Source:      planSourceAI,
	})
	if err != nil {
		respondError(c, err, "falha ao salvar plano")
		return
	}
	c.JSON(http.StatusCreated, p)
}

// listPlans returns the user's plans, newest first.
// GET /api/user-plans?type=nutrition|workout.
func (h *Handler) listPlans(c *gin.Context) {
	planType := c.Query("type")
	if planType != "" && !validPlanType(planType) {
		apiError(c, http.StatusBadRequest, "tipo deve ser nutrition ou workout")
		return
	}
	plans, err := h.plans.listPlans(c, currentUserID(c), planType)
	if err != nil {
		respondError(c, err, "falha ao buscar planos")
		return
	}
	c.JSON(http.StatusOK, plans)
}

// createPlan stores a user-written plan, inactive.
// POST /api/user-plans.
func (h *Handler) createPlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		apiError(c, http.StatusBadRequest, "nome do plano é obrigatório")
		return
	}
	if !validPlanType(req.Type) {
		apiError(c, http.StatusBadRequest, "tipo deve ser nutrition ou workout")
		return
	}
	if len(req.Content) == 0 || string(req.Content) == "null" {
		req.Content = json.RawMessage(`{}`)
	}

	p, err := h.plans.createPlan(c, plan{
		UserID:      currentUserID(c),
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Content:     req.Content,
		Source:      planSourceManual,
	})
	if err != nil {
		respondError(c, err, "falha ao salvar plano")
		return
	}
	c.JSON(http.StatusCreated, p)
}

// activatePlan makes a plan the only active one of its type.
// POST /api/user-plans/:id/activate.
func (h *Handler) activatePlan(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	p, err := h.plans.activatePlan(c, currentUserID(c), id)
	if err != nil {
		respondError(c, err, "falha ao ativar plano")
		return
	}
	c.JSON(http.StatusOK, p)
}

// deletePlan removes a plan.
// DELETE /api/user-plans/:id.
func (h *Handler) deletePlan(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	if err := h.plans.deletePlan(c, currentUserID(c), id); err != nil {
		respondError(c, err, "falha ao excluir plano")
		return
	}
	c.Status(http.StatusNoContent)
}

func validPlanType(t string) bool {
	return t == planTypeNutrition || t == planTypeWorkout
}

func defaultPlanName(planType string) string {
	if planType == planTypeWorkout {
		return "Plano de treino"
	}
	return "Plano alimentar"
}

// profilePrompt describes the user's measurements and goals for the LLM.
func profilePrompt(u user) string {
	var b strings.Builder
	b.WriteString("Perfil:")
	if u.Sex != nil {
		fmt.Fprintf(&b, "\n- Sexo: %s", *u.Sex)
	}
	if u.Age != nil {
		fmt.Fprintf(&b, "\n- Idade: %d anos", *u.Age)
	}
	if u.WeightKG != nil {
		fmt.Fprintf(&b, "\n- Peso: %.1f kg", *u.WeightKG)
	}
	if u.HeightCM != nil {
		fmt.Fprintf(&b, "\n- Altura: %.0f cm", *u.HeightCM)
	}
	if u.ActivityLevel != nil {
		fmt.Fprintf(&b, "\n- Nível de atividade: %s", *u.ActivityLevel)
	}
	fmt.Fprintf(&b, "\n- Objetivo: %s", u.Goal)
	fmt.Fprintf(&b, "\n- Metas diárias: %d kcal, %d g proteína, %d g carboidratos, %d g gordura",
		u.DailyCalories, u.DailyProtein, u.DailyCarbs, u.DailyFat)
	return b.String()
}

// planMeta reads the optional top-level name and description strings of a
// generated plan. Fields of any other type are ignored.
func planMeta(content json.RawMessage) (name, description string) {
	var fields map[string]any
	if err := json.Unmarshal(content, &fields); err != nil {
		log.Debug().Err(err).Str("fn", "planMeta").Msg("plan content is not an object")
		return "", ""
	}
	name, _ = fields["name"].(string)
	description, _ = fields["description"].(string)
	return strings.TrimSpace(name), strings.TrimSpace(description)
}
