package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	chatSystemPrompt = `Você é a assistente de nutrição do Nutria. Responda em português do Brasil, de forma
objetiva e amigável. Não faça diagnósticos médicos; recomende procurar um profissional quando apropriado.`

	analyzeMealSystemPrompt = `Você é um nutricionista. Estime a composição nutricional da refeição descrita.
Responda apenas com um objeto JSON:
{
  "foods": [{"name": string, "quantity": string, "calories": number, "protein": number, "carbs": number, "fat": number}],
  "totals": {"calories": number, "protein": number, "carbs": number, "fat": number},
  "suggestions": [string]
}
Valores em gramas, calorias em kcal. Textos em português do Brasil.`

	suggestRecipesSystemPrompt = `Você é um chef especializado em alimentação saudável. Sugira até 3 receitas que usem
os ingredientes informados. Responda apenas com um objeto JSON:
{
  "recipes": [{"name": string, "description": string, "ingredients": [string], "instructions": [string],
    "prepTime": string, "servings": number, "calories": number, "protein": number, "carbs": number, "fat": number}]
}
Valores nutricionais por porção. Textos em português do Brasil.`

	maxChatHistory = 10
)

/* ─── Request / Response types ───────────────────────────────────────── */

type chatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type aiChatRequest struct {
	Message string     `json:"message"`
	History []chatTurn `json:"history"`
}

type analyzeMealRequest struct {
	Description string `json:"description"`
}

// mealAnalysis is the estimate returned by POST /api/ai/analyze-meal.
type mealAnalysis struct {
	Foods []struct {
		Name     string  `json:"name"`
		Quantity string  `json:"quantity"`
		Calories float64 `json:"calories"`
		Protein  float64 `json:"protein"`
		Carbs    float64 `json:"carbs"`
		Fat      float64 `json:"fat"`
	} `json:"foods"`
	Totals struct {
		Calories float64 `json:"calories"`
		Protein  float64 `json:"protein"`
		Carbs    float64 `json:"carbs"`
		Fat      float64 `json:"fat"`
	} `json:"totals"`
	Suggestions []string `json:"suggestions"`
}

type suggestRecipesRequest struct {
	Ingredients []string `json:"ingredients"`
	Preferences string   `json:"preferences"`
}

// recipeSuggestions is returned by POST /api/ai/suggest-recipes.
type recipeSuggestions struct {
	Recipes []struct {
		Name         string   `json:"name"`
		Description  string   `json:"description"`
		Ingredients  []string `json:"ingredients"`
		Instructions []string `json:"instructions"`
		PrepTime     string   `json:"prepTime"`
		Servings     int      `json:"servings"`
		Calories     float64  `json:"calories"`
		Protein      float64  `json:"protein"`
		Carbs        float64  `json:"carbs"`
		Fat          float64  `json:"fat"`
	} `json:"recipes"`
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// aiChat forwards a conversation to the LLM.
// POST /api/ai/chat {message, history[]} → {reply}.
func (h *Handler) aiChat(c *gin.Context) {
	var req aiChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		apiError(c, http.StatusBadRequest, "mensagem é obrigatória")
		return
	}

	system := chatSystemPrompt
	if u, err := h.users.userByID(c, currentUserID(c)); err == nil {
		system += "\n\n" + profilePrompt(u)
	}

	messages := []chatMessage{{Role: "system", Content: system}}
	history := req.History
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}
	for _, turn := range history {
		if (turn.Role == "user" || turn.Role == "assistant") && strings.TrimSpace(turn.Content) != "" {
			messages = append(messages, chatMessage{Role: turn.Role, Content: turn.Content})
		}
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Message})

	reply, err := h.llm.complete(c, "chat", messages, false)
	if err != nil {
		respondError(c, err, "o assistente está indisponível no momento, tente novamente mais tarde")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": strings.TrimSpace(reply)})
}

// aiAnalyzeMeal estimates the nutrition of a free-text meal description.
// POST /api/ai/analyze-meal.
func (h *Handler) aiAnalyzeMeal(c *gin.Context) {
	var req analyzeMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		apiError(c, http.StatusBadRequest, "descrição é obrigatória")
		return
	}

	raw, err := h.llm.complete(c, "analyze_meal", []chatMessage{
		{Role: "system", Content: analyzeMealSystemPrompt},
		{Role: "user", Content: req.Description},
	}, true)
	if err != nil {
		respondError(c, err, "falha ao analisar refeição, tente novamente mais tarde")
		return
	}

	var analysis mealAnalysis
	if err := extractJSONObject(raw, &analysis); err != nil {
		respondError(c, err, "falha ao analisar refeição")
		return
	}
	if analysis.Suggestions == nil {
		analysis.Suggestions = []string{}
	}
	c.JSON(http.StatusOK, analysis)
}

// aiSuggestRecipes proposes recipes for a set of ingredients.
// POST /api/ai/suggest-recipes.
func (h *Handler) aiSuggestRecipes(c *gin.Context) {
	var req suggestRecipesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	ingredients := make([]string, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			ingredients = append(ingredients, ing)
		}
	}
	if len(ingredients) == 0 {
		apiError(c, http.StatusBadRequest, "informe pelo menos um ingrediente")
		return
	}

	prompt := "Ingredientes disponíveis: " + strings.Join(ingredients, ", ")
	if p := strings.TrimSpace(req.Preferences); p != "" {
		prompt += "\nPreferências: " + p
	}

	raw, err := h.llm.complete(c, "suggest_recipes", []chatMessage{
		{Role: "system", Content: suggestRecipesSystemPrompt},
		{Role: "user", Content: prompt},
	}, true)
	if err != nil {
		respondError(c, err, "falha ao sugerir receitas, tente novamente mais tarde")
		return
	}

	var out recipeSuggestions
	if err := extractJSONObject(raw, &out); err != nil {
		respondError(c, err, "falha ao sugerir receitas")
		return
	}
	if out.Recipes == nil {
		c.JSON(http.StatusOK, gin.H{"recipes": []any{}})
		return
	}
	c.JSON(http.StatusOK, out)
}
