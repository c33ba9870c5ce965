package main

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
)

const recommendationWindowDays = 7

// recommendation is one rule-based advice item.
type recommendation struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

// intakeSummary is the averaged intake over the days with data.
type intakeSummary struct {
	DaysLogged  int            `json:"daysLogged"`
	AvgCalories int            `json:"avgCalories"`
	AvgProtein  float64        `json:"avgProtein"`
	AvgCarbs    float64        `json:"avgCarbs"`
	AvgFat      float64        `json:"avgFat"`
	Goals       nutritionGoals `json:"goals"`
}

// aiRecommendations compares the last seven nutritional days with the user's
// goals. No LLM call is made.
// POST /api/ai/personalized-recommendations.
func (h *Handler) aiRecommendations(c *gin.Context) {
	userID := currentUserID(c)
	u, err := h.users.userByID(c, userID)
	if err != nil {
		respondError(c, err, "falha ao gerar recomendações")
		return
	}

	to := h.days.today()
	from := shiftDay(to, -(recommendationWindowDays - 1))
	rows, err := h.nutrition.dailyNutritionRange(c, userID, from, to)
	if err != nil {
		respondError(c, err, "falha ao gerar recomendações")
		return
	}

	summary := summarizeIntake(rows, u.goals())
	c.JSON(http.StatusOK, gin.H{
		"summary":         summary,
		"recommendations": buildRecommendations(summary),
	})
}

// summarizeIntake averages the rows that have at least one meal.
func summarizeIntake(rows []dailyNutrition, goals nutritionGoals) intakeSummary {
	s := intakeSummary{Goals: goals}
	var cal, protein, carbs, fat float64
	for _, r := range rows {
		if r.MealCount == 0 {
			continue
		}
		s.DaysLogged++
		cal += float64(r.Calories)
		protein += r.Protein
		carbs += r.Carbs
		fat += r.Fat
	}
	if s.DaysLogged > 0 {
		n := float64(s.DaysLogged)
		s.AvgCalories = int(math.Round(cal / n))
		s.AvgProtein = round1(protein / n)
		s.AvgCarbs = round1(carbs / n)
		s.AvgFat = round1(fat / n)
	}
	return s
}

// buildRecommendations applies fixed thresholds to the averaged intake.
func buildRecommendations(s intakeSummary) []recommendation {
	if s.DaysLogged == 0 {
		return []recommendation{{
			Type:     "tracking",
			Priority: "high",
			Title:    "Comece a registrar suas refeições",
			Message:  "Não encontramos refeições nos últimos 7 dias. Registre o que você come para receber recomendações personalizadas.",
		}}
	}

	var recs []recommendation
	ratio := func(actual, goal float64) float64 {
		if goal <= 0 {
			return 1
		}
		return actual / goal
	}

	switch r := ratio(float64(s.AvgCalories), float64(s.Goals.Calories)); {
	case r < 0.8:
		recs = append(recs, recommendation{
			Type: "calories", Priority: "high",
			Title:   "Consumo calórico abaixo da meta",
			Message: "Sua média de calorias está bem abaixo da meta diária. Inclua lanches nutritivos entre as refeições.",
		})
	case r > 1.1:
		recs = append(recs, recommendation{
			Type: "calories", Priority: "high",
			Title:   "Consumo calórico acima da meta",
			Message: "Sua média de calorias está acima da meta diária. Prefira alimentos menos calóricos e observe o tamanho das porções.",
		})
	}

	if ratio(s.AvgProtein, float64(s.Goals.Protein)) < 0.9 {
		recs = append(recs, recommendation{
			Type: "protein", Priority: "medium",
			Title:   "Aumente a ingestão de proteínas",
			Message: "Inclua fontes de proteína como ovos, frango, peixe, feijão ou iogurte nas refeições principais.",
		})
	}
	if ratio(s.AvgCarbs, float64(s.Goals.Carbs)) > 1.15 {
		recs = append(recs, recommendation{
			Type: "carbs", Priority: "medium",
			Title:   "Reduza os carboidratos",
			Message: "Seu consumo de carboidratos está acima da meta. Troque refinados por integrais e aumente as verduras.",
		})
	}
	if ratio(s.AvgFat, float64(s.Goals.Fat)) > 1.15 {
		recs = append(recs, recommendation{
			Type: "fat", Priority: "medium",
			Title:   "Modere as gorduras",
			Message: "Seu consumo de gorduras está acima da meta. Prefira preparações grelhadas ou assadas às frituras.",
		})
	}
	if s.DaysLogged < 5 {
		recs = append(recs, recommendation{
			Type: "tracking", Priority: "low",
			Title:   "Registre com mais frequência",
			Message: "Registrar as refeições todos os dias deixa as recomendações mais precisas.",
		})
	}

	if len(recs) == 0 {
		recs = append(recs, recommendation{
			Type: "general", Priority: "low",
			Title:   "Continue assim",
			Message: "Sua alimentação da última semana está alinhada com as suas metas.",
		})
	}
	return recs
}
