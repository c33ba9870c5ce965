package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// store is the full persistence surface the handlers need. pgStore implements
// it against PostgreSQL.
type store interface {
	userStore
	sessionStore
	foodStore
	mealStore
	recipeStore
	nutritionStore
	planStore
	weightStore
}

// Handler holds shared dependencies (stores, upstream clients, config) for all route handlers.
type Handler struct {
	users     userStore
	foods     foodStore
	meals     mealStore
	recipes   recipeStore
	nutrition nutritionStore
	plans     planStore
	weights   weightStore

	agg     *aggregator
	days    dayResolver
	catalog *usdaCatalog
	llm     *llmClient
	auth    authenticator
	metrics *apiMetrics

	google            *oauth2.Config
	googleUserInfoURL string // overridable for tests
}

// newHandler wires a Handler from config and a store.
func newHandler(cfg appConfig, st store, auth authenticator, m *apiMetrics) *Handler {
	days := newDayResolver(cfg.Location)
	return &Handler{
		users:             st,
		foods:             st,
		meals:             st,
		recipes:           st,
		nutrition:         st,
		plans:             st,
		weights:           st,
		agg:               newAggregator(st, days),
		days:              days,
		catalog:           newUSDACatalog(cfg.USDABaseURL, cfg.USDAAPIKey, m),
		llm:               newLLMClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, m),
		auth:              auth,
		metrics:           m,
		google:            newGoogleOAuthConfig(cfg),
		googleUserInfoURL: googleUserInfoURL,
	}
}

/* ─── Request helpers ─────────────────────────────────────────────────── */

// currentUserID returns the id set by authMiddleware.
func currentUserID(c *gin.Context) int {
	return c.GetInt("user_id")
}

// idParam parses a positive integer path parameter.
func idParam(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, invalid("%s inválido", name)
	}
	return id, nil
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// getDBPool creates a connection pool. We use a pool (not a single conn) because
// managed Postgres providers close idle connections after a few minutes.
func getDBPool(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse DB URL: %w", err)
	}
	// Use simple query protocol to avoid "cached plan must not change result type"
	// errors from server-side prepared statement caches after schema changes.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info().Msg("DB pool ready")
	return pool, nil
}

// newRouter builds the gin engine with the ambient middleware and all routes.
func (h *Handler) newRouter() *gin.Engine {
	router := gin.New()
	router.SetTrustedProxies(nil)
	router.Use(requestLogger(), recovery())
	if h.metrics != nil {
		router.Use(h.metrics.middleware())
		router.GET("/metrics", h.metrics.handler())
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	h.registerRoutes(router)
	return router
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.POST("/api/register", h.register)
	router.POST("/api/login", h.login)
	router.GET("/api/auth/google", h.googleLogin)
	router.GET("/api/auth/google/callback", h.googleCallback)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.POST("/logout", h.logout)
	api.GET("/user", h.getCurrentUser)
	api.PATCH("/user/profile", h.patchProfile)

	api.GET("/foods", h.listFoods)
	api.GET("/foods/search", h.searchCatalog)
	api.POST("/foods", h.createFood)
	api.POST("/foods/from-usda", h.createFoodFromUSDA)
	api.PUT("/foods/:id", h.updateFood)
	api.DELETE("/foods/:id", h.deleteFood)

	api.GET("/meal-types", h.listMealTypes)
	api.GET("/meals", h.listMeals)
	api.GET("/meals/:id", h.getMeal)
	api.POST("/meals", h.createMeal)
	api.POST("/meals/:id/foods", h.addMealFood)
	api.PUT("/meals/:id/foods/:foodId", h.updateMealFood)
	api.DELETE("/meals/:id/foods/:foodId", h.deleteMealFood)
	api.DELETE("/meals/:id", h.deleteMeal)

	api.GET("/recipes", h.listRecipes)
	api.GET("/recipes/:id", h.getRecipe)
	api.POST("/recipes", h.createRecipe)
	api.POST("/recipes/:id/ingredients", h.addRecipeIngredient)
	api.DELETE("/recipes/:id/ingredients/:ingredientId", h.deleteRecipeIngredient)
	api.POST("/recipes/:id/log", h.logRecipe)
	api.DELETE("/recipes/:id", h.deleteRecipe)

	api.GET("/nutrition/daily", h.getDailyNutrition)
	api.GET("/nutrition/history", h.getNutritionHistory)
	api.GET("/progress/hourly", h.getHourlyProgress)
	api.GET("/progress/weekly", h.getWeeklyProgress)
	api.GET("/progress/monthly", h.getMonthlyProgress)

	api.POST("/ai/chat", h.aiChat)
	api.POST("/ai/analyze-meal", h.aiAnalyzeMeal)
	api.POST("/ai/suggest-recipes", h.aiSuggestRecipes)
	api.POST("/ai/personalized-recommendations", h.aiRecommendations)

	api.POST("/generate-meal-plan", h.generateMealPlan)
	api.POST("/generate-workout-plan", h.generateWorkoutPlan)
	api.GET("/user-plans", h.listPlans)
	api.POST("/user-plans", h.createPlan)
	api.POST("/user-plans/:id/activate", h.activatePlan)
	api.DELETE("/user-plans/:id", h.deletePlan)

	api.POST("/export/pdf", h.exportPDF)
	api.GET("/reports/nutrition-pdf", h.nutritionReportPDF)
	api.GET("/reports/nutrition-html", h.nutritionReportHTML)

	api.GET("/weight-log", h.getWeightLog)
	api.POST("/weight-log", h.upsertWeightEntry)
	api.PUT("/weight-log/:id", h.updateWeightEntry)
	api.DELETE("/weight-log/:id", h.deleteWeightEntry)
}
