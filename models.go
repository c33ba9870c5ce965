package main

import (
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(dateLayout) + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns (OID 1082) into DateOnly. NULL values zero the time and return nil
// so that *DateOnly pointer fields can be set to nil by pgx's NULL handling.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

// Key returns the date as a nutritional-day key.
func (d DateOnly) Key() string { return d.Time.Format(dateLayout) }

/* ─── Domain structs ─────────────────────────────────────────────────── */

// user maps to the users table. Password and GoogleID are hidden from JSON
// responses; both are nullable because a user signs up with one or the other.
type user struct {
	ID                   int        `json:"id"                   db:"id"`
	Username             string     `json:"username"             db:"username"`
	Email                string     `json:"email"                db:"email"`
	Name                 string     `json:"name"                 db:"name"`
	Password             *string    `json:"-"                    db:"password"`
	GoogleID             *string    `json:"-"                    db:"google_id"`
	Sex                  *string    `json:"sex"                  db:"sex"`
	Age                  *int       `json:"age"                  db:"age"`
	WeightKG             *float64   `json:"weight"               db:"weight_kg"`
	HeightCM             *float64   `json:"height"               db:"height_cm"`
	ActivityLevel        *string    `json:"activityLevel"        db:"activity_level"`
	Goal                 string     `json:"goal"                 db:"goal"`
	DailyCalories        int        `json:"dailyCalories"        db:"daily_calories"`
	DailyProtein         int        `json:"dailyProtein"         db:"daily_protein"`
	DailyCarbs           int        `json:"dailyCarbs"           db:"daily_carbs"`
	DailyFat             int        `json:"dailyFat"             db:"daily_fat"`
	NotificationsEnabled bool       `json:"notificationsEnabled" db:"notifications_enabled"`
	CreatedAt            *time.Time `json:"createdAt"            db:"created_at"`
}

// goals returns the user's stored daily targets.
func (u user) goals() nutritionGoals {
	return nutritionGoals{
		Calories: u.DailyCalories,
		Protein:  u.DailyProtein,
		Carbs:    u.DailyCarbs,
		Fat:      u.DailyFat,
	}
}

// food is the single shape used for custom foods, USDA-sourced foods and the
// built-in fallback list. Nutrition values are per 100 g. Source is filled in
// by whoever produced the record and is never stored.
type food struct {
	ID              int        `json:"id"              db:"id"`
	UserID          *int       `json:"userId"          db:"user_id"`
	Name            string     `json:"name"            db:"name"`
	Brand           *string    `json:"brand"           db:"brand"`
	Category        *string    `json:"category"        db:"category"`
	CaloriesPer100g float64    `json:"caloriesPer100g" db:"calories_per_100g"`
	ProteinPer100g  float64    `json:"proteinPer100g"  db:"protein_per_100g"`
	CarbsPer100g    float64    `json:"carbsPer100g"    db:"carbs_per_100g"`
	FatPer100g      float64    `json:"fatPer100g"      db:"fat_per_100g"`
	FiberPer100g    *float64   `json:"fiberPer100g"    db:"fiber_per_100g"`
	USDAFdcID       *int       `json:"usdaFdcId"       db:"usda_fdc_id"`
	IsCustom        bool       `json:"isCustom"        db:"is_custom"`
	CreatedAt       *time.Time `json:"createdAt"       db:"created_at"`

	Source string `json:"source,omitempty" db:"-"`
}

// mealType maps to the seeded meal_types table (breakfast, lunch, ...).
type mealType struct {
	ID        int    `json:"id"        db:"id"`
	Name      string `json:"name"      db:"name"`
	Label     string `json:"label"     db:"label"`
	SortOrder int    `json:"sortOrder" db:"sort_order"`
}

// meal maps to the meals table. The total_* columns are denormalized sums of
// the meal's own meal_foods rows and are recomputed whenever a line changes.
type meal struct {
	ID            int       `json:"id"            db:"id"`
	UserID        int       `json:"userId"        db:"user_id"`
	MealTypeID    int       `json:"mealTypeId"    db:"meal_type_id"`
	Name          string    `json:"name"          db:"name"`
	Date          DateOnly  `json:"date"          db:"date"`
	TotalCalories int       `json:"totalCalories" db:"total_calories"`
	TotalProtein  float64   `json:"totalProtein"  db:"total_protein"`
	TotalCarbs    float64   `json:"totalCarbs"    db:"total_carbs"`
	TotalFat      float64   `json:"totalFat"      db:"total_fat"`
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`

	Foods []mealFood `json:"foods" db:"-"`
}

// mealFood is one line of a meal. Its nutrition columns are a snapshot taken
// when the line was written and are not touched when the food changes later.
type mealFood struct {
	ID        int       `json:"id"        db:"id"`
	MealID    int       `json:"mealId"    db:"meal_id"`
	FoodID    int       `json:"foodId"    db:"food_id"`
	FoodName  string    `json:"foodName"  db:"food_name"`
	Quantity  float64   `json:"quantity"  db:"quantity"`
	Unit      string    `json:"unit"      db:"unit"`
	Calories  int       `json:"calories"  db:"calories"`
	Protein   float64   `json:"protein"   db:"protein"`
	Carbs     float64   `json:"carbs"     db:"carbs"`
	Fat       float64   `json:"fat"       db:"fat"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// recipe maps to the recipes table; totals cover the whole recipe, not a serving.
type recipe struct {
	ID            int       `json:"id"            db:"id"`
	UserID        int       `json:"userId"        db:"user_id"`
	Name          string    `json:"name"          db:"name"`
	Description   *string   `json:"description"   db:"description"`
	Instructions  *string   `json:"instructions"  db:"instructions"`
	Servings      int       `json:"servings"      db:"servings"`
	TotalCalories int       `json:"totalCalories" db:"total_calories"`
	TotalProtein  float64   `json:"totalProtein"  db:"total_protein"`
	TotalCarbs    float64   `json:"totalCarbs"    db:"total_carbs"`
	TotalFat      float64   `json:"totalFat"      db:"total_fat"`
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`

	Ingredients []recipeIngredient `json:"ingredients" db:"-"`
}

// recipeIngredient mirrors mealFood for recipes.
type recipeIngredient struct {
	ID       int     `json:"id"       db:"id"`
	RecipeID int     `json:"recipeId" db:"recipe_id"`
	FoodID   int     `json:"foodId"   db:"food_id"`
	FoodName string  `json:"foodName" db:"food_name"`
	Quantity float64 `json:"quantity" db:"quantity"`
	Unit     string  `json:"unit"     db:"unit"`
	Calories int     `json:"calories" db:"calories"`
	Protein  float64 `json:"protein"  db:"protein"`
	Carbs    float64 `json:"carbs"    db:"carbs"`
	Fat      float64 `json:"fat"      db:"fat"`
}

// dailyNutrition maps to daily_nutrition: one row per (user, nutritional day).
type dailyNutrition struct {
	UserID    int       `json:"userId"    db:"user_id"`
	Date      DateOnly  `json:"date"      db:"date"`
	Calories  int       `json:"calories"  db:"calories"`
	Protein   float64   `json:"protein"   db:"protein"`
	Carbs     float64   `json:"carbs"     db:"carbs"`
	Fat       float64   `json:"fat"       db:"fat"`
	MealCount int       `json:"mealCount" db:"meal_count"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// plan maps to the plans table. Content holds the plan body as produced by the
// generator or sent by the client.
type plan struct {
	ID          int             `json:"id"          db:"id"`
	UserID      int             `json:"userId"      db:"user_id"`
	Name        string          `json:"name"        db:"name"`
	Type        string          `json:"type"        db:"type"`
	Description *string         `json:"description" db:"description"`
	Content     json.RawMessage `json:"content"     db:"content"`
	Source      string          `json:"source"      db:"source"`
	IsActive    bool            `json:"isActive"    db:"is_active"`
	CreatedAt   time.Time       `json:"createdAt"   db:"created_at"`
}

// weightEntry maps to weight_log. UNIQUE(user_id, date).
type weightEntry struct {
	ID        int        `json:"id"        db:"id"`
	UserID    int        `json:"userId"    db:"user_id"`
	Date      DateOnly   `json:"date"      db:"date"`
	WeightKG  float64    `json:"weight"    db:"weight_kg"`
	CreatedAt *time.Time `json:"createdAt" db:"created_at"`
}

/* ─── Aggregation shapes ─────────────────────────────────────────────── */

// nutritionGoals are a user's daily targets.
type nutritionGoals struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

// macroTotals is the raw sum of meal totals over a window, before rounding.
type macroTotals struct {
	Calories  float64 `db:"calories"`
	Protein   float64 `db:"protein"`
	Carbs     float64 `db:"carbs"`
	Fat       float64 `db:"fat"`
	MealCount int     `db:"meal_count"`
}

// dayTotals is one nutritional day's rolled-up totals.
type dayTotals struct {
	Date      string         `json:"date"`
	Weekday   string         `json:"weekday"`
	Calories  int            `json:"calories"`
	Protein   float64        `json:"protein"`
	Carbs     float64        `json:"carbs"`
	Fat       float64        `json:"fat"`
	MealCount int            `json:"mealCount"`
	HasData   bool           `json:"hasData"`
	Goals     nutritionGoals `json:"goals"`
}

// weekBucketTotals is one Sunday-aligned week of a monthly rollup.
type weekBucketTotals struct {
	Label     string  `json:"label"`
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	Calories  int     `json:"calories"`
	Protein   float64 `json:"protein"`
	Carbs     float64 `json:"carbs"`
	Fat       float64 `json:"fat"`
	MealCount int     `json:"mealCount"`
}

// hourTotals is one hour of a nutritional day.
type hourTotals struct {
	Hour     int     `json:"hour"`
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

/* ─── Requests ───────────────────────────────────────────────────────── */

// foodLineRequest is one food in POST /api/meals, POST /api/meals/:id/foods
// and POST /api/recipes/:id/ingredients.
type foodLineRequest struct {
	FoodID   int     `json:"foodId"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// createMealRequest is the request body for POST /api/meals.
// LoggedAt wins over Date; with neither the meal is logged now.
type createMealRequest struct {
	MealTypeID int               `json:"mealTypeId"`
	Name       string            `json:"name"`
	Date       string            `json:"date"`
	LoggedAt   *time.Time        `json:"loggedAt"`
	Foods      []foodLineRequest `json:"foods"`
}

// updateLineRequest is the request body for PUT /api/meals/:id/foods/:foodId.
type updateLineRequest struct {
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// patchProfileRequest is the request body for PATCH /api/user/profile.
// Only non-nil fields are written to the database.
type patchProfileRequest struct {
	Name                 *string  `json:"name"`
	Sex                  *string  `json:"sex"`
	Age                  *int     `json:"age"`
	WeightKG             *float64 `json:"weight"`
	HeightCM             *float64 `json:"height"`
	ActivityLevel        *string  `json:"activityLevel"`
	Goal                 *string  `json:"goal"`
	DailyCalories        *int     `json:"dailyCalories"`
	DailyProtein         *int     `json:"dailyProtein"`
	DailyCarbs           *int     `json:"dailyCarbs"`
	DailyFat             *int     `json:"dailyFat"`
	NotificationsEnabled *bool    `json:"notificationsEnabled"`
}

// foodRequest is the request body for POST /api/foods and POST /api/foods/from-usda.
type foodRequest struct {
	Name            string   `json:"name"`
	Brand           *string  `json:"brand"`
	Category        *string  `json:"category"`
	CaloriesPer100g float64  `json:"caloriesPer100g"`
	ProteinPer100g  float64  `json:"proteinPer100g"`
	CarbsPer100g    float64  `json:"carbsPer100g"`
	FatPer100g      float64  `json:"fatPer100g"`
	FiberPer100g    *float64 `json:"fiberPer100g"`
	USDAFdcID       *int     `json:"usdaFdcId"`
}

// patchFoodRequest is the request body for PUT /api/foods/:id.
type patchFoodRequest struct {
	Name            *string  `json:"name"`
	Brand           *string  `json:"brand"`
	Category        *string  `json:"category"`
	CaloriesPer100g *float64 `json:"caloriesPer100g"`
	ProteinPer100g  *float64 `json:"proteinPer100g"`
	CarbsPer100g    *float64 `json:"carbsPer100g"`
	FatPer100g      *float64 `json:"fatPer100g"`
	FiberPer100g    *float64 `json:"fiberPer100g"`
}
