package main

import (
	"math"
	"strings"
)

// unitGrams is the fixed grams-per-unit table used to turn a quantity+unit
// into grams. It is a context-free approximation: a cup of oil and a cup of
// flour weigh the same here. Units not listed convert 1:1.
var unitGrams = map[string]float64{
	"g":              1,
	"grama":          1,
	"gramas":         1,
	"kg":             1000,
	"ml":             1,
	"l":              1000,
	"colher de sopa": 15,
	"tablespoon":     15,
	"tbsp":           15,
	"colher de chá":  5,
	"teaspoon":       5,
	"tsp":            5,
	"xícara":         240,
	"cup":            240,
	"unidade":        100,
	"unit":           100,
	"fatia":          30,
	"slice":          30,
	"porção":         100,
	"serving":        100,
	"oz":             28.35,
}

// unitFactor returns grams per one unit.
func unitFactor(unit string) float64 {
	if f, ok := unitGrams[strings.ToLower(strings.TrimSpace(unit))]; ok {
		return f
	}
	return 1
}

// nutritionSnapshot is the frozen nutrition of a quantity of one food.
type nutritionSnapshot struct {
	Calories int
	Protein  float64
	Carbs    float64
	Fat      float64
}

// lineNutrition computes the snapshot for quantity×unit of f from f's per-100g
// values. Calories round to the nearest integer, macros to one decimal.
func lineNutrition(f food, quantity float64, unit string) nutritionSnapshot {
	m := quantity * unitFactor(unit) / 100
	return nutritionSnapshot{
		Calories: int(math.Round(f.CaloriesPer100g * m)),
		Protein:  round1(f.ProteinPer100g * m),
		Carbs:    round1(f.CarbsPer100g * m),
		Fat:      round1(f.FatPer100g * m),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
