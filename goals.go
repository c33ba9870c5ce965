package main

import (
	"math"
)

// activityMultipliers maps activity level strings to their TDEE multiplier.
// patchProfile validates activity levels against the same keys.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// goalOffsets maps a weight goal to the daily calorie adjustment applied to TDEE.
var goalOffsets = map[string]float64{
	"lose":     -500,
	"maintain": 0,
	"gain":     300,
}

// Macro split of the calorie goal: protein and carbs at 4 kcal/g, fat at 9 kcal/g.
const (
	proteinShare = 0.25
	carbsShare   = 0.50
	fatShare     = 0.25
)

// defaultGoals are assigned to new accounts until a profile is filled in.
var defaultGoals = macroSplit(2000)

// computeGoals derives daily targets from body measurements: BMR via
// Mifflin-St Jeor, times the activity multiplier, plus the goal offset.
// Returns ok=false when a required measurement is missing or implausible.
func computeGoals(u *user) (nutritionGoals, bool) {
	if u.Sex == nil || u.Age == nil || u.WeightKG == nil || u.HeightCM == nil || u.ActivityLevel == nil {
		return nutritionGoals{}, false
	}
	if *u.Age < 10 || *u.Age > 130 || *u.WeightKG <= 0 || *u.HeightCM <= 0 {
		return nutritionGoals{}, false
	}

	// BMR via Mifflin-St Jeor: different constant for male vs female
	bmr := 10**u.WeightKG + 6.25**u.HeightCM - 5*float64(*u.Age)
	if *u.Sex == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}

	mult, found := activityMultipliers[*u.ActivityLevel]
	if !found {
		return nutritionGoals{}, false
	}
	offset := goalOffsets[u.Goal]

	// Never suggest less than a basic 1200 kcal floor.
	calories := math.Max(bmr*mult+offset, 1200)
	return macroSplit(calories), true
}

// macroSplit turns a calorie target into rounded macro targets in grams.
func macroSplit(calories float64) nutritionGoals {
	return nutritionGoals{
		Calories: int(math.Round(calories)),
		Protein:  int(math.Round(calories * proteinShare / 4)),
		Carbs:    int(math.Round(calories * carbsShare / 4)),
		Fat:      int(math.Round(calories * fatShare / 9)),
	}
}

// applyComputedGoals overwrites u's daily targets when its measurements are complete.
func applyComputedGoals(u *user) bool {
	g, ok := computeGoals(u)
	if !ok {
		return false
	}
	u.DailyCalories = g.Calories
	u.DailyProtein = g.Protein
	u.DailyCarbs = g.Carbs
	u.DailyFat = g.Fat
	return true
}
