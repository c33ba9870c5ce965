package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// patchProfile updates only the provided profile fields.
// PATCH /api/user/profile. Pointer fields distinguish "not provided" from zero.
// When a measurement, the activity level or the goal changes and the client
// did not send explicit targets, the daily goals are recomputed.
func (h *Handler) patchProfile(c *gin.Context) {
	userID := currentUserID(c)

	var body patchProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	if err := validateProfilePatch(body); err != nil {
		respondError(c, err, "falha ao atualizar perfil")
		return
	}

	current, err := h.users.userByID(c, userID)
	if err != nil {
		respondError(c, err, "falha ao atualizar perfil")
		return
	}

	if measurementsChanged(body) && !explicitGoals(body) {
		merged := mergeProfile(current, body)
		if applyComputedGoals(&merged) {
			body.DailyCalories = &merged.DailyCalories
			body.DailyProtein = &merged.DailyProtein
			body.DailyCarbs = &merged.DailyCarbs
			body.DailyFat = &merged.DailyFat
		}
	}

	updated, err := h.users.updateUserProfile(c, userID, body)
	if err != nil {
		respondError(c, err, "falha ao atualizar perfil")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// validateProfilePatch rejects unknown enum values and non-positive numbers.
// An unknown activity level would silently disable goal recomputation.
func validateProfilePatch(p patchProfileRequest) error {
	if p.Sex != nil && *p.Sex != "male" && *p.Sex != "female" {
		return invalid("sexo deve ser male ou female")
	}
	if p.ActivityLevel != nil {
		if _, ok := activityMultipliers[*p.ActivityLevel]; !ok {
			return invalid("nível de atividade deve ser: sedentary, light, moderate, active, very_active")
		}
	}
	if p.Goal != nil {
		if _, ok := goalOffsets[*p.Goal]; !ok {
			return invalid("objetivo deve ser: lose, maintain, gain")
		}
	}
	if p.Age != nil && (*p.Age < 10 || *p.Age > 130) {
		return invalid("idade inválida")
	}
	if p.WeightKG != nil && *p.WeightKG <= 0 {
		return invalid("peso deve ser maior que zero")
	}
	if p.HeightCM != nil && *p.HeightCM <= 0 {
		return invalid("altura deve ser maior que zero")
	}
	for _, v := range []*int{p.DailyCalories, p.DailyProtein, p.DailyCarbs, p.DailyFat} {
		if v != nil && *v <= 0 {
			return invalid("metas diárias devem ser maiores que zero")
		}
	}
	return nil
}

func measurementsChanged(p patchProfileRequest) bool {
	return p.Sex != nil || p.Age != nil || p.WeightKG != nil || p.HeightCM != nil ||
		p.ActivityLevel != nil || p.Goal != nil
}

func explicitGoals(p patchProfileRequest) bool {
	return p.DailyCalories != nil || p.DailyProtein != nil || p.DailyCarbs != nil || p.DailyFat != nil
}

// mergeProfile returns u with the measurement fields of p applied.
func mergeProfile(u user, p patchProfileRequest) user {
	if p.Sex != nil {
		u.Sex = p.Sex
	}
	if p.Age != nil {
		u.Age = p.Age
	}
	if p.WeightKG != nil {
		u.WeightKG = p.WeightKG
	}
	if p.HeightCM != nil {
		u.HeightCM = p.HeightCM
	}
	if p.ActivityLevel != nil {
		u.ActivityLevel = p.ActivityLevel
	}
	if p.Goal != nil {
		u.Goal = *p.Goal
	}
	return u
}
