package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// memStore is an in-memory store for handler tests. It mirrors the pgStore
// contract: ownership checks, notFound/conflict errors and totals recomputed
// from the lines on every change.
type memStore struct {
	mu sync.Mutex

	nextID    int
	users     map[int]user
	sessions  map[string]memSession
	foods     map[int]food
	mealTypes []mealType
	meals     map[int]meal
	recipes   map[int]recipe
	daily     map[string]dailyNutrition
	plans     map[int]plan
	weights   map[int]weightEntry

	upserts int
}

type memSession struct {
	userID    int
	expiresAt time.Time
}

var _ store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		nextID:   100,
		users:    map[int]user{},
		sessions: map[string]memSession{},
		foods:    map[int]food{},
		mealTypes: []mealType{
			{ID: 1, Name: "breakfast", Label: "Café da manhã", SortOrder: 1},
			{ID: 2, Name: "lunch", Label: "Almoço", SortOrder: 2},
			{ID: 3, Name: "dinner", Label: "Jantar", SortOrder: 3},
			{ID: 4, Name: "snack", Label: "Lanche", SortOrder: 4},
		},
		meals:   map[int]meal{},
		recipes: map[int]recipe{},
		daily:   map[string]dailyNutrition{},
		plans:   map[int]plan{},
		weights: map[int]weightEntry{},
	}
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

/* ─── Seeding helpers ────────────────────────────────────────────────── */

func (s *memStore) addUser(u user) user {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	}
	if u.Goal == "" {
		u.Goal = "maintain"
	}
	if u.DailyCalories == 0 {
		u.DailyCalories, u.DailyProtein, u.DailyCarbs, u.DailyFat =
			defaultGoals.Calories, defaultGoals.Protein, defaultGoals.Carbs, defaultGoals.Fat
	}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addFood(f food) food {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID == 0 {
		f.ID = s.id()
	}
	f.Source = foodSource(f)
	s.foods[f.ID] = f
	return f
}

// addMealAt stores a meal with one pre-computed line at createdAt.
func (s *memStore) addMealAt(userID int, createdAt time.Time, days dayResolver, line mealFood) meal {
	day, _ := days.parse(days.dayKey(createdAt))
	m, _ := s.createMeal(context.Background(), meal{
		UserID: userID, MealTypeID: 1, Name: "Café da manhã",
		Date: DateOnly{day}, CreatedAt: createdAt, Foods: []mealFood{line},
	})
	return m
}

/* ─── userStore ──────────────────────────────────────────────────────── */

func (s *memStore) createUser(_ context.Context, u user) (user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username || strings.EqualFold(existing.Email, u.Email) {
			return user{}, conflict("usuário ou email já cadastrado")
		}
	}
	u.ID = s.id()
	now := time.Now()
	u.CreatedAt = &now
	s.users[u.ID] = u
	return u, nil
}

func (s *memStore) userByLogin(_ context.Context, login string) (user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == login || strings.EqualFold(u.Email, login) {
			return u, nil
		}
	}
	return user{}, notFound("usuário não encontrado")
}

func (s *memStore) userByID(_ context.Context, id int) (user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return user{}, notFound("usuário não encontrado")
	}
	return u, nil
}

func (s *memStore) upsertGoogleUser(_ context.Context, googleID, email, name string) (user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if (u.GoogleID != nil && *u.GoogleID == googleID) || u.Email == email {
			u.GoogleID = &googleID
			if u.Name == "" {
				u.Name = name
			}
			s.users[id] = u
			return u, nil
		}
	}
	u := user{
		ID: s.id(), Username: email, Email: email, Name: name, GoogleID: &googleID, Goal: "maintain",
		DailyCalories: defaultGoals.Calories, DailyProtein: defaultGoals.Protein,
		DailyCarbs: defaultGoals.Carbs, DailyFat: defaultGoals.Fat,
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *memStore) updateUserProfile(_ context.Context, id int, p patchProfileRequest) (user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return user{}, notFound("usuário não encontrado")
	}
	u = mergeProfile(u, p)
	if p.Name != nil {
		u.Name = *p.Name
	}
	for dst, src := range map[*int]*int{
		&u.DailyCalories: p.DailyCalories, &u.DailyProtein: p.DailyProtein,
		&u.DailyCarbs: p.DailyCarbs, &u.DailyFat: p.DailyFat,
	} {
		if src != nil {
			*dst = *src
		}
	}
	if p.NotificationsEnabled != nil {
		u.NotificationsEnabled = *p.NotificationsEnabled
	}
	s.users[id] = u
	return u, nil
}

/* ─── sessionStore ───────────────────────────────────────────────────── */

func (s *memStore) createSession(_ context.Context, userID int, expiresAt time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.sessions[token] = memSession{userID: userID, expiresAt: expiresAt}
	return token, nil
}

func (s *memStore) sessionUser(_ context.Context, token string, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok || !sess.expiresAt.After(now) {
		return 0, notFound("sessão não encontrada")
	}
	return sess.userID, nil
}

func (s *memStore) deleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *memStore) pruneSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, sess := range s.sessions {
		if !sess.expiresAt.After(now) {
			delete(s.sessions, token)
			n++
		}
	}
	return n, nil
}

/* ─── foodStore ──────────────────────────────────────────────────────── */

func (s *memStore) visible(userID int, f food) bool {
	return f.UserID == nil || *f.UserID == userID
}

func (s *memStore) listFoods(_ context.Context, userID int, search string) ([]food, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []food{}
	needle := strings.ToLower(search)
	for _, f := range s.foods {
		if !s.visible(userID, f) {
			continue
		}
		category := ""
		if f.Category != nil {
			category = *f.Category
		}
		if needle == "" || strings.Contains(strings.ToLower(f.Name), needle) ||
			strings.Contains(strings.ToLower(category), needle) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) foodByID(_ context.Context, userID, id int) (food, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.foods[id]
	if !ok || !s.visible(userID, f) {
		return food{}, notFound("alimento não encontrado")
	}
	return f, nil
}

func (s *memStore) createFood(_ context.Context, f food) (food, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.id()
	f.IsCustom = true
	f.Source = foodSourceCustom
	s.foods[f.ID] = f
	return f, nil
}

func (s *memStore) upsertUSDAFood(_ context.Context, f food) (food, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.foods {
		if existing.USDAFdcID != nil && f.USDAFdcID != nil && *existing.USDAFdcID == *f.USDAFdcID {
			return existing, nil
		}
	}
	f.ID = s.id()
	f.UserID = nil
	f.IsCustom = false
	f.Source = foodSourceUSDA
	s.foods[f.ID] = f
	return f, nil
}

func (s *memStore) updateFood(_ context.Context, userID, id int, p patchFoodRequest) (food, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.foods[id]
	if !ok || f.UserID == nil || *f.UserID != userID {
		return food{}, notFound("alimento não encontrado")
	}
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Brand != nil {
		f.Brand = p.Brand
	}
	if p.Category != nil {
		f.Category = p.Category
	}
	if p.CaloriesPer100g != nil {
		f.CaloriesPer100g = *p.CaloriesPer100g
	}
	if p.ProteinPer100g != nil {
		f.ProteinPer100g = *p.ProteinPer100g
	}
	if p.CarbsPer100g != nil {
		f.CarbsPer100g = *p.CarbsPer100g
	}
	if p.FatPer100g != nil {
		f.FatPer100g = *p.FatPer100g
	}
	if p.FiberPer100g != nil {
		f.FiberPer100g = p.FiberPer100g
	}
	s.foods[id] = f
	return f, nil
}

func (s *memStore) deleteFood(_ context.Context, userID, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.foods[id]
	if !ok || f.UserID == nil || *f.UserID != userID {
		return notFound("alimento não encontrado")
	}
	for _, m := range s.meals {
		for _, l := range m.Foods {
			if l.FoodID == id {
				return conflict("alimento em uso por refeições ou receitas")
			}
		}
	}
	for _, r := range s.recipes {
		for _, ing := range r.Ingredients {
			if ing.FoodID == id {
				return conflict("alimento em uso por refeições ou receitas")
			}
		}
	}
	delete(s.foods, id)
	return nil
}

/* ─── mealStore ──────────────────────────────────────────────────────── */

func (s *memStore) listMealTypes(context.Context) ([]mealType, error) {
	return s.mealTypes, nil
}

func (s *memStore) mealTypeByID(_ context.Context, id int) (mealType, error) {
	for _, mt := range s.mealTypes {
		if mt.ID == id {
			return mt, nil
		}
	}
	return mealType{}, notFound("tipo de refeição não encontrado")
}

func (s *memStore) listMeals(_ context.Context, userID int, start, end time.Time) ([]meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []meal{}
	for _, m := range s.meals {
		if m.UserID == userID && !m.CreatedAt.Before(start) && m.CreatedAt.Before(end) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) mealByID(_ context.Context, userID, id int) (meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meals[id]
	if !ok || m.UserID != userID {
		return meal{}, notFound("refeição não encontrada")
	}
	return m, nil
}

func (s *memStore) createMeal(_ context.Context, m meal) (meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	lines := make([]mealFood, 0, len(m.Foods))
	for _, l := range m.Foods {
		if _, ok := s.foods[l.FoodID]; !ok {
			return meal{}, notFound("alimento não encontrado")
		}
		l.ID = s.id()
		l.MealID = m.ID
		lines = append(lines, l)
	}
	m.Foods = lines
	recomputeMemMeal(&m)
	s.meals[m.ID] = m
	return m, nil
}

func (s *memStore) addMealLine(ctx context.Context, userID, mealID int, line mealFood) (meal, error) {
	return s.changeMeal(userID, mealID, func(m *meal) error {
		line.ID = s.id()
		line.MealID = mealID
		m.Foods = append(m.Foods, line)
		return nil
	})
}

func (s *memStore) updateMealLine(_ context.Context, userID, mealID int, line mealFood) (meal, error) {
	return s.changeMeal(userID, mealID, func(m *meal) error {
		for i := range m.Foods {
			if m.Foods[i].ID == line.ID {
				line.MealID = mealID
				line.FoodID = m.Foods[i].FoodID
				line.FoodName = m.Foods[i].FoodName
				m.Foods[i] = line
				return nil
			}
		}
		return notFound("alimento não encontrado na refeição")
	})
}

func (s *memStore) deleteMealLine(_ context.Context, userID, mealID, lineID int) (meal, error) {
	return s.changeMeal(userID, mealID, func(m *meal) error {
		for i := range m.Foods {
			if m.Foods[i].ID == lineID {
				m.Foods = append(m.Foods[:i], m.Foods[i+1:]...)
				return nil
			}
		}
		return notFound("alimento não encontrado na refeição")
	})
}

func (s *memStore) deleteMeal(_ context.Context, userID, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meals[id]
	if !ok || m.UserID != userID {
		return notFound("refeição não encontrada")
	}
	delete(s.meals, id)
	return nil
}

func (s *memStore) changeMeal(userID, mealID int, fn func(*meal) error) (meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meals[mealID]
	if !ok || m.UserID != userID {
		return meal{}, notFound("refeição não encontrada")
	}
	m.Foods = append([]mealFood(nil), m.Foods...)
	if err := fn(&m); err != nil {
		return meal{}, err
	}
	recomputeMemMeal(&m)
	s.meals[mealID] = m
	return m, nil
}

func recomputeMemMeal(m *meal) {
	m.TotalCalories, m.TotalProtein, m.TotalCarbs, m.TotalFat = 0, 0, 0, 0
	for _, l := range m.Foods {
		m.TotalCalories += l.Calories
		m.TotalProtein += l.Protein
		m.TotalCarbs += l.Carbs
		m.TotalFat += l.Fat
	}
}

/* ─── recipeStore ────────────────────────────────────────────────────── */

func (s *memStore) listRecipes(_ context.Context, userID int) ([]recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []recipe{}
	for _, r := range s.recipes {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) recipeByID(_ context.Context, userID, id int) (recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[id]
	if !ok || r.UserID != userID {
		return recipe{}, notFound("receita não encontrada")
	}
	return r, nil
}

func (s *memStore) createRecipe(_ context.Context, r recipe) (recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	r.CreatedAt = time.Now()
	ings := make([]recipeIngredient, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		ing.ID = s.id()
		ing.RecipeID = r.ID
		ings = append(ings, ing)
	}
	r.Ingredients = ings
	recomputeMemRecipe(&r)
	s.recipes[r.ID] = r
	return r, nil
}

func (s *memStore) addRecipeIngredient(_ context.Context, userID, recipeID int, ing recipeIngredient) (recipe, error) {
	return s.changeRecipe(userID, recipeID, func(r *recipe) error {
		ing.ID = s.id()
		ing.RecipeID = recipeID
		r.Ingredients = append(r.Ingredients, ing)
		return nil
	})
}

func (s *memStore) deleteRecipeIngredient(_ context.Context, userID, recipeID, ingredientID int) (recipe, error) {
	return s.changeRecipe(userID, recipeID, func(r *recipe) error {
		for i := range r.Ingredients {
			if r.Ingredients[i].ID == ingredientID {
				r.Ingredients = append(r.Ingredients[:i], r.Ingredients[i+1:]...)
				return nil
			}
		}
		return notFound("ingrediente não encontrado")
	})
}

func (s *memStore) deleteRecipe(_ context.Context, userID, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[id]
	if !ok || r.UserID != userID {
		return notFound("receita não encontrada")
	}
	delete(s.recipes, id)
	return nil
}

func (s *memStore) changeRecipe(userID, recipeID int, fn func(*recipe) error) (recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[recipeID]
	if !ok || r.UserID != userID {
		return recipe{}, notFound("receita não encontrada")
	}
	r.Ingredients = append([]recipeIngredient(nil), r.Ingredients...)
	if err := fn(&r); err != nil {
		return recipe{}, err
	}
	recomputeMemRecipe(&r)
	s.recipes[recipeID] = r
	return r, nil
}

func recomputeMemRecipe(r *recipe) {
	r.TotalCalories, r.TotalProtein, r.TotalCarbs, r.TotalFat = 0, 0, 0, 0
	for _, ing := range r.Ingredients {
		r.TotalCalories += ing.Calories
		r.TotalProtein += ing.Protein
		r.TotalCarbs += ing.Carbs
		r.TotalFat += ing.Fat
	}
}

/* ─── nutritionStore ─────────────────────────────────────────────────── */

func (s *memStore) sumMeals(_ context.Context, userID int, start, end time.Time) (macroTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var t macroTotals
	for _, m := range s.meals {
		if m.UserID == userID && !m.CreatedAt.Before(start) && m.CreatedAt.Before(end) {
			t.Calories += float64(m.TotalCalories)
			t.Protein += m.TotalProtein
			t.Carbs += m.TotalCarbs
			t.Fat += m.TotalFat
			t.MealCount++
		}
	}
	return t, nil
}

func (s *memStore) sumMealsByHour(_ context.Context, userID int, start, end time.Time) ([]hourlySum, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byHour := map[int]*hourlySum{}
	for _, m := range s.meals {
		if m.UserID != userID || m.CreatedAt.Before(start) || !m.CreatedAt.Before(end) {
			continue
		}
		off := int(m.CreatedAt.Sub(start) / time.Hour)
		b, ok := byHour[off]
		if !ok {
			b = &hourlySum{Offset: off}
			byHour[off] = b
		}
		b.Calories += float64(m.TotalCalories)
		b.Protein += m.TotalProtein
		b.Carbs += m.TotalCarbs
		b.Fat += m.TotalFat
		b.MealCount++
	}
	out := []hourlySum{}
	for _, b := range byHour {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out, nil
}

func dailyKey(userID int, date string) string {
	return fmt.Sprintf("%d/%s", userID, date)
}

func (s *memStore) upsertDailyNutrition(_ context.Context, d dailyNutrition) (dailyNutrition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	d.UpdatedAt = time.Now()
	s.daily[dailyKey(d.UserID, d.Date.Key())] = d
	return d, nil
}

func (s *memStore) dailyNutritionRange(_ context.Context, userID int, from, to string) ([]dailyNutrition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []dailyNutrition{}
	for _, d := range s.daily {
		k := d.Date.Key()
		if d.UserID == userID && k >= from && k <= to {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

// dailyRows returns every stored rollup for userID.
func (s *memStore) dailyRows(userID int) []dailyNutrition {
	rows, _ := s.dailyNutritionRange(context.Background(), userID, "0000-01-01", "9999-12-31")
	return rows
}

/* ─── planStore ──────────────────────────────────────────────────────── */

func (s *memStore) listPlans(_ context.Context, userID int, planType string) ([]plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []plan{}
	for _, p := range s.plans {
		if p.UserID == userID && (planType == "" || p.Type == planType) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) createPlan(_ context.Context, p plan) (plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	p.IsActive = false
	p.CreatedAt = time.Now()
	if !json.Valid(p.Content) {
		p.Content = json.RawMessage(`{}`)
	}
	s.plans[p.ID] = p
	return p, nil
}

func (s *memStore) activatePlan(_ context.Context, userID, id int) (plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.plans[id]
	if !ok || target.UserID != userID {
		return plan{}, notFound("plano não encontrado")
	}
	for pid, p := range s.plans {
		if p.UserID == userID && p.Type == target.Type && pid != id && p.IsActive {
			p.IsActive = false
			s.plans[pid] = p
		}
	}
	target.IsActive = true
	s.plans[id] = target
	return target, nil
}

func (s *memStore) deletePlan(_ context.Context, userID, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok || p.UserID != userID {
		return notFound("plano não encontrado")
	}
	delete(s.plans, id)
	return nil
}

/* ─── weightStore ────────────────────────────────────────────────────── */

func (s *memStore) listWeights(_ context.Context, userID int, from, to string) ([]weightEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []weightEntry{}
	for _, w := range s.weights {
		k := w.Date.Key()
		if w.UserID == userID && k >= from && k <= to {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (s *memStore) upsertWeight(_ context.Context, userID int, date string, kg float64) (weightEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, w := range s.weights {
		if w.UserID == userID && w.Date.Key() == date {
			w.WeightKG = kg
			s.weights[id] = w
			return w, nil
		}
	}
	d, _ := time.Parse(dateLayout, date)
	w := weightEntry{ID: s.id(), UserID: userID, Date: DateOnly{d}, WeightKG: kg}
	s.weights[w.ID] = w
	return w, nil
}

func (s *memStore) updateWeight(_ context.Context, userID, id int, date *string, kg *float64) (weightEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.weights[id]
	if !ok || w.UserID != userID {
		return weightEntry{}, notFound("registro de peso não encontrado")
	}
	if date != nil {
		for oid, o := range s.weights {
			if oid != id && o.UserID == userID && o.Date.Key() == *date {
				return weightEntry{}, conflict("já existe um registro de peso nesta data")
			}
		}
		d, _ := time.Parse(dateLayout, *date)
		w.Date = DateOnly{d}
	}
	if kg != nil {
		w.WeightKG = *kg
	}
	s.weights[id] = w
	return w, nil
}

func (s *memStore) deleteWeight(_ context.Context, userID, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.weights[id]
	if !ok || w.UserID != userID {
		return notFound("registro de peso não encontrado")
	}
	delete(s.weights, id)
	return nil
}

/* ─── Test harness ───────────────────────────────────────────────────── */

// testEnv bundles a Handler wired to a memStore, a dev authenticator for the
// seeded user, and the full router.
type testEnv struct {
	store  *memStore
	h      *Handler
	router *gin.Engine
	user   user
}

func testConfig() appConfig {
	return appConfig{
		Port:          "0",
		SessionSecret: "test-secret",
		AuthStrategy:  authStrategyDev,
		OpenAIBaseURL: "http://127.0.0.1:1",
		OpenAIAPIKey:  "test-key",
		OpenAIModel:   "gpt-test",
		USDABaseURL:   "http://127.0.0.1:1",
		USDAAPIKey:    "test-key",
		Location:      time.UTC,

		GoogleClientID:     "client-id",
		GoogleClientSecret: "client-secret",
		GoogleRedirectURL:  "http://localhost/api/auth/google/callback",
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := newMemStore()
	u := st.addUser(user{Username: "ana", Email: "ana@example.com", Name: "Ana"})
	h := newHandler(testConfig(), st, devAuth{userID: u.ID}, nil)
	return &testEnv{store: st, h: h, router: h.newRouter(), user: u}
}

// do sends a request through the router. An empty body sends no payload.
func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals a recorder body into T, failing the test on error.
func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

// errorMessage returns the "error" field of a JSON error response.
func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error"]
}
