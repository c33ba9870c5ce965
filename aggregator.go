package main

import (
	"context"
	"fmt"
	"math"
	"time"
)

// aggregateStore is what the aggregator reads: meal sums, the rollup table
// and the user's goals.
type aggregateStore interface {
	nutritionStore
	userByID(ctx context.Context, id int) (user, error)
}

// aggregator rolls meal totals up into nutritional days, weeks and months.
// Every window is built from the same 5AM day boundary.
type aggregator struct {
	store aggregateStore
	days  dayResolver
}

func newAggregator(st aggregateStore, days dayResolver) *aggregator {
	return &aggregator{store: st, days: days}
}

// dailyTotal sums the meals of one nutritional day and upserts the
// daily_nutrition row for it.
func (a *aggregator) dailyTotal(ctx context.Context, userID int, key string) (dayTotals, error) {
	goals, err := a.goals(ctx, userID)
	if err != nil {
		return dayTotals{}, err
	}
	return a.day(ctx, userID, key, goals)
}

// weeklyTotals returns the seven days (Sunday..Saturday) of the week
// containing anchor, oldest first.
func (a *aggregator) weeklyTotals(ctx context.Context, userID int, anchor string) ([]dayTotals, error) {
	start, err := a.days.weekStart(anchor)
	if err != nil {
		return nil, err
	}
	return a.dayList(ctx, userID, start, 7)
}

// monthDays returns every day of the calendar month containing anchor.
func (a *aggregator) monthDays(ctx context.Context, userID int, anchor string) ([]dayTotals, error) {
	d, err := a.days.parse(anchor)
	if err != nil {
		return nil, err
	}
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	n := first.AddDate(0, 1, -1).Day()
	return a.dayList(ctx, userID, first.Format(dateLayout), n)
}

// monthlyTotals sums meals per Sunday-aligned week of the month containing anchor.
func (a *aggregator) monthlyTotals(ctx context.Context, userID int, anchor string) ([]weekBucketTotals, error) {
	weeks, err := a.days.monthWeeks(anchor)
	if err != nil {
		return nil, err
	}
	out := make([]weekBucketTotals, 0, len(weeks))
	for i, w := range weeks {
		start, end, err := a.days.spanRange(w[0], w[1])
		if err != nil {
			return nil, err
		}
		sum, err := a.store.sumMeals(ctx, userID, start, end)
		if err != nil {
			return nil, fmt.Errorf("sum meals for week %s: %w", w[0], err)
		}
		out = append(out, weekBucketTotals{
			Label:     fmt.Sprintf("Semana %d", i+1),
			StartDate: w[0],
			EndDate:   w[1],
			Calories:  int(math.Round(sum.Calories)),
			Protein:   round1(sum.Protein),
			Carbs:     round1(sum.Carbs),
			Fat:       round1(sum.Fat),
			MealCount: sum.MealCount,
		})
	}
	return out, nil
}

// hourlyTotals splits one nutritional day into elapsed-hour buckets starting at
// 05:00. Days that cross a DST change have 23 or 25 buckets; Hour is the local
// wall-clock hour each bucket starts at.
func (a *aggregator) hourlyTotals(ctx context.Context, userID int, key string) ([]hourTotals, error) {
	start, end, err := a.days.dayRange(key)
	if err != nil {
		return nil, err
	}
	sums, err := a.store.sumMealsByHour(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("sum meals by hour: %w", err)
	}

	out := make([]hourTotals, int(end.Sub(start)/time.Hour))
	for i := range out {
		out[i].Hour = start.Add(time.Duration(i) * time.Hour).In(a.days.loc).Hour()
	}
	for _, s := range sums {
		if s.Offset < 0 || s.Offset >= len(out) {
			continue
		}
		b := &out[s.Offset]
		b.Calories += int(math.Round(s.Calories))
		b.Protein = round1(b.Protein + s.Protein)
		b.Carbs = round1(b.Carbs + s.Carbs)
		b.Fat = round1(b.Fat + s.Fat)
	}
	return out, nil
}

func (a *aggregator) dayList(ctx context.Context, userID int, first string, n int) ([]dayTotals, error) {
	goals, err := a.goals(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]dayTotals, 0, n)
	for i := 0; i < n; i++ {
		d, err := a.day(ctx, userID, shiftDay(first, i), goals)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (a *aggregator) day(ctx context.Context, userID int, key string, goals nutritionGoals) (dayTotals, error) {
	start, end, err := a.days.dayRange(key)
	if err != nil {
		return dayTotals{}, err
	}
	sum, err := a.store.sumMeals(ctx, userID, start, end)
	if err != nil {
		return dayTotals{}, fmt.Errorf("sum meals for %s: %w", key, err)
	}

	date, _ := a.days.parse(key)
	row := dailyNutrition{
		UserID:    userID,
		Date:      DateOnly{date},
		Calories:  int(math.Round(sum.Calories)),
		Protein:   round1(sum.Protein),
		Carbs:     round1(sum.Carbs),
		Fat:       round1(sum.Fat),
		MealCount: sum.MealCount,
	}
	if _, err := a.store.upsertDailyNutrition(ctx, row); err != nil {
		return dayTotals{}, fmt.Errorf("upsert daily nutrition for %s: %w", key, err)
	}

	return dayTotals{
		Date:      key,
		Weekday:   weekdayOf(key),
		Calories:  row.Calories,
		Protein:   row.Protein,
		Carbs:     row.Carbs,
		Fat:       row.Fat,
		MealCount: row.MealCount,
		HasData:   row.MealCount > 0,
		Goals:     goals,
	}, nil
}

func (a *aggregator) goals(ctx context.Context, userID int) (nutritionGoals, error) {
	u, err := a.store.userByID(ctx, userID)
	if err != nil {
		return nutritionGoals{}, err
	}
	return u.goals(), nil
}
