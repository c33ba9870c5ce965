package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// userStore persists accounts and their goals.
type userStore interface {
	createUser(ctx context.Context, u user) (user, error)
	userByLogin(ctx context.Context, login string) (user, error)
	userByID(ctx context.Context, id int) (user, error)
	upsertGoogleUser(ctx context.Context, googleID, email, name string) (user, error)
	updateUserProfile(ctx context.Context, id int, p patchProfileRequest) (user, error)
}

// sessionStore persists server-side sessions for the session auth strategy.
type sessionStore interface {
	createSession(ctx context.Context, userID int, expiresAt time.Time) (string, error)
	sessionUser(ctx context.Context, token string, now time.Time) (int, error)
	deleteSession(ctx context.Context, token string) error
	pruneSessions(ctx context.Context, now time.Time) (int64, error)
}

const userColumns = `id, username, email, name, password, google_id, sex, age, weight_kg, height_cm,
	activity_level, goal, daily_calories, daily_protein, daily_carbs, daily_fat,
	notifications_enabled, created_at`

func (s *pgStore) createUser(ctx context.Context, u user) (user, error) {
	created, err := queryOne[user](ctx, s.db,
		`INSERT INTO users (username, email, name, password, goal,
			daily_calories, daily_protein, daily_carbs, daily_fat)
		 VALUES (@username, @email, @name, @password, @goal,
			@calories, @protein, @carbs, @fat)
		 RETURNING `+userColumns,
		pgx.NamedArgs{
			"username": u.Username, "email": u.Email, "name": u.Name,
			"password": u.Password, "goal": u.Goal,
			"calories": u.DailyCalories, "protein": u.DailyProtein,
			"carbs": u.DailyCarbs, "fat": u.DailyFat,
		})
	if isUniqueViolation(err) {
		return user{}, conflict("usuário ou email já cadastrado")
	}
	return created, err
}

// userByLogin looks a user up by username or email.
func (s *pgStore) userByLogin(ctx context.Context, login string) (user, error) {
	u, err := queryOne[user](ctx, s.db,
		"SELECT "+userColumns+" FROM users WHERE username = @login OR lower(email) = lower(@login)",
		pgx.NamedArgs{"login": login})
	return u, notFoundOr(err, "usuário não encontrado")
}

func (s *pgStore) userByID(ctx context.Context, id int) (user, error) {
	u, err := queryOne[user](ctx, s.db,
		"SELECT "+userColumns+" FROM users WHERE id = @id",
		pgx.NamedArgs{"id": id})
	return u, notFoundOr(err, "usuário não encontrado")
}

// upsertGoogleUser links a Google account to the user with the same email,
// creating the user when none exists.
func (s *pgStore) upsertGoogleUser(ctx context.Context, googleID, email, name string) (user, error) {
	return queryOne[user](ctx, s.db,
		`INSERT INTO users (username, email, name, google_id, goal,
			daily_calories, daily_protein, daily_carbs, daily_fat)
		 VALUES (@email, @email, @name, @googleID, 'maintain',
			@calories, @protein, @carbs, @fat)
		 ON CONFLICT (email) DO UPDATE SET
			google_id = EXCLUDED.google_id,
			name = COALESCE(NULLIF(users.name, ''), EXCLUDED.name)
		 RETURNING `+userColumns,
		pgx.NamedArgs{
			"email": email, "name": name, "googleID": googleID,
			"calories": defaultGoals.Calories, "protein": defaultGoals.Protein,
			"carbs": defaultGoals.Carbs, "fat": defaultGoals.Fat,
		})
}

// updateUserProfile writes only the non-nil fields of p.
func (s *pgStore) updateUserProfile(ctx context.Context, id int, p patchProfileRequest) (user, error) {
	q := psql.Update("users").Where("id = ?", id).Suffix("RETURNING " + userColumns)
	set := func(col string, v any) { q = q.Set(col, v) }

	if p.Name != nil {
		set("name", *p.Name)
	}
	if p.Sex != nil {
		set("sex", *p.Sex)
	}
	if p.Age != nil {
		set("age", *p.Age)
	}
	if p.WeightKG != nil {
		set("weight_kg", *p.WeightKG)
	}
	if p.HeightCM != nil {
		set("height_cm", *p.HeightCM)
	}
	if p.ActivityLevel != nil {
		set("activity_level", *p.ActivityLevel)
	}
	if p.Goal != nil {
		set("goal", *p.Goal)
	}
	if p.DailyCalories != nil {
		set("daily_calories", *p.DailyCalories)
	}
	if p.DailyProtein != nil {
		set("daily_protein", *p.DailyProtein)
	}
	if p.DailyCarbs != nil {
		set("daily_carbs", *p.DailyCarbs)
	}
	if p.DailyFat != nil {
		set("daily_fat", *p.DailyFat)
	}
	if p.NotificationsEnabled != nil {
		set("notifications_enabled", *p.NotificationsEnabled)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return user{}, fmt.Errorf("build profile update: %w", err)
	}
	u, err := queryOne[user](ctx, s.db, sql, args...)
	return u, notFoundOr(err, "usuário não encontrado")
}

/* ─── Sessions ───────────────────────────────────────────────────────── */

func (s *pgStore) createSession(ctx context.Context, userID int, expiresAt time.Time) (string, error) {
	token := uuid.NewString()
	_, err := s.db.Exec(ctx,
		"INSERT INTO sessions (id, user_id, expires_at) VALUES (@id, @userID, @expiresAt)",
		pgx.NamedArgs{"id": token, "userID": userID, "expiresAt": expiresAt})
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

func (s *pgStore) sessionUser(ctx context.Context, token string, now time.Time) (int, error) {
	var userID int
	err := s.db.QueryRow(ctx,
		"SELECT user_id FROM sessions WHERE id = @id AND expires_at > @now",
		pgx.NamedArgs{"id": token, "now": now}).Scan(&userID)
	if err != nil {
		return 0, notFoundOr(err, "sessão não encontrada")
	}
	return userID, nil
}

func (s *pgStore) deleteSession(ctx context.Context, token string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM sessions WHERE id = @id", pgx.NamedArgs{"id": token})
	return err
}

func (s *pgStore) pruneSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, "DELETE FROM sessions WHERE expires_at <= @now", pgx.NamedArgs{"now": now})
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
