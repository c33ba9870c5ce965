package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// planStore persists plans. At most one plan per (user, type) is active; the
// partial unique index plans_one_active_per_type backs activatePlan.
type planStore interface {
	listPlans(ctx context.Context, userID int, planType string) ([]plan, error)
	createPlan(ctx context.Context, p plan) (plan, error)
	activatePlan(ctx context.Context, userID, id int) (plan, error)
	deletePlan(ctx context.Context, userID, id int) error
}

const planColumns = "id, user_id, name, type, description, content, source, is_active, created_at"

func (s *pgStore) listPlans(ctx context.Context, userID int, planType string) ([]plan, error) {
	q := psql.Select(planColumns).From("plans").
		Where("user_id = ?", userID).
		OrderBy("created_at DESC", "id DESC")
	if planType != "" {
		q = q.Where("type = ?", planType)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build plan list: %w", err)
	}
	return queryMany[plan](ctx, s.db, sql, args...)
}

// createPlan stores p inactive.
func (s *pgStore) createPlan(ctx context.Context, p plan) (plan, error) {
	return queryOne[plan](ctx, s.db,
		`INSERT INTO plans (user_id, name, type, description, content, source, is_active)
		 VALUES (@userID, @name, @type, @description, @content::jsonb, @source, false)
		 RETURNING `+planColumns,
		pgx.NamedArgs{
			"userID": p.UserID, "name": p.Name, "type": p.Type, "description": p.Description,
			"content": string(p.Content), "source": p.Source,
		})
}

// activatePlan deactivates the user's other plans of the same type and
// activates id, in one transaction.
func (s *pgStore) activatePlan(ctx context.Context, userID, id int) (plan, error) {
	var activated plan
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var planType string
		err := tx.QueryRow(ctx,
			"SELECT type FROM plans WHERE id = @id AND user_id = @userID FOR UPDATE",
			pgx.NamedArgs{"id": id, "userID": userID}).Scan(&planType)
		if err != nil {
			return notFoundOr(err, "plano não encontrado")
		}

		_, err = tx.Exec(ctx,
			`UPDATE plans SET is_active = false
			 WHERE user_id = @userID AND type = @type AND is_active AND id <> @id`,
			pgx.NamedArgs{"userID": userID, "type": planType, "id": id})
		if err != nil {
			return fmt.Errorf("deactivate plans: %w", err)
		}

		activated, err = queryOne[plan](ctx, tx,
			"UPDATE plans SET is_active = true WHERE id = @id RETURNING "+planColumns,
			pgx.NamedArgs{"id": id})
		if isUniqueViolation(err) {
			return conflict("outro plano deste tipo foi ativado ao mesmo tempo, tente novamente")
		}
		return err
	})
	return activated, err
}

func (s *pgStore) deletePlan(ctx context.Context, userID, id int) error {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM plans WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("plano não encontrado")
	}
	return nil
}
