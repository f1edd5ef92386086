package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nutricare/server/internal/model"
)

// DietPlanRepo defines the interface for diet plan repository operations
type DietPlanRepo interface {
	Create(ctx context.Context, plan *model.DietPlan) error
	Latest(ctx context.Context, accountID uuid.UUID) (model.DietPlan, error)
}

type dietPlanRepo struct {
	db *sql.DB
}

// NewDietPlanRepo creates a new DietPlanRepo instance
func NewDietPlanRepo(db *sql.DB) DietPlanRepo {
	return &dietPlanRepo{db: db}
}

// Create inserts a diet plan
func (r *dietPlanRepo) Create(ctx context.Context, plan *model.DietPlan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	query := `
		INSERT INTO diet_plans (id, account_id, morning, afternoon, evening, night, snacks, diet_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		plan.ID,
		plan.AccountID,
		plan.Morning,
		plan.Afternoon,
		plan.Evening,
		plan.Night,
		plan.Snacks,
		plan.DietType,
	).Scan(&plan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert diet plan: %w", err)
	}
	return nil
}

// Latest returns the most recently submitted plan of the account
func (r *dietPlanRepo) Latest(ctx context.Context, accountID uuid.UUID) (model.DietPlan, error) {
	query := `
		SELECT id, morning, afternoon, evening, night, snacks, diet_type, created_at
		FROM diet_plans
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var (
		plan  model.DietPlan
		idStr string
	)
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&idStr,
		&plan.Morning,
		&plan.Afternoon,
		&plan.Evening,
		&plan.Night,
		&plan.Snacks,
		&plan.DietType,
		&plan.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DietPlan{}, ErrNotFound
		}
		return model.DietPlan{}, fmt.Errorf("failed to query diet plan: %w", err)
	}
	plan.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.DietPlan{}, fmt.Errorf("failed to parse diet plan ID: %w", err)
	}
	plan.AccountID = accountID
	return plan, nil
}
