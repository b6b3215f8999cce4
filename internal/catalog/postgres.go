package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/pkg/models"
)

// DatabaseQuerier is the subset of *pgxpool.Pool the Postgres catalog uses.
type DatabaseQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const selectRecipes = `
	SELECT id, name, ingredients, calories, total_fat, sugar, sodium, protein,
	       saturated_fat, carbs, diet_type, prep_time, meal_type, url
	FROM recipes
	ORDER BY id`

const upsertRecipe = `
	INSERT INTO recipes (id, name, ingredients, calories, total_fat, sugar, sodium,
	                     protein, saturated_fat, carbs, diet_type, prep_time, meal_type, url)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (id) DO UPDATE SET
	    name = EXCLUDED.name,
	    ingredients = EXCLUDED.ingredients,
	    calories = EXCLUDED.calories,
	    total_fat = EXCLUDED.total_fat,
	    sugar = EXCLUDED.sugar,
	    sodium = EXCLUDED.sodium,
	    protein = EXCLUDED.protein,
	    saturated_fat = EXCLUDED.saturated_fat,
	    carbs = EXCLUDED.carbs,
	    diet_type = EXCLUDED.diet_type,
	    prep_time = EXCLUDED.prep_time,
	    meal_type = EXCLUDED.meal_type,
	    url = EXCLUDED.url,
	    updated_at = now()`

const insertFeedback = `
	INSERT INTO recipe_feedback (id, plan_id, recipe_id, satisfaction, features, comment)
	VALUES ($1, $2, $3, $4, $5, $6)`

// Postgres reads the recipe table from the recipes relation.
type Postgres struct {
	db     DatabaseQuerier
	logger *logrus.Logger
}

func NewPostgres(db DatabaseQuerier, logger *logrus.Logger) *Postgres {
	return &Postgres{db: db, logger: logger}
}

func (p *Postgres) Recipes(ctx context.Context) ([]models.Recipe, error) {
	rows, err := p.db.Query(ctx, selectRecipes)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	recipes := []models.Recipe{}
	for rows.Next() {
		var r models.Recipe
		n := &r.Nutrition
		if err := rows.Scan(
			&r.ID, &r.Name, &r.Ingredients,
			&n.Calories, &n.TotalFat, &n.Sugar, &n.Sodium, &n.Protein, &n.SaturatedFat, &n.Carbs,
			&r.DietType, &r.PrepTime, &r.MealType, &r.URL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}

	return recipes, nil
}

// Import upserts recipes in one transaction.
func (p *Postgres) Import(ctx context.Context, recipes []models.Recipe) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range recipes {
		n := r.Nutrition
		if _, err := tx.Exec(ctx, upsertRecipe,
			r.ID, r.Name, r.Ingredients,
			n.Calories, n.TotalFat, n.Sugar, n.Sodium, n.Protein, n.SaturatedFat, n.Carbs,
			r.DietType, r.PrepTime, r.MealType, r.URL,
		); err != nil {
			return fmt.Errorf("failed to upsert recipe %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	p.logger.WithField("recipes", len(recipes)).Info("Recipes imported")
	return nil
}

// RecordFeedback stores a satisfaction rating together with the feature
// vector the preference model saw, so ratings can become training rows.
func (p *Postgres) RecordFeedback(ctx context.Context, id uuid.UUID, fb *models.RecipeFeedback, features []float64) error {
	if _, err := p.db.Exec(ctx, insertFeedback,
		id, fb.PlanID, fb.RecipeID, fb.Satisfaction, features, fb.Comment,
	); err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}
