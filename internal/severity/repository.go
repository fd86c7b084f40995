package severity

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConditionRepository reads the severe-condition catalog from the
// severe_conditions table.
type PostgresConditionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresConditionRepository creates a repository over the given pool.
func NewPostgresConditionRepository(pool *pgxpool.Pool) *PostgresConditionRepository {
	return &PostgresConditionRepository{pool: pool}
}

func (r *PostgresConditionRepository) GetSevereConditions(ctx context.Context) ([]SevereCondition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT condition_name, keywords, risk_category, required_validations, auto_escalate, updated_at
		FROM severe_conditions
		ORDER BY condition_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query severe conditions: %w", err)
	}
	defer rows.Close()

	var conditions []SevereCondition
	for rows.Next() {
		var (
			c           SevereCondition
			category    string
			validations []string
		)
		if err := rows.Scan(&c.ConditionName, &c.Keywords, &category, &validations, &c.AutoEscalate, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan severe condition: %w", err)
		}
		c.RiskCategory = Level(category)
		for _, v := range validations {
			c.RequiredValidations = append(c.RequiredValidations, ValidationSource(v))
		}
		conditions = append(conditions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read severe conditions: %w", err)
	}

	return conditions, nil
}
