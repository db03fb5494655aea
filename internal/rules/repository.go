package rules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	pkgerrors "docucheck/pkg/errors"
)

type Repository interface {
	CreateRule(ctx context.Context, rule *Rule) error
	ListRules(ctx context.Context) ([]Rule, error)
	GetRule(ctx context.Context, ruleID string) (*Rule, error)
	UpdateRule(ctx context.Context, rule *Rule) error
	DeleteRule(ctx context.Context, ruleID string) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateRule(ctx context.Context, rule *Rule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	query := `
		INSERT INTO rules (id, rule_id, source, article, domain, title, text, kind, logic, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		rule.ID, rule.RuleID, rule.Source, rule.Article, rule.Domain,
		rule.Title, rule.Text, string(rule.Kind), rule.Logic, rule.Version,
		rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" {
				return pkgerrors.ErrConflict.WithCause(err).WithDetail("message", fmt.Sprintf("rule '%s' already exists", rule.RuleID))
			}
		}
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique constraint") {
			return pkgerrors.ErrConflict.WithCause(err).WithDetail("message", fmt.Sprintf("rule '%s' already exists", rule.RuleID))
		}
		return fmt.Errorf("failed to create rule: %w", err)
	}

	return nil
}

// ListRules returns the whole catalog in stable order: source, then article,
// then rule id. Selection happens in memory, the catalog is small.
func (r *PostgresRepository) ListRules(ctx context.Context) ([]Rule, error) {
	query := `
		SELECT id, rule_id, source, article, domain, title, text, kind, logic, version, created_at, updated_at
		FROM rules
		ORDER BY source, article, rule_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var catalog []Rule
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		catalog = append(catalog, *rule)
	}

	return catalog, nil
}

func (r *PostgresRepository) GetRule(ctx context.Context, ruleID string) (*Rule, error) {
	query := `
		SELECT id, rule_id, source, article, domain, title, text, kind, logic, version, created_at, updated_at
		FROM rules
		WHERE rule_id = $1
	`

	row := r.db.QueryRowContext(ctx, query, ruleID)

	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrNotFound.WithCause(err).WithDetail("rule_id", ruleID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return rule, nil
}

func (r *PostgresRepository) UpdateRule(ctx context.Context, rule *Rule) error {
	rule.UpdatedAt = time.Now()

	query := `
		UPDATE rules
		SET title = $1, text = $2, kind = $3, logic = $4, version = $5, updated_at = $6
		WHERE rule_id = $7
	`

	res, err := r.db.ExecContext(ctx, query,
		rule.Title, rule.Text, string(rule.Kind), rule.Logic, rule.Version,
		rule.UpdatedAt, rule.RuleID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return pkgerrors.ErrNotFound.WithDetail("rule_id", rule.RuleID)
	}

	return nil
}

func (r *PostgresRepository) DeleteRule(ctx context.Context, ruleID string) error {
	query := `DELETE FROM rules WHERE rule_id = $1`

	res, err := r.db.ExecContext(ctx, query, ruleID)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return pkgerrors.ErrNotFound.WithDetail("rule_id", ruleID)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner) (*Rule, error) {
	var rule Rule
	var kind string
	var title, domain, logic sql.NullString

	err := row.Scan(
		&rule.ID, &rule.RuleID, &rule.Source, &rule.Article, &domain,
		&title, &rule.Text, &kind, &logic, &rule.Version,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Kind = Kind(kind)
	rule.Title = title.String
	rule.Domain = domain.String
	rule.Logic = logic.String

	return &rule, nil
}
