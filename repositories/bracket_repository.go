package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/archery-system/models"
	"github.com/lib/pq"
)

var (
	ErrBracketNotFound = errors.New("bracket not found")
	ErrBracketConflict = errors.New("bracket already exists for this group")
)

type BracketRepository interface {
	Create(ctx context.Context, exec SQLExecutor, bracket *models.Bracket) error
	GetByID(ctx context.Context, id int) (*models.Bracket, error)
	GetByGroup(ctx context.Context, group models.GroupKey) (*models.Bracket, error)
	List(ctx context.Context) ([]*models.Bracket, error)
	DeleteByGroup(ctx context.Context, exec SQLExecutor, group models.GroupKey) error
	SetCurrentRound(ctx context.Context, exec SQLExecutor, id int, round int) error
	SetCompleted(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresBracketRepository struct {
	db *sql.DB
}

func NewPostgresBracketRepository(db *sql.DB) BracketRepository {
	return &postgresBracketRepository{db: db}
}

const bracketColumns = `id, category, distance, gender, size, current_round, is_completed, created_at`

func scanBracket(row interface{ Scan(...interface{}) error }) (*models.Bracket, error) {
	b := &models.Bracket{}
	err := row.Scan(
		&b.ID,
		&b.Category,
		&b.Distance,
		&b.Gender,
		&b.Size,
		&b.CurrentRound,
		&b.IsCompleted,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *postgresBracketRepository) Create(ctx context.Context, exec SQLExecutor, bracket *models.Bracket) error {
	query := `
		INSERT INTO brackets (category, distance, gender, size, current_round, is_completed)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		bracket.Category,
		bracket.Distance,
		bracket.Gender,
		bracket.Size,
		bracket.CurrentRound,
		bracket.IsCompleted,
	).Scan(&bracket.ID, &bracket.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "brackets_group_key" {
			return ErrBracketConflict
		}
		return fmt.Errorf("failed to create bracket for group %s: %w", bracket.Group(), err)
	}
	return nil
}

func (r *postgresBracketRepository) GetByID(ctx context.Context, id int) (*models.Bracket, error) {
	query := `SELECT ` + bracketColumns + ` FROM brackets WHERE id = $1`

	b, err := scanBracket(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketNotFound
		}
		return nil, fmt.Errorf("failed to scan bracket by id %d: %w", id, err)
	}
	return b, nil
}

func (r *postgresBracketRepository) GetByGroup(ctx context.Context, group models.GroupKey) (*models.Bracket, error) {
	query := `SELECT ` + bracketColumns + ` FROM brackets WHERE category = $1 AND distance = $2 AND gender = $3`

	b, err := scanBracket(r.db.QueryRowContext(ctx, query, group.Category, group.Distance, group.Gender))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketNotFound
		}
		return nil, fmt.Errorf("failed to scan bracket for group %s: %w", group, err)
	}
	return b, nil
}

func (r *postgresBracketRepository) List(ctx context.Context) ([]*models.Bracket, error) {
	query := `SELECT ` + bracketColumns + ` FROM brackets ORDER BY category ASC, distance DESC, gender ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query brackets: %w", err)
	}
	defer rows.Close()

	brackets := make([]*models.Bracket, 0)
	for rows.Next() {
		b, scanErr := scanBracket(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan bracket row: %w", scanErr)
		}
		brackets = append(brackets, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during bracket rows iteration: %w", err)
	}
	return brackets, nil
}

// DeleteByGroup removes a group's bracket together with its matches and
// sets (ON DELETE CASCADE). Regeneration is all-or-nothing, so this runs
// in the same transaction that creates the replacement.
func (r *postgresBracketRepository) DeleteByGroup(ctx context.Context, exec SQLExecutor, group models.GroupKey) error {
	query := `DELETE FROM brackets WHERE category = $1 AND distance = $2 AND gender = $3`
	if _, err := exec.ExecContext(ctx, query, group.Category, group.Distance, group.Gender); err != nil {
		return fmt.Errorf("failed to delete bracket for group %s: %w", group, err)
	}
	return nil
}

func (r *postgresBracketRepository) SetCurrentRound(ctx context.Context, exec SQLExecutor, id int, round int) error {
	query := `UPDATE brackets SET current_round = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, round, id)
	if err != nil {
		return fmt.Errorf("failed to update current round for bracket %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrBracketNotFound)
}

func (r *postgresBracketRepository) SetCompleted(ctx context.Context, exec SQLExecutor, id int) error {
	query := `UPDATE brackets SET is_completed = TRUE WHERE id = $1`
	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark bracket %d completed: %w", id, err)
	}
	return checkAffectedRows(result, ErrBracketNotFound)
}
