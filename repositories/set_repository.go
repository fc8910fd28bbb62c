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
	ErrSetNotFound         = errors.New("set not found")
	ErrSetAlreadyConfirmed = errors.New("set is already confirmed and cannot be overwritten")
)

type SetRepository interface {
	// Upsert inserts the set or overwrites an unconfirmed one with the
	// same (match, number). A confirmed set is immutable: attempting to
	// overwrite it returns ErrSetAlreadyConfirmed.
	Upsert(ctx context.Context, exec SQLExecutor, set *models.Set) error
	GetByNumber(ctx context.Context, exec SQLExecutor, matchID, number int) (*models.Set, error)
	Confirm(ctx context.Context, exec SQLExecutor, id int, slot1Points, slot2Points int) error
	ListConfirmedByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]models.Set, error)
	ListByMatch(ctx context.Context, matchID int) ([]models.Set, error)
	ListByBracket(ctx context.Context, bracketID int) ([]models.Set, error)
}

type postgresSetRepository struct {
	db *sql.DB
}

func NewPostgresSetRepository(db *sql.DB) SetRepository {
	return &postgresSetRepository{db: db}
}

const setColumns = `id, match_id, number, slot1_arrows, slot2_arrows,
	slot1_distance, slot2_distance, slot1_points, slot2_points, confirmed, created_at`

func scanSet(row interface{ Scan(...interface{}) error }) (*models.Set, error) {
	s := &models.Set{}
	err := row.Scan(
		&s.ID,
		&s.MatchID,
		&s.Number,
		pq.Array(&s.Slot1Arrows),
		pq.Array(&s.Slot2Arrows),
		&s.Slot1Distance,
		&s.Slot2Distance,
		&s.Slot1Points,
		&s.Slot2Points,
		&s.Confirmed,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *postgresSetRepository) Upsert(ctx context.Context, exec SQLExecutor, set *models.Set) error {
	query := `
		INSERT INTO sets
			(match_id, number, slot1_arrows, slot2_arrows, slot1_distance, slot2_distance,
			 slot1_points, slot2_points, confirmed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
		ON CONFLICT (match_id, number) DO UPDATE
		SET slot1_arrows = EXCLUDED.slot1_arrows,
		    slot2_arrows = EXCLUDED.slot2_arrows,
		    slot1_distance = EXCLUDED.slot1_distance,
		    slot2_distance = EXCLUDED.slot2_distance,
		    slot1_points = EXCLUDED.slot1_points,
		    slot2_points = EXCLUDED.slot2_points
		WHERE sets.confirmed = FALSE
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		set.MatchID,
		set.Number,
		pq.Array(set.Slot1Arrows),
		pq.Array(set.Slot2Arrows),
		set.Slot1Distance,
		set.Slot2Distance,
		set.Slot1Points,
		set.Slot2Points,
	).Scan(&set.ID, &set.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The conflict row exists but is confirmed, so the conditional
			// update matched nothing.
			return ErrSetAlreadyConfirmed
		}
		return fmt.Errorf("failed to upsert set %d of match %d: %w", set.Number, set.MatchID, err)
	}
	return nil
}

func (r *postgresSetRepository) GetByNumber(ctx context.Context, exec SQLExecutor, matchID, number int) (*models.Set, error) {
	query := `SELECT ` + setColumns + ` FROM sets WHERE match_id = $1 AND number = $2`

	s, err := scanSet(exec.QueryRowContext(ctx, query, matchID, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSetNotFound
		}
		return nil, fmt.Errorf("failed to scan set %d of match %d: %w", number, matchID, err)
	}
	return s, nil
}

func (r *postgresSetRepository) Confirm(ctx context.Context, exec SQLExecutor, id int, slot1Points, slot2Points int) error {
	query := `UPDATE sets SET confirmed = TRUE, slot1_points = $1, slot2_points = $2 WHERE id = $3`

	result, err := exec.ExecContext(ctx, query, slot1Points, slot2Points, id)
	if err != nil {
		return fmt.Errorf("failed to confirm set %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrSetNotFound)
}

func (r *postgresSetRepository) ListConfirmedByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]models.Set, error) {
	query := `SELECT ` + setColumns + ` FROM sets WHERE match_id = $1 AND confirmed = TRUE ORDER BY number ASC`
	return r.list(ctx, exec, query, matchID)
}

func (r *postgresSetRepository) ListByMatch(ctx context.Context, matchID int) ([]models.Set, error) {
	query := `SELECT ` + setColumns + ` FROM sets WHERE match_id = $1 ORDER BY number ASC`
	return r.list(ctx, r.db, query, matchID)
}

func (r *postgresSetRepository) ListByBracket(ctx context.Context, bracketID int) ([]models.Set, error) {
	query := `
		SELECT ` + setColumns + `
		FROM sets
		WHERE match_id IN (SELECT id FROM matches WHERE bracket_id = $1)
		ORDER BY match_id ASC, number ASC`
	return r.list(ctx, r.db, query, bracketID)
}

func (r *postgresSetRepository) list(ctx context.Context, exec SQLExecutor, query string, id int) ([]models.Set, error) {
	rows, err := exec.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query sets: %w", err)
	}
	defer rows.Close()

	sets := make([]models.Set, 0)
	for rows.Next() {
		s, scanErr := scanSet(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan set row: %w", scanErr)
		}
		sets = append(sets, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during set rows iteration: %w", err)
	}
	return sets, nil
}
