package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/archery-system/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	// GetByIDForUpdate locks the match row for the duration of the
	// surrounding transaction. Concurrent confirmations for the same match
	// serialize here.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	GetByPosition(ctx context.Context, exec SQLExecutor, bracketID, round, position int) (*models.Match, error)
	ListByBracket(ctx context.Context, bracketID int) ([]*models.Match, error)
	CountUnfinishedInRound(ctx context.Context, exec SQLExecutor, bracketID, round int) (int, error)
	UpdateScoreStatusWinner(ctx context.Context, exec SQLExecutor, id int, slot1Points, slot2Points int, status models.MatchStatus, winnerEntrantID *int) error
	// FillSlot places an entrant into a slot only when the slot is empty or
	// already holds the same entrant. Returns false when the slot is taken
	// by someone else; the caller decides whether that race is benign.
	FillSlot(ctx context.Context, exec SQLExecutor, id, slot, entrantID int) (bool, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, bracket_id, round, position, slot1_entrant_id, slot2_entrant_id,
	slot1_set_points, slot2_set_points, status, winner_entrant_id, is_bye, created_at`

// executor falls back to the repository's own handle for callers reading
// outside a transaction.
func (r *postgresMatchRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec == nil {
		return r.db
	}
	return exec
}

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID,
		&m.BracketID,
		&m.Round,
		&m.Position,
		&m.Slot1EntrantID,
		&m.Slot2EntrantID,
		&m.Slot1SetPoints,
		&m.Slot2SetPoints,
		&m.Status,
		&m.WinnerEntrantID,
		&m.IsBye,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches
			(bracket_id, round, position, slot1_entrant_id, slot2_entrant_id,
			 slot1_set_points, slot2_set_points, status, winner_entrant_id, is_bye)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		match.BracketID,
		match.Round,
		match.Position,
		match.Slot1EntrantID,
		match.Slot2EntrantID,
		match.Slot1SetPoints,
		match.Slot2SetPoints,
		match.Status,
		match.WinnerEntrantID,
		match.IsBye,
	).Scan(&match.ID, &match.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create match R%dP%d for bracket %d: %w", match.Round, match.Position, match.BracketID, err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.getOne(ctx, exec, query, id)
}

func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, exec, query, id)
}

func (r *postgresMatchRepository) GetByPosition(ctx context.Context, exec SQLExecutor, bracketID, round, position int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE bracket_id = $1 AND round = $2 AND position = $3`
	return r.getOne(ctx, exec, query, bracketID, round, position)
}

func (r *postgresMatchRepository) getOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Match, error) {
	m, err := scanMatch(r.executor(exec).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByBracket(ctx context.Context, bracketID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE bracket_id = $1 ORDER BY round ASC, position ASC`

	rows, err := r.db.QueryContext(ctx, query, bracketID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for bracket %d: %w", bracketID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) CountUnfinishedInRound(ctx context.Context, exec SQLExecutor, bracketID, round int) (int, error) {
	query := `SELECT COUNT(*) FROM matches WHERE bracket_id = $1 AND round = $2 AND status <> $3`

	var count int
	err := exec.QueryRowContext(ctx, query, bracketID, round, models.MatchStatusCompleted).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unfinished matches in round %d of bracket %d: %w", round, bracketID, err)
	}
	return count, nil
}

func (r *postgresMatchRepository) UpdateScoreStatusWinner(ctx context.Context, exec SQLExecutor, id int, slot1Points, slot2Points int, status models.MatchStatus, winnerEntrantID *int) error {
	query := `
		UPDATE matches
		SET slot1_set_points = $1, slot2_set_points = $2, status = $3, winner_entrant_id = $4
		WHERE id = $5`

	result, err := exec.ExecContext(ctx, query, slot1Points, slot2Points, status, winnerEntrantID, id)
	if err != nil {
		return fmt.Errorf("failed to update score for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) FillSlot(ctx context.Context, exec SQLExecutor, id, slot, entrantID int) (bool, error) {
	var query string
	switch slot {
	case 1:
		query = `UPDATE matches SET slot1_entrant_id = $1 WHERE id = $2 AND (slot1_entrant_id IS NULL OR slot1_entrant_id = $1)`
	case 2:
		query = `UPDATE matches SET slot2_entrant_id = $1 WHERE id = $2 AND (slot2_entrant_id IS NULL OR slot2_entrant_id = $1)`
	default:
		return false, fmt.Errorf("invalid slot %d for match %d", slot, id)
	}

	result, err := exec.ExecContext(ctx, query, entrantID, id)
	if err != nil {
		return false, fmt.Errorf("failed to fill slot %d of match %d: %w", slot, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}
