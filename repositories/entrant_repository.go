package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/archery-system/models"
)

var ErrEntrantNotFound = errors.New("entrant not found")

// EntrantRepository reads the ranked entrants written by the qualification
// subsystem. The elimination engine trusts the stored seed order and never
// mutates entrants.
type EntrantRepository interface {
	GetByID(ctx context.Context, id int) (*models.Entrant, error)
	ListByGroup(ctx context.Context, group models.GroupKey) ([]*models.Entrant, error)
	ListGroups(ctx context.Context) ([]models.GroupKey, error)
}

type postgresEntrantRepository struct {
	db *sql.DB
}

func NewPostgresEntrantRepository(db *sql.DB) EntrantRepository {
	return &postgresEntrantRepository{db: db}
}

const entrantColumns = `id, full_name, club, seed, qualification_score, tens, xs, category, distance, gender, created_at`

func scanEntrant(row interface{ Scan(...interface{}) error }) (*models.Entrant, error) {
	e := &models.Entrant{}
	err := row.Scan(
		&e.ID,
		&e.FullName,
		&e.Club,
		&e.Seed,
		&e.QualificationScore,
		&e.Tens,
		&e.Xs,
		&e.Category,
		&e.Distance,
		&e.Gender,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *postgresEntrantRepository) GetByID(ctx context.Context, id int) (*models.Entrant, error) {
	query := `SELECT ` + entrantColumns + ` FROM entrants WHERE id = $1`

	e, err := scanEntrant(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntrantNotFound
		}
		return nil, fmt.Errorf("failed to scan entrant by id %d: %w", id, err)
	}
	return e, nil
}

func (r *postgresEntrantRepository) ListByGroup(ctx context.Context, group models.GroupKey) ([]*models.Entrant, error) {
	query := `
		SELECT ` + entrantColumns + `
		FROM entrants
		WHERE category = $1 AND distance = $2 AND gender = $3
		ORDER BY seed ASC`

	rows, err := r.db.QueryContext(ctx, query, group.Category, group.Distance, group.Gender)
	if err != nil {
		return nil, fmt.Errorf("failed to query entrants for group %s: %w", group, err)
	}
	defer rows.Close()

	entrants := make([]*models.Entrant, 0)
	for rows.Next() {
		e, scanErr := scanEntrant(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan entrant row: %w", scanErr)
		}
		entrants = append(entrants, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during entrant rows iteration: %w", err)
	}
	return entrants, nil
}

func (r *postgresEntrantRepository) ListGroups(ctx context.Context) ([]models.GroupKey, error) {
	query := `
		SELECT DISTINCT category, distance, gender
		FROM entrants
		ORDER BY category ASC, distance DESC, gender ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query entrant groups: %w", err)
	}
	defer rows.Close()

	groups := make([]models.GroupKey, 0)
	for rows.Next() {
		var g models.GroupKey
		if scanErr := rows.Scan(&g.Category, &g.Distance, &g.Gender); scanErr != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", scanErr)
		}
		groups = append(groups, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during group rows iteration: %w", err)
	}
	return groups, nil
}
