package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"city_parking/internal/domain"
	"city_parking/internal/repository"

	"github.com/lib/pq"
)

type pgSpotRepository struct {
	db *sql.DB
}

func NewPgSpotRepository(db *sql.DB) repository.SpotRepository {
	return &pgSpotRepository{db: db}
}

const spotColumns = `id, level, section, sequence, spot_class, status, active, features, last_status_update_source, created_at, updated_at`

func scanSpot(row interface{ Scan(...any) error }) (*domain.Spot, error) {
	spot := &domain.Spot{}
	var features pq.StringArray
	var source sql.NullString
	err := row.Scan(
		&spot.ID, &spot.Level, &spot.Section, &spot.Sequence, &spot.SpotClass,
		&spot.Status, &spot.Active, &features, &source, &spot.CreatedAt, &spot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	spot.Features = []string(features)
	if source.Valid {
		spot.LastStatusUpdateSource = source.String
	}
	spot.CreatedAt = spot.CreatedAt.In(time.UTC)
	spot.UpdatedAt = spot.UpdatedAt.In(time.UTC)
	return spot, nil
}

func (r *pgSpotRepository) Create(ctx context.Context, spot *domain.Spot) (*domain.Spot, error) {
	query := `INSERT INTO spots (level, section, sequence, spot_class, status, active, features, last_status_update_source, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	if spot.Status == "" {
		spot.Status = domain.SpotAvailable
	}
	err := r.db.QueryRowContext(ctx, query,
		spot.Level, spot.Section, spot.Sequence, spot.SpotClass, spot.Status, spot.Active,
		pq.Array(spot.Features),
		sql.NullString{String: spot.LastStatusUpdateSource, Valid: spot.LastStatusUpdateSource != ""},
	).Scan(&spot.ID, &spot.CreatedAt, &spot.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: chỗ đỗ %s đã tồn tại", repository.ErrDuplicateEntry, spot.Label())
		}
		return nil, fmt.Errorf("SpotRepository.Create: %w", err)
	}
	spot.CreatedAt = spot.CreatedAt.In(time.UTC)
	spot.UpdatedAt = spot.UpdatedAt.In(time.UTC)
	return spot, nil
}

func (r *pgSpotRepository) FindByID(ctx context.Context, id int) (*domain.Spot, error) {
	query := `SELECT ` + spotColumns + ` FROM spots WHERE id = $1`
	spot, err := scanSpot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("SpotRepository.FindByID: %w", err)
	}
	return spot, nil
}

func (r *pgSpotRepository) Find(ctx context.Context, filter domain.SpotFilterDTO) ([]domain.Spot, error) {
	query := `SELECT ` + spotColumns + ` FROM spots`
	var conditions []string
	var args []any
	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}
	if filter.Level != nil {
		addCondition("level = $%d", *filter.Level)
	}
	if filter.Section != nil {
		addCondition("section = $%d", *filter.Section)
	}
	if filter.SpotClass != nil {
		addCondition("spot_class = $%d", *filter.SpotClass)
	}
	if filter.Status != nil {
		addCondition("status = $%d", *filter.Status)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY level, section, sequence"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("SpotRepository.Find: %w", err)
	}
	defer rows.Close()
	return collectSpots(rows, "SpotRepository.Find")
}

func (r *pgSpotRepository) FindAvailableByClass(ctx context.Context, spotClass domain.SpotClass, level *int, limit int) ([]domain.Spot, error) {
	query := `SELECT ` + spotColumns + ` FROM spots
	           WHERE spot_class = $1 AND status = $2 AND active = TRUE`
	args := []any{spotClass, domain.SpotAvailable}
	if level != nil {
		args = append(args, *level)
		query += fmt.Sprintf(" AND level = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY level, section, sequence LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("SpotRepository.FindAvailableByClass: %w", err)
	}
	defer rows.Close()
	return collectSpots(rows, "SpotRepository.FindAvailableByClass")
}

func collectSpots(rows *sql.Rows, op string) ([]domain.Spot, error) {
	var spots []domain.Spot
	for rows.Next() {
		spot, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("%s (scanning row): %w", op, err)
		}
		spots = append(spots, *spot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s (rows error): %w", op, err)
	}
	return spots, nil
}

func (r *pgSpotRepository) UpdateStatus(ctx context.Context, id int, status domain.OccupancyState, source string) error {
	query := `UPDATE spots
	           SET status = $1, last_status_update_source = $2, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status,
		sql.NullString{String: source, Valid: source != ""}, id)
	if err != nil {
		return fmt.Errorf("SpotRepository.UpdateStatus: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("SpotRepository.UpdateStatus (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgSpotRepository) Update(ctx context.Context, spot *domain.Spot) (*domain.Spot, error) {
	query := `UPDATE spots
	           SET level = $1, section = $2, sequence = $3, spot_class = $4, status = $5,
	               active = $6, features = $7, last_status_update_source = $8, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $9
	           RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		spot.Level, spot.Section, spot.Sequence, spot.SpotClass, spot.Status,
		spot.Active, pq.Array(spot.Features),
		sql.NullString{String: spot.LastStatusUpdateSource, Valid: spot.LastStatusUpdateSource != ""},
		spot.ID,
	).Scan(&spot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: chỗ đỗ %s đã tồn tại", repository.ErrDuplicateEntry, spot.Label())
		}
		return nil, fmt.Errorf("SpotRepository.Update: %w", err)
	}
	spot.UpdatedAt = spot.UpdatedAt.In(time.UTC)
	return spot, nil
}

func (r *pgSpotRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM spots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("SpotRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("SpotRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgSpotRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM spots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("SpotRepository.CountAll: %w", err)
	}
	return count, nil
}

func (r *pgSpotRepository) OccupancySnapshot(ctx context.Context) ([]domain.Spot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+spotColumns+` FROM spots ORDER BY level, section, sequence`)
	if err != nil {
		return nil, fmt.Errorf("SpotRepository.OccupancySnapshot: %w", err)
	}
	defer rows.Close()
	return collectSpots(rows, "SpotRepository.OccupancySnapshot")
}
