package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"city_parking/internal/domain"
	"city_parking/internal/repository"
)

type pgVehicleRepository struct {
	db *sql.DB
}

func NewPgVehicleRepository(db *sql.DB) repository.VehicleRepository {
	return &pgVehicleRepository{db: db}
}

const vehicleColumns = `plate, vehicle_class, status, assigned_spot_id, rate_type, base_rate, created_at, updated_at`

func scanVehicle(row interface{ Scan(...any) error }) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}
	err := row.Scan(
		&v.Plate, &v.VehicleClass, &v.Status, &v.AssignedSpotID,
		&v.RateType, &v.BaseRate, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.CreatedAt = v.CreatedAt.In(time.UTC)
	v.UpdatedAt = v.UpdatedAt.In(time.UTC)
	return v, nil
}

// Upsert tạo mới hoặc cập nhật hồ sơ xe theo biển số. Check-in dùng hàm này
// để xe quay lại bãi không bị lỗi trùng bản ghi.
func (r *pgVehicleRepository) Upsert(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	query := `INSERT INTO vehicles (plate, vehicle_class, status, assigned_spot_id, rate_type, base_rate, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           ON CONFLICT (plate) DO UPDATE
	           SET vehicle_class = EXCLUDED.vehicle_class,
	               status = EXCLUDED.status,
	               assigned_spot_id = EXCLUDED.assigned_spot_id,
	               rate_type = EXCLUDED.rate_type,
	               base_rate = EXCLUDED.base_rate,
	               updated_at = CURRENT_TIMESTAMP
	           RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		vehicle.Plate, vehicle.VehicleClass, vehicle.Status, vehicle.AssignedSpotID,
		vehicle.RateType, vehicle.BaseRate,
	).Scan(&vehicle.CreatedAt, &vehicle.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("VehicleRepository.Upsert: %w", err)
	}
	vehicle.CreatedAt = vehicle.CreatedAt.In(time.UTC)
	vehicle.UpdatedAt = vehicle.UpdatedAt.In(time.UTC)
	return vehicle, nil
}

func (r *pgVehicleRepository) FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE plate = $1`
	vehicle, err := scanVehicle(r.db.QueryRowContext(ctx, query, plate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VehicleRepository.FindByPlate: %w", err)
	}
	return vehicle, nil
}

func (r *pgVehicleRepository) Find(ctx context.Context, filter domain.VehicleFilterDTO) ([]domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles`
	var args []any
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += " WHERE status = $1"
	}
	query += " ORDER BY plate"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("VehicleRepository.Find: %w", err)
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("VehicleRepository.Find (scanning row): %w", err)
		}
		vehicles = append(vehicles, *vehicle)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("VehicleRepository.Find (rows error): %w", err)
	}
	return vehicles, nil
}

func (r *pgVehicleRepository) Delete(ctx context.Context, plate string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vehicles WHERE plate = $1`, plate)
	if err != nil {
		return fmt.Errorf("VehicleRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("VehicleRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
