package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"city_parking/internal/domain"
	"city_parking/internal/repository"

	"github.com/lib/pq"
	"gopkg.in/guregu/null.v4"
)

// pgAllocationStore thực hiện giữ chỗ và trả chỗ trong một transaction.
// Điểm mấu chốt là câu UPDATE có điều kiện trên bảng spots: chỉ một request
// chuyển được chỗ đỗ từ available sang occupied, các request thua nhận
// ErrSpotConflict và không để lại thay đổi nào.
type pgAllocationStore struct {
	db *sql.DB
}

func NewPgAllocationStore(db *sql.DB) repository.AllocationStore {
	return &pgAllocationStore{db: db}
}

func (s *pgAllocationStore) ClaimSpot(ctx context.Context, req repository.ClaimRequest) (*domain.ParkingSession, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("AllocationStore.ClaimSpot (begin): %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Compare-and-set: "set occupied where status = available". Không giữ
	// lock nào trước bước này; việc chấm điểm chạy trên snapshot và được
	// xác nhận lại tại đây.
	result, err := tx.ExecContext(ctx,
		`UPDATE spots
		  SET status = $1, last_status_update_source = 'check_in', updated_at = CURRENT_TIMESTAMP
		  WHERE id = $2 AND status = $3 AND active = TRUE`,
		domain.SpotOccupied, req.SpotID, domain.SpotAvailable,
	)
	if err != nil {
		return nil, fmt.Errorf("AllocationStore.ClaimSpot (claim): %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("AllocationStore.ClaimSpot (rows affected): %w", err)
	}
	if rowsAffected == 0 {
		err = repository.ErrSpotConflict
		return nil, err
	}

	session := &domain.ParkingSession{
		VehiclePlate: req.Plate,
		SpotID:       req.SpotID,
		StartTime:    req.StartTime,
		Status:       domain.SessionActive,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO parking_sessions (vehicle_plate, spot_id, start_time, status, created_at, updated_at)
		  VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		  RETURNING id, created_at, updated_at`,
		session.VehiclePlate, session.SpotID, session.StartTime, session.Status,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			// Index uniq_active_session_per_plate: precondition "xe chưa ở
			// trong bãi" bị vi phạm bởi một request song song.
			err = fmt.Errorf("%w: xe '%s' đã có phiên đang hoạt động", repository.ErrDuplicateEntry, req.Plate)
			return nil, err
		}
		return nil, fmt.Errorf("AllocationStore.ClaimSpot (create session): %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO vehicles (plate, vehicle_class, status, assigned_spot_id, rate_type, base_rate, created_at, updated_at)
		  VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		  ON CONFLICT (plate) DO UPDATE
		  SET vehicle_class = EXCLUDED.vehicle_class,
		      status = EXCLUDED.status,
		      assigned_spot_id = EXCLUDED.assigned_spot_id,
		      rate_type = EXCLUDED.rate_type,
		      base_rate = EXCLUDED.base_rate,
		      updated_at = CURRENT_TIMESTAMP`,
		req.Plate, req.VehicleClass, domain.VehicleParked, req.SpotID, req.RateType, req.BaseRate,
	)
	if err != nil {
		return nil, fmt.Errorf("AllocationStore.ClaimSpot (update vehicle): %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("AllocationStore.ClaimSpot (commit): %w", err)
	}
	session.StartTime = session.StartTime.In(time.UTC)
	session.CreatedAt = session.CreatedAt.In(time.UTC)
	session.UpdatedAt = session.UpdatedAt.In(time.UTC)
	return session, nil
}

func (s *pgAllocationStore) ReleaseSpot(ctx context.Context, req repository.ReleaseRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("AllocationStore.ReleaseSpot (begin): %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE parking_sessions
		  SET end_time = $1, duration_minutes = $2, total_amount = $3, status = $4, updated_at = CURRENT_TIMESTAMP
		  WHERE id = $5 AND status = $6`,
		req.EndTime, null.IntFrom(req.DurationMinutes), null.FloatFrom(req.TotalAmount),
		domain.SessionCompleted, req.SessionID, domain.SessionActive,
	)
	if err != nil {
		return fmt.Errorf("AllocationStore.ReleaseSpot (close session): %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("AllocationStore.ReleaseSpot (rows affected): %w", err)
	}
	if rowsAffected == 0 {
		err = repository.ErrNoActiveSession
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE spots
		  SET status = $1, last_status_update_source = 'check_out', updated_at = CURRENT_TIMESTAMP
		  WHERE id = $2`,
		domain.SpotAvailable, req.SpotID,
	)
	if err != nil {
		return fmt.Errorf("AllocationStore.ReleaseSpot (free spot): %w", err)
	}

	if req.RemoveVehicle {
		_, err = tx.ExecContext(ctx, `DELETE FROM vehicles WHERE plate = $1`, req.Plate)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE vehicles
			  SET status = $1, assigned_spot_id = NULL, updated_at = CURRENT_TIMESTAMP
			  WHERE plate = $2`,
			domain.VehicleDeparted, req.Plate,
		)
	}
	if err != nil {
		return fmt.Errorf("AllocationStore.ReleaseSpot (update vehicle): %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("AllocationStore.ReleaseSpot (commit): %w", err)
	}
	return nil
}
