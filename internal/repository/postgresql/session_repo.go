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
)

type pgSessionRepository struct {
	db *sql.DB
}

func NewPgSessionRepository(db *sql.DB) repository.SessionRepository {
	return &pgSessionRepository{db: db}
}

const sessionColumns = `id, vehicle_plate, spot_id, start_time, end_time, duration_minutes, total_amount, status, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*domain.ParkingSession, error) {
	s := &domain.ParkingSession{}
	err := row.Scan(
		&s.ID, &s.VehiclePlate, &s.SpotID, &s.StartTime, &s.EndTime,
		&s.DurationMinutes, &s.TotalAmount, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.StartTime = s.StartTime.In(time.UTC)
	if s.EndTime.Valid {
		s.EndTime.Time = s.EndTime.Time.In(time.UTC)
	}
	s.CreatedAt = s.CreatedAt.In(time.UTC)
	s.UpdatedAt = s.UpdatedAt.In(time.UTC)
	return s, nil
}

func (r *pgSessionRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions WHERE id = $1`
	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("SessionRepository.FindByID: %w", err)
	}
	return session, nil
}

func (r *pgSessionRepository) FindActiveByPlate(ctx context.Context, plate string) (*domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions
	           WHERE vehicle_plate = $1 AND status = $2
	           ORDER BY start_time DESC LIMIT 1`
	session, err := scanSession(r.db.QueryRowContext(ctx, query, plate, domain.SessionActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoActiveSession
		}
		return nil, fmt.Errorf("SessionRepository.FindActiveByPlate: %w", err)
	}
	return session, nil
}

func (r *pgSessionRepository) FindActiveBySpotID(ctx context.Context, spotID int) (*domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions
	           WHERE spot_id = $1 AND status = $2
	           ORDER BY start_time DESC LIMIT 1`
	session, err := scanSession(r.db.QueryRowContext(ctx, query, spotID, domain.SessionActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoActiveSession
		}
		return nil, fmt.Errorf("SessionRepository.FindActiveBySpotID: %w", err)
	}
	return session, nil
}

func (r *pgSessionRepository) Find(ctx context.Context, filter domain.SessionFilterDTO) ([]domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions`
	var conditions []string
	var args []any
	if filter.Plate != nil {
		args = append(args, *filter.Plate)
		conditions = append(conditions, fmt.Sprintf("vehicle_plate = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("SessionRepository.Find: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ParkingSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("SessionRepository.Find (scanning row): %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("SessionRepository.Find (rows error): %w", err)
	}
	return sessions, nil
}

func (r *pgSessionRepository) RevenueBetween(ctx context.Context, from, to time.Time) (*domain.RevenueReport, error) {
	query := `SELECT COUNT(*),
	                 COALESCE(SUM(total_amount), 0),
	                 COALESCE(AVG(duration_minutes), 0)
	           FROM parking_sessions
	           WHERE status = $1 AND end_time >= $2 AND end_time < $3`
	report := &domain.RevenueReport{From: from, To: to}
	err := r.db.QueryRowContext(ctx, query, domain.SessionCompleted, from, to).Scan(
		&report.CompletedSessions, &report.TotalRevenue, &report.AvgDurationMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("SessionRepository.RevenueBetween: %w", err)
	}
	return report, nil
}
