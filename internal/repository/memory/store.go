// Package memory là driver lưu trữ trong bộ nhớ, dùng cho demo và test.
// Một Store cung cấp đủ các repository qua các view Spots()/Vehicles()/...;
// một mutex duy nhất bảo vệ toàn bộ dữ liệu nên ClaimSpot giữ đúng hợp đồng
// compare-and-set như driver postgres.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"city_parking/internal/domain"
	"city_parking/internal/repository"

	"gopkg.in/guregu/null.v4"
)

type Store struct {
	mu sync.RWMutex

	spots    map[int]*domain.Spot
	vehicles map[string]*domain.Vehicle
	sessions map[int]*domain.ParkingSession
	users    map[int]*domain.User

	nextSpotID    int
	nextSessionID int
	nextUserID    int
}

func NewStore() *Store {
	return &Store{
		spots:         make(map[int]*domain.Spot),
		vehicles:      make(map[string]*domain.Vehicle),
		sessions:      make(map[int]*domain.ParkingSession),
		users:         make(map[int]*domain.User),
		nextSpotID:    1,
		nextSessionID: 1,
		nextUserID:    1,
	}
}

func (st *Store) Spots() repository.SpotRepository       { return spotRepo{st} }
func (st *Store) Vehicles() repository.VehicleRepository { return vehicleRepo{st} }
func (st *Store) Sessions() repository.SessionRepository { return sessionRepo{st} }
func (st *Store) Users() repository.UserRepository       { return userRepo{st} }

func copySpot(s *domain.Spot) *domain.Spot {
	out := *s
	out.Features = append([]string(nil), s.Features...)
	return &out
}

func copySession(s *domain.ParkingSession) *domain.ParkingSession {
	out := *s
	return &out
}

func copyVehicle(v *domain.Vehicle) *domain.Vehicle {
	out := *v
	return &out
}

func sortSpots(spots []domain.Spot) {
	sort.Slice(spots, func(i, j int) bool {
		if spots[i].Level != spots[j].Level {
			return spots[i].Level < spots[j].Level
		}
		if spots[i].Section != spots[j].Section {
			return spots[i].Section < spots[j].Section
		}
		return spots[i].Sequence < spots[j].Sequence
	})
}

// --- SpotRepository ---

type spotRepo struct{ st *Store }

func (r spotRepo) Create(ctx context.Context, spot *domain.Spot) (*domain.Spot, error) {
	st := r.st
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, existing := range st.spots {
		if existing.Level == spot.Level && existing.Section == spot.Section && existing.Sequence == spot.Sequence {
			return nil, fmt.Errorf("%w: chỗ đỗ %s đã tồn tại", repository.ErrDuplicateEntry, spot.Label())
		}
	}
	now := time.Now().UTC()
	spot.ID = st.nextSpotID
	st.nextSpotID++
	if spot.Status == "" {
		spot.Status = domain.SpotAvailable
	}
	spot.CreatedAt = now
	spot.UpdatedAt = now
	st.spots[spot.ID] = copySpot(spot)
	return spot, nil
}

func (r spotRepo) FindByID(ctx context.Context, id int) (*domain.Spot, error) {
	st := r.st
	st.mu.RLock()
	defer st.mu.RUnlock()
	spot, ok := st.spots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copySpot(spot), nil
}

func (r spotRepo) Find(ctx context.Context, filter domain.SpotFilterDTO) ([]domain.Spot, error) {
	st := r.st
	st.mu.RLock()
	defer st.mu.RUnlock()
	var out []domain.Spot
	for _, spot := range st.spots {
		if filter.Level != nil && spot.Level != *filter.Level {
			continue
		}
		if filter.Section != nil && spot.Section != *filter.Section {
			continue
		}
		if filter.SpotClass != nil && string(spot.SpotClass) != *filter.SpotClass {
			continue
		}
		if filter.Status != nil && string(spot.Status) != *filter.Status {
			continue
		}
		out = append(out, *copySpot(spot))
	}
	sortSpots(out)
	return out, nil
}

func (r spotRepo) FindAvailableByClass(ctx context.Context, spotClass domain.SpotClass, level *int, limit int) ([]domain.Spot, error) {
	st := r.st
	st.mu.RLock()
	defer st.mu.RUnlock()
	var out []domain.Spot
	for _, spot := range st.spots {
		if spot.SpotClass != spotClass || spot.Status != domain.SpotAvailable || !spot.Active {
			continue
		}
		if level != nil && spot.Level != *level {
			continue
		}
		out = append(out, *copySpot(spot))
	}
	sortSpots(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r spotRepo) UpdateStatus(ctx context.Context, id int, status domain.OccupancyState, source string) error {
	st := r.st
	st.mu.Lock()
	defer st.mu.Unlock()
	spot, ok := st.spots[id]
	if !ok {
		return repository.ErrNotFound
	}
	spot.Status = status
	spot.LastStatusUpdateSource = source
	spot.UpdatedAt = time.Now().UTC()
	return nil
}

func (r spotRepo) Update(ctx context.Context, spot *domain.Spot) (*domain.Spot, error) {
	st := r.st
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.spots[spot.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	spot.UpdatedAt = time.Now().UTC()
	st.spots[spot.ID] = copySpot(spot)
	return spot, nil
}

func (r spotRepo) Delete(ctx context.Context, id int) error {
	st := r.st
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.spots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(st.spots, id)
	return nil
}

func (r spotRepo) CountAll(ctx context.Context) (int, error) {
	st := r.st
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.spots), nil
}

func (r spotRepo) OccupancySnapshot(ctx context.Context) ([]domain.Spot, error) {
	return r.Find(ctx, domain.SpotFilterDTO{})
}

// --- VehicleRepository ---

type vehicleRepo struct{ st *Store }

func (r vehicleRepo) Upsert(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	st := r.st
	st.mu.Lock()
	defer st.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := st.vehicles[vehicle.Plate]; ok {
		vehicle.CreatedAt = existing.CreatedAt
	} else {
		vehicle.CreatedAt = now
	}
	vehicle.UpdatedAt = now
	st.vehicles[vehicle.Plate] = copyVehicle(vehicle)
	return vehicle, nil
}

func (r vehicleRepo) FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	st := r.st
	st.mu.RLock()
	defer st.mu.RUnlock()
	vehicle, ok := st.vehicles[plate]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyVehicle(vehicle), nil
}

func (r vehicleRepo) Find(ctx context.Context, filter domain.VehicleFilterDTO) ([]domain.Vehicle, error) {
	st := r.st
	st.mu.RLock()
	defer st.mu.RUnlock()
	var out []domain.Vehicle
	for _, vehicle := range st.vehicles {
		if filter.Status != nil && string(vehicle.Status) != *filter.Status {
			continue
		}
		out = append(out, *copyVehicle(vehicle))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Plate < out[j].Plate })
	return out, nil
}

func (r vehicleRepo) Delete(ctx context.Context, plate string) error {
	st := r.st
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.vehicles[plate]; !ok {
		return repository.ErrNotFound
	}
	delete(st.vehicles, plate)
	return nil
}

// --- SessionRepository ---

type sessionRepo struct{ st *Store }

func (r sessionRepo) FindByID(ctx context.Context, id int) (*domain.ParkingSession, error) {
	st := r.st
	st.mu.RLock()
	defer st.mu.RUnlock()
	session, ok := st.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copySession(session), nil
}

func (r sessionRepo) FindActiveByPlate(ctx context.Context, plate string) (*domain.ParkingSession, error) {
	st := r.st
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.findActiveByPlateLocked(plate)
}

func (st *Store) findActiveByPlateLocked(plate string) (*domain.ParkingSession, error) {
	for _, session := range st.sessions {
		if session.VehiclePlate == plate && session.Status == domain.SessionActive {
			return copySession(session), nil
		}
	}
	return nil, repository.ErrNoActiveSession
}

func (r sessionRepo) FindActiveBySpotID(ctx context.Context, spotID int) (*domain.ParkingSession, error) {
	st := r.st
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, session := range st.sessions {
		if session.SpotID == spotID && session.Status == domain.SessionActive {
			return copySession(session), nil
		}
	}
	return nil, repository.ErrNoActiveSession
}

func (r sessionRepo) Find(ctx context.Context, filter domain.SessionFilterDTO) ([]domain.ParkingSession, error) {
	st := r.st
	st.mu.RLock()
	defer st.mu.RUnlock()
	var out []domain.ParkingSession
	for _, session := range st.sessions {
		if filter.Plate != nil && session.VehiclePlate != *filter.Plate {
			continue
		}
		if filter.Status != nil && string(session.Status) != *filter.Status {
			continue
		}
		out = append(out, *copySession(session))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (r sessionRepo) RevenueBetween(ctx context.Context, from, to time.Time) (*domain.RevenueReport, error) {
	st := r.st
	st.mu.RLock()
	defer st.mu.RUnlock()
	report := &domain.RevenueReport{From: from, To: to}
	var totalMinutes int64
	for _, session := range st.sessions {
		if session.Status != domain.SessionCompleted || !session.EndTime.Valid {
			continue
		}
		end := session.EndTime.Time
		if end.Before(from) || !end.Before(to) {
			continue
		}
		report.CompletedSessions++
		report.TotalRevenue += session.TotalAmount.Float64
		totalMinutes += session.DurationMinutes.Int64
	}
	if report.CompletedSessions > 0 {
		report.AvgDurationMinutes = float64(totalMinutes) / float64(report.CompletedSessions)
	}
	return report, nil
}

// --- AllocationStore ---

func (st *Store) ClaimSpot(ctx context.Context, req repository.ClaimRequest) (*domain.ParkingSession, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	spot, ok := st.spots[req.SpotID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Điều kiện CAS: chỗ đỗ phải còn available ngay tại thời điểm này.
	if spot.Status != domain.SpotAvailable || !spot.Active {
		return nil, repository.ErrSpotConflict
	}
	if _, err := st.findActiveByPlateLocked(req.Plate); err == nil {
		return nil, fmt.Errorf("%w: xe '%s' đã có phiên đang hoạt động", repository.ErrDuplicateEntry, req.Plate)
	}

	now := time.Now().UTC()
	spot.Status = domain.SpotOccupied
	spot.LastStatusUpdateSource = "check_in"
	spot.UpdatedAt = now

	session := &domain.ParkingSession{
		ID:           st.nextSessionID,
		VehiclePlate: req.Plate,
		SpotID:       req.SpotID,
		StartTime:    req.StartTime,
		Status:       domain.SessionActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	st.nextSessionID++
	st.sessions[session.ID] = copySession(session)

	vehicle := &domain.Vehicle{
		Plate:          req.Plate,
		VehicleClass:   req.VehicleClass,
		Status:         domain.VehicleParked,
		AssignedSpotID: null.IntFrom(int64(req.SpotID)),
		RateType:       req.RateType,
		BaseRate:       req.BaseRate,
		UpdatedAt:      now,
	}
	if existing, ok := st.vehicles[req.Plate]; ok {
		vehicle.CreatedAt = existing.CreatedAt
	} else {
		vehicle.CreatedAt = now
	}
	st.vehicles[req.Plate] = vehicle

	return session, nil
}

func (st *Store) ReleaseSpot(ctx context.Context, req repository.ReleaseRequest) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	session, ok := st.sessions[req.SessionID]
	if !ok || session.Status != domain.SessionActive {
		return repository.ErrNoActiveSession
	}

	now := time.Now().UTC()
	session.EndTime = null.TimeFrom(req.EndTime)
	session.DurationMinutes = null.IntFrom(req.DurationMinutes)
	session.TotalAmount = null.FloatFrom(req.TotalAmount)
	session.Status = domain.SessionCompleted
	session.UpdatedAt = now

	if spot, ok := st.spots[req.SpotID]; ok {
		spot.Status = domain.SpotAvailable
		spot.LastStatusUpdateSource = "check_out"
		spot.UpdatedAt = now
	}

	if req.RemoveVehicle {
		delete(st.vehicles, req.Plate)
	} else if vehicle, ok := st.vehicles[req.Plate]; ok {
		vehicle.Status = domain.VehicleDeparted
		vehicle.AssignedSpotID = null.Int{}
		vehicle.UpdatedAt = now
	}
	return nil
}

// --- UserRepository ---

type userRepo struct{ st *Store }

func (r userRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	st := r.st
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, existing := range st.users {
		if strings.EqualFold(existing.Username, user.Username) {
			return nil, fmt.Errorf("%w: tên người dùng '%s' đã tồn tại", repository.ErrDuplicateEntry, user.Username)
		}
	}
	now := time.Now().UTC()
	user.ID = st.nextUserID
	st.nextUserID++
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	st.users[user.ID] = &clone
	return user, nil
}

func (r userRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	st := r.st
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, user := range st.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) FindByID(ctx context.Context, id int) (*domain.User, error) {
	st := r.st
	st.mu.RLock()
	defer st.mu.RUnlock()
	user, ok := st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}
