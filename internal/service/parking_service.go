package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"city_parking/internal/domain"
	"city_parking/internal/pricing"
	"city_parking/internal/repository"

	"github.com/google/uuid"
)

var ErrInvalidPlate = errors.New("biển số không hợp lệ")
var ErrAlreadyParked = errors.New("xe đã ở trong bãi")
var ErrNoAvailableSpot = errors.New("không còn chỗ đỗ phù hợp")
var ErrNotParked = errors.New("xe không ở trong bãi")
var ErrInvalidCheckoutTime = errors.New("thời gian ra không hợp lệ")
var ErrSpotInUse = errors.New("chỗ đỗ đang có phiên hoạt động")

// OccupancyNotifier nhận sự kiện đổi trạng thái chỗ đỗ (ví dụ để đẩy qua
// websocket). Cho phép nil.
type OccupancyNotifier interface {
	NotifyOccupancy(event domain.OccupancyEvent)
}

type ParkingService struct {
	spotRepo    repository.SpotRepository
	vehicleRepo repository.VehicleRepository
	sessionRepo repository.SessionRepository
	store       repository.AllocationStore
	notifier    OccupancyNotifier

	feeConfig       pricing.Config
	defaultBaseRate float64
	candidateLimit  int
}

func NewParkingService(
	spotRepo repository.SpotRepository,
	vehicleRepo repository.VehicleRepository,
	sessionRepo repository.SessionRepository,
	store repository.AllocationStore,
	notifier OccupancyNotifier,
	feeConfig pricing.Config,
	defaultBaseRate float64,
	candidateLimit int,
) *ParkingService {
	if candidateLimit <= 0 {
		candidateLimit = 10
	}
	return &ParkingService{
		spotRepo:        spotRepo,
		vehicleRepo:     vehicleRepo,
		sessionRepo:     sessionRepo,
		store:           store,
		notifier:        notifier,
		feeConfig:       feeConfig,
		defaultBaseRate: defaultBaseRate,
		candidateLimit:  candidateLimit,
	}
}

// --- Check-in (phân bổ chỗ đỗ) ---

// CheckIn chọn chỗ đỗ tốt nhất cho xe và giữ chỗ đó một cách nguyên tử.
// Khi nhiều request cùng nhắm một chỗ, request thắng CAS được chỗ; các
// request thua tự lùi xuống ứng viên kế tiếp nên vòng lặp bị chặn bởi độ
// dài danh sách ứng viên. Không có thứ tự công bằng giữa các xe: ai giữ
// được chỗ trước thì thắng, không phải ai gửi request trước.
func (s *ParkingService) CheckIn(ctx context.Context, dto domain.CheckInDTO) (*domain.AllocationResult, error) {
	plate := domain.NormalizePlate(dto.Plate)
	if !domain.ValidPlate(plate) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidPlate, dto.Plate)
	}
	vehicleClass := domain.VehicleClass(dto.VehicleClass)
	rateType, baseRate, err := s.resolveRate(ctx, plate, dto.RateType, dto.BaseRate)
	if err != nil {
		return nil, err
	}

	// Kiểm tra rẻ trước khi truy vấn ứng viên.
	if _, err := s.sessionRepo.FindActiveByPlate(ctx, plate); err == nil {
		return nil, fmt.Errorf("%w: xe '%s'", ErrAlreadyParked, plate)
	} else if !errors.Is(err, repository.ErrNoActiveSession) {
		return nil, fmt.Errorf("lỗi kiểm tra phiên hoạt động: %w", err)
	}

	candidates, err := s.findCandidates(ctx, vehicleClass, dto.PreferredLevel)
	if err != nil {
		return nil, err
	}

	startTime := time.Now().UTC()
	for len(candidates) > 0 {
		idx, score := pickBestSpot(candidates, vehicleClass, dto.PreferredLevel)
		spot := candidates[idx]

		session, err := s.store.ClaimSpot(ctx, repository.ClaimRequest{
			SpotID:       spot.ID,
			Plate:        plate,
			VehicleClass: vehicleClass,
			RateType:     rateType,
			BaseRate:     baseRate,
			StartTime:    startTime,
		})
		if err != nil {
			if errors.Is(err, repository.ErrSpotConflict) {
				// Thua CAS: loại ứng viên này và thử chỗ tốt tiếp theo,
				// không chạy lại toàn bộ truy vấn.
				candidates = append(candidates[:idx], candidates[idx+1:]...)
				continue
			}
			if errors.Is(err, repository.ErrDuplicateEntry) {
				return nil, fmt.Errorf("%w: xe '%s'", ErrAlreadyParked, plate)
			}
			return nil, fmt.Errorf("lỗi giữ chỗ đỗ: %w", err)
		}

		spot.Status = domain.SpotOccupied
		log.Printf("ParkingService: Đã gán chỗ đỗ %s (điểm %d) cho xe '%s', phiên %d", spot.Label(), score, plate, session.ID)
		s.notify(domain.OccupancyEvent{
			Type: domain.EventCheckIn, SpotID: spot.ID, SpotLabel: spot.Label(),
			VehiclePlate: plate, At: startTime,
		})
		return &domain.AllocationResult{Spot: &spot, Session: session, Score: score}, nil
	}

	return nil, fmt.Errorf("%w cho xe '%s' (loại %s)", ErrNoAvailableSpot, plate, vehicleClass)
}

// SimulateCheckIn trả về chỗ đỗ sẽ được gán cho xe mà không thay đổi gì.
func (s *ParkingService) SimulateCheckIn(ctx context.Context, dto domain.CheckInDTO) (*domain.AllocationResult, error) {
	plate := domain.NormalizePlate(dto.Plate)
	if !domain.ValidPlate(plate) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidPlate, dto.Plate)
	}
	vehicleClass := domain.VehicleClass(dto.VehicleClass)

	if _, err := s.sessionRepo.FindActiveByPlate(ctx, plate); err == nil {
		return nil, fmt.Errorf("%w: xe '%s'", ErrAlreadyParked, plate)
	} else if !errors.Is(err, repository.ErrNoActiveSession) {
		return nil, fmt.Errorf("lỗi kiểm tra phiên hoạt động: %w", err)
	}

	candidates, err := s.findCandidates(ctx, vehicleClass, dto.PreferredLevel)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w cho xe '%s' (loại %s)", ErrNoAvailableSpot, plate, vehicleClass)
	}
	idx, score := pickBestSpot(candidates, vehicleClass, dto.PreferredLevel)
	spot := candidates[idx]
	return &domain.AllocationResult{Spot: &spot, Score: score}, nil
}

// findCandidates duyệt bảng tương thích theo thứ tự ưu tiên và trả về danh
// sách ứng viên của loại chỗ đầu tiên còn chỗ trống, tối đa candidateLimit
// phần tử. Nếu khách có tầng ưu tiên, thử lọc theo tầng trước rồi mới nới
// ra toàn bãi — engine chỉ cần một tập ứng viên đủ tốt, không cần quét
// toàn bộ.
func (s *ParkingService) findCandidates(ctx context.Context, vehicleClass domain.VehicleClass, preferredLevel *int) ([]domain.Spot, error) {
	for _, spotClass := range domain.CompatibleSpotClasses(vehicleClass) {
		if preferredLevel != nil {
			spots, err := s.spotRepo.FindAvailableByClass(ctx, spotClass, preferredLevel, s.candidateLimit)
			if err != nil {
				return nil, fmt.Errorf("lỗi truy vấn chỗ đỗ trống: %w", err)
			}
			if len(spots) > 0 {
				return spots, nil
			}
		}
		spots, err := s.spotRepo.FindAvailableByClass(ctx, spotClass, nil, s.candidateLimit)
		if err != nil {
			return nil, fmt.Errorf("lỗi truy vấn chỗ đỗ trống: %w", err)
		}
		if len(spots) > 0 {
			return spots, nil
		}
	}
	return nil, nil
}

func (s *ParkingService) resolveRate(ctx context.Context, plate, dtoRateType string, dtoBaseRate float64) (domain.RateType, float64, error) {
	rateType := domain.RateHourly
	baseRate := s.defaultBaseRate

	// Xe đã đăng ký thì dùng biểu giá trong hồ sơ, DTO có thể ghi đè.
	existing, err := s.vehicleRepo.FindByPlate(ctx, plate)
	if err == nil {
		rateType = existing.RateType
		if existing.BaseRate > 0 {
			baseRate = existing.BaseRate
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", 0, fmt.Errorf("lỗi tra cứu hồ sơ xe: %w", err)
	}

	if dtoRateType != "" {
		rateType = domain.RateType(dtoRateType)
	}
	if dtoBaseRate > 0 {
		baseRate = dtoBaseRate
	}
	return rateType, baseRate, nil
}

// --- Check-out (trả chỗ và quyết toán) ---

func (s *ParkingService) CheckOut(ctx context.Context, dto domain.CheckOutDTO) (*domain.Settlement, error) {
	plate := domain.NormalizePlate(dto.Plate)
	if !domain.ValidPlate(plate) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidPlate, dto.Plate)
	}

	vehicle, err := s.vehicleRepo.FindByPlate(ctx, plate)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: không có hồ sơ xe '%s'", ErrNotParked, plate)
		}
		return nil, fmt.Errorf("lỗi tra cứu hồ sơ xe: %w", err)
	}
	if vehicle.Status != domain.VehicleParked {
		return nil, fmt.Errorf("%w: xe '%s' không ở trạng thái parked", ErrNotParked, plate)
	}

	session, err := s.sessionRepo.FindActiveByPlate(ctx, plate)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveSession) {
			return nil, fmt.Errorf("%w: xe '%s'", ErrNotParked, plate)
		}
		return nil, fmt.Errorf("lỗi tìm phiên đỗ xe đang hoạt động: %w", err)
	}

	checkoutTime := time.Now().UTC()
	if dto.CheckoutTime != "" {
		parsed, parseErr := time.Parse(time.RFC3339Nano, dto.CheckoutTime)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: không parse được '%s'", ErrInvalidCheckoutTime, dto.CheckoutTime)
		}
		checkoutTime = parsed.UTC()
	}
	if checkoutTime.Before(session.StartTime) {
		return nil, fmt.Errorf("%w: thời gian ra (%s) sớm hơn thời gian vào (%s)",
			ErrInvalidCheckoutTime, checkoutTime.Format(time.RFC3339), session.StartTime.Format(time.RFC3339))
	}

	spot, err := s.spotRepo.FindByID(ctx, session.SpotID)
	if err != nil {
		return nil, fmt.Errorf("lỗi tra cứu chỗ đỗ của phiên %d: %w", session.ID, err)
	}

	durationMinutes := int64(checkoutTime.Sub(session.StartTime).Minutes())
	applyGrace := true
	if dto.ApplyGracePeriod != nil {
		applyGrace = *dto.ApplyGracePeriod
	}

	settlement, err := pricing.ComputeFee(durationMinutes, vehicle.RateType, vehicle.BaseRate,
		spot.Features, s.feeConfig, pricing.Options{ApplyGracePeriod: applyGrace})
	if err != nil {
		return nil, fmt.Errorf("lỗi tính phí cho phiên %d: %w", session.ID, err)
	}

	err = s.store.ReleaseSpot(ctx, repository.ReleaseRequest{
		SessionID:       session.ID,
		SpotID:          session.SpotID,
		Plate:           plate,
		EndTime:         checkoutTime,
		DurationMinutes: durationMinutes,
		TotalAmount:     settlement.TotalAmount,
		RemoveVehicle:   dto.RemoveRecord,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveSession) {
			// Một request check-out song song đã đóng phiên này trước.
			return nil, fmt.Errorf("%w: xe '%s'", ErrNotParked, plate)
		}
		return nil, fmt.Errorf("lỗi trả chỗ đỗ: %w", err)
	}

	settlement.ReceiptNumber = uuid.NewString()
	settlement.SessionID = session.ID
	settlement.VehiclePlate = plate
	settlement.SpotID = spot.ID
	settlement.SpotLabel = spot.Label()
	settlement.StartTime = session.StartTime
	settlement.EndTime = checkoutTime

	log.Printf("ParkingService: Đã kết thúc phiên %d cho xe '%s'. Thời gian đỗ: %d phút. Phí: %.2f",
		session.ID, plate, durationMinutes, settlement.TotalAmount)
	s.notify(domain.OccupancyEvent{
		Type: domain.EventCheckOut, SpotID: spot.ID, SpotLabel: spot.Label(),
		VehiclePlate: plate, At: checkoutTime,
	})
	return settlement, nil
}

// EstimateFee tính thử phí cho endpoint ước tính, không đụng đến dữ liệu.
func (s *ParkingService) EstimateFee(dto domain.EstimateFeeDTO) (*domain.Settlement, error) {
	applyGrace := true
	if dto.ApplyGracePeriod != nil {
		applyGrace = *dto.ApplyGracePeriod
	}
	return pricing.ComputeFee(dto.DurationMinutes, domain.RateType(dto.RateType), dto.BaseRate,
		dto.Features, s.feeConfig, pricing.Options{ApplyGracePeriod: applyGrace})
}

func (s *ParkingService) notify(event domain.OccupancyEvent) {
	if s.notifier != nil {
		s.notifier.NotifyOccupancy(event)
	}
}

// --- Quản lý chỗ đỗ ---

func (s *ParkingService) CreateSpot(ctx context.Context, dto domain.SpotDTO) (*domain.Spot, error) {
	active := true
	if dto.Active != nil {
		active = *dto.Active
	}
	spot := &domain.Spot{
		Level:                  dto.Level,
		Section:                dto.Section,
		Sequence:               dto.Sequence,
		SpotClass:              domain.SpotClass(dto.SpotClass),
		Status:                 domain.SpotAvailable,
		Active:                 active,
		Features:               dto.Features,
		LastStatusUpdateSource: "admin_creation",
	}
	return s.spotRepo.Create(ctx, spot)
}

func (s *ParkingService) GetSpotByID(ctx context.Context, id int) (*domain.Spot, error) {
	return s.spotRepo.FindByID(ctx, id)
}

func (s *ParkingService) FindSpots(ctx context.Context, filter domain.SpotFilterDTO) ([]domain.Spot, error) {
	return s.spotRepo.Find(ctx, filter)
}

func (s *ParkingService) UpdateSpot(ctx context.Context, id int, dto domain.SpotDTO) (*domain.Spot, error) {
	spot, err := s.spotRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	spot.Level = dto.Level
	spot.Section = dto.Section
	spot.Sequence = dto.Sequence
	spot.SpotClass = domain.SpotClass(dto.SpotClass)
	spot.Features = dto.Features
	if dto.Active != nil {
		spot.Active = *dto.Active
	}
	spot.LastStatusUpdateSource = "admin_update"
	return s.spotRepo.Update(ctx, spot)
}

// SetSpotStatus đổi trạng thái vận hành của chỗ đỗ (bảo trì, hỏng...).
// Không cho đổi khi đang có phiên hoạt động — trạng thái occupied chỉ do
// engine phân bổ quản lý.
func (s *ParkingService) SetSpotStatus(ctx context.Context, id int, dto domain.SpotStatusDTO) (*domain.Spot, error) {
	if _, err := s.sessionRepo.FindActiveBySpotID(ctx, id); err == nil {
		return nil, fmt.Errorf("%w: chỗ đỗ %d", ErrSpotInUse, id)
	} else if !errors.Is(err, repository.ErrNoActiveSession) {
		return nil, fmt.Errorf("lỗi kiểm tra phiên của chỗ đỗ: %w", err)
	}
	if err := s.spotRepo.UpdateStatus(ctx, id, domain.OccupancyState(dto.Status), "admin_update"); err != nil {
		return nil, err
	}
	return s.spotRepo.FindByID(ctx, id)
}

func (s *ParkingService) DeleteSpot(ctx context.Context, id int) error {
	if _, err := s.sessionRepo.FindActiveBySpotID(ctx, id); err == nil {
		return fmt.Errorf("%w: không thể xóa chỗ đỗ %d", ErrSpotInUse, id)
	} else if !errors.Is(err, repository.ErrNoActiveSession) {
		return fmt.Errorf("lỗi kiểm tra phiên của chỗ đỗ: %w", err)
	}
	return s.spotRepo.Delete(ctx, id)
}

// --- Quản lý xe ---

func (s *ParkingService) RegisterVehicle(ctx context.Context, dto domain.RegisterVehicleDTO) (*domain.Vehicle, error) {
	plate := domain.NormalizePlate(dto.Plate)
	if !domain.ValidPlate(plate) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidPlate, dto.Plate)
	}
	rateType := domain.RateHourly
	if dto.RateType != "" {
		rateType = domain.RateType(dto.RateType)
	}
	baseRate := s.defaultBaseRate
	if dto.BaseRate > 0 {
		baseRate = dto.BaseRate
	}
	vehicle := &domain.Vehicle{
		Plate:        plate,
		VehicleClass: domain.VehicleClass(dto.VehicleClass),
		Status:       domain.VehicleActive,
		RateType:     rateType,
		BaseRate:     baseRate,
	}
	return s.vehicleRepo.Upsert(ctx, vehicle)
}

func (s *ParkingService) GetVehicleByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	return s.vehicleRepo.FindByPlate(ctx, domain.NormalizePlate(plate))
}

func (s *ParkingService) FindVehicles(ctx context.Context, filter domain.VehicleFilterDTO) ([]domain.Vehicle, error) {
	return s.vehicleRepo.Find(ctx, filter)
}

// --- Tra cứu phiên đỗ xe ---

func (s *ParkingService) GetSessionByID(ctx context.Context, id int) (*domain.ParkingSession, error) {
	return s.sessionRepo.FindByID(ctx, id)
}

func (s *ParkingService) FindSessions(ctx context.Context, filter domain.SessionFilterDTO) ([]domain.ParkingSession, error) {
	if filter.Plate != nil {
		normalized := domain.NormalizePlate(*filter.Plate)
		filter.Plate = &normalized
	}
	return s.sessionRepo.Find(ctx, filter)
}
