package repository

import (
	"context"
	"errors"
	"time"

	"city_parking/internal/domain"
)

var ErrNotFound = errors.New("không tìm thấy bản ghi")
var ErrDuplicateEntry = errors.New("bản ghi đã tồn tại")
var ErrNoActiveSession = errors.New("không tìm thấy phiên đỗ xe đang hoạt động cho thông tin cung cấp")

// ErrSpotConflict báo rằng điều kiện "chỗ đỗ vẫn còn trống" không còn đúng
// tại thời điểm giữ chỗ — một request khác đã thắng. Lỗi này được retry
// cục bộ ở tầng service, không bao giờ trả thẳng ra caller.
var ErrSpotConflict = errors.New("chỗ đỗ đã bị request khác giữ mất")

type SpotRepository interface {
	Create(ctx context.Context, spot *domain.Spot) (*domain.Spot, error)
	FindByID(ctx context.Context, id int) (*domain.Spot, error)
	Find(ctx context.Context, filter domain.SpotFilterDTO) ([]domain.Spot, error)
	// FindAvailableByClass trả về các chỗ đỗ available + active đúng loại,
	// sắp theo (level, section, sequence), tùy chọn lọc theo tầng, giới hạn
	// limit phần tử.
	FindAvailableByClass(ctx context.Context, spotClass domain.SpotClass, level *int, limit int) ([]domain.Spot, error)
	UpdateStatus(ctx context.Context, id int, status domain.OccupancyState, source string) error
	Update(ctx context.Context, spot *domain.Spot) (*domain.Spot, error)
	Delete(ctx context.Context, id int) error
	CountAll(ctx context.Context) (int, error)
	OccupancySnapshot(ctx context.Context) ([]domain.Spot, error)
}

type VehicleRepository interface {
	Upsert(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error)
	FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error)
	Find(ctx context.Context, filter domain.VehicleFilterDTO) ([]domain.Vehicle, error)
	Delete(ctx context.Context, plate string) error
}

type SessionRepository interface {
	FindByID(ctx context.Context, id int) (*domain.ParkingSession, error)
	FindActiveByPlate(ctx context.Context, plate string) (*domain.ParkingSession, error)
	FindActiveBySpotID(ctx context.Context, spotID int) (*domain.ParkingSession, error)
	Find(ctx context.Context, filter domain.SessionFilterDTO) ([]domain.ParkingSession, error)
	RevenueBetween(ctx context.Context, from, to time.Time) (*domain.RevenueReport, error)
}

// ClaimRequest mô tả một lần giữ chỗ: chỗ đỗ đã chọn và thông tin xe sẽ
// gắn vào phiên mới.
type ClaimRequest struct {
	SpotID       int
	Plate        string
	VehicleClass domain.VehicleClass
	RateType     domain.RateType
	BaseRate     float64
	StartTime    time.Time
}

// ReleaseRequest mô tả một lần trả chỗ: phiên cần đóng và kết quả tính phí.
type ReleaseRequest struct {
	SessionID       int
	SpotID          int
	Plate           string
	EndTime         time.Time
	DurationMinutes int64
	TotalAmount     float64
	// RemoveVehicle xóa luôn hồ sơ xe sau khi quyết toán (khách vãng lai).
	RemoveVehicle bool
}

// AllocationStore là đơn vị giao dịch của engine phân bổ. Mỗi method chạy
// như một khối all-or-nothing đối với store bên dưới.
type AllocationStore interface {
	// ClaimSpot chuyển chỗ đỗ từ available sang occupied CHỈ KHI nó vẫn
	// còn available tại thời điểm gọi (compare-and-set), đồng thời tạo
	// session active và cập nhật xe sang trạng thái parked. Nếu điều kiện
	// CAS thất bại trả về ErrSpotConflict và không để lại thay đổi nào.
	ClaimSpot(ctx context.Context, req ClaimRequest) (*domain.ParkingSession, error)
	// ReleaseSpot đóng session, trả chỗ đỗ về available và chuyển xe sang
	// departed trong cùng một khối giao dịch.
	ReleaseSpot(ctx context.Context, req ReleaseRequest) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
}
