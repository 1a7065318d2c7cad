package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// ParkingSession chỉ được tạo bởi thao tác phân bổ chỗ (check-in) và chỉ
// được đóng bởi thao tác trả chỗ (check-out); không đường nào khác được
// tạo hoặc đóng session.
type ParkingSession struct {
	ID              int           `json:"id"`
	VehiclePlate    string        `json:"vehicle_plate"`
	SpotID          int           `json:"spot_id"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         null.Time     `json:"end_time"`
	DurationMinutes null.Int      `json:"duration_minutes"`
	TotalAmount     null.Float    `json:"total_amount"`
	Status          SessionStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	Spot *Spot `json:"spot,omitempty"` // Không map vào DB, dùng để trả về API
}

// Settlement là bảng quyết toán đầy đủ khi kết thúc một phiên đỗ xe.
// Luôn trả về toàn bộ diễn giải chứ không chỉ con số cuối để có thể
// đối soát hóa đơn.
type Settlement struct {
	ReceiptNumber string `json:"receipt_number"`
	SessionID     int    `json:"session_id"`
	VehiclePlate  string `json:"vehicle_plate"`
	SpotID        int    `json:"spot_id"`
	SpotLabel     string `json:"spot_label"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	DurationMinutes       int64    `json:"duration_minutes"`
	BillableHours         int64    `json:"billable_hours"`
	RateType              RateType `json:"rate_type"`
	BaseRatePerHour       float64  `json:"base_rate_per_hour"`
	FeaturePremiumPerHour float64  `json:"feature_premium_per_hour"`
	EffectiveRatePerHour  float64  `json:"effective_rate_per_hour"`
	Subtotal              float64  `json:"subtotal"`
	Adjustment            float64  `json:"adjustment"`
	TotalAmount           float64  `json:"total_amount"`
	GraceApplied          bool     `json:"grace_applied"`
}

type CheckInDTO struct {
	Plate          string  `json:"plate" binding:"required"`
	VehicleClass   string  `json:"vehicle_class" binding:"required,oneof=compact standard oversized electric handicap motorcycle"`
	RateType       string  `json:"rate_type" binding:"omitempty,oneof=hourly daily monthly"`
	BaseRate       float64 `json:"base_rate" binding:"omitempty,gt=0"`
	PreferredLevel *int    `json:"preferred_level" binding:"omitempty,gte=1"`
}

type CheckOutDTO struct {
	Plate            string `json:"plate" binding:"required"`
	CheckoutTime     string `json:"checkout_time,omitempty"` // RFC3339; mặc định là thời điểm hiện tại
	ApplyGracePeriod *bool  `json:"apply_grace_period,omitempty"`
	RemoveRecord     bool   `json:"remove_record,omitempty"`
}

type EstimateFeeDTO struct {
	DurationMinutes  int64    `json:"duration_minutes" binding:"required,gte=0"`
	RateType         string   `json:"rate_type" binding:"required,oneof=hourly daily monthly"`
	BaseRate         float64  `json:"base_rate" binding:"required,gt=0"`
	Features         []string `json:"features"`
	ApplyGracePeriod *bool    `json:"apply_grace_period,omitempty"`
}

type SessionFilterDTO struct {
	Plate  *string `form:"plate"`
	Status *string `form:"status"`
}

// AllocationResult là kết quả của một lượt phân bổ (hoặc mô phỏng phân bổ).
type AllocationResult struct {
	Spot    *Spot           `json:"spot"`
	Session *ParkingSession `json:"session,omitempty"` // nil khi chỉ mô phỏng
	Score   int             `json:"score"`
}
