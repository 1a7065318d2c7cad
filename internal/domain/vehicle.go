package domain

import (
	"regexp"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"
)

type VehicleClass string

const (
	VehicleCompact    VehicleClass = "compact"
	VehicleStandard   VehicleClass = "standard"
	VehicleOversized  VehicleClass = "oversized"
	VehicleElectric   VehicleClass = "electric"
	VehicleHandicap   VehicleClass = "handicap"
	VehicleMotorcycle VehicleClass = "motorcycle"
)

type VehicleStatus string

const (
	VehicleActive   VehicleStatus = "active"
	VehicleParked   VehicleStatus = "parked"
	VehicleDeparted VehicleStatus = "departed"
)

type RateType string

const (
	RateHourly  RateType = "hourly"
	RateDaily   RateType = "daily"
	RateMonthly RateType = "monthly"
)

type Vehicle struct {
	Plate        string        `json:"plate"`
	VehicleClass VehicleClass  `json:"vehicle_class"`
	Status       VehicleStatus `json:"status"`
	// AssignedSpotID chỉ là tham chiếu tra cứu ngược; session mới là bên
	// sở hữu quan hệ xe-chỗ đỗ khi đang active.
	AssignedSpotID null.Int  `json:"assigned_spot_id"`
	RateType       RateType  `json:"rate_type"`
	BaseRate       float64   `json:"base_rate"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

var platePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9\-]{1,15}$`)

// NormalizePlate chuẩn hóa biển số: bỏ khoảng trắng, viết hoa.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(plate), " ", ""))
}

// ValidPlate kiểm tra biển số đã được chuẩn hóa.
func ValidPlate(plate string) bool {
	return platePattern.MatchString(plate)
}

type RegisterVehicleDTO struct {
	Plate        string  `json:"plate" binding:"required"`
	VehicleClass string  `json:"vehicle_class" binding:"required,oneof=compact standard oversized electric handicap motorcycle"`
	RateType     string  `json:"rate_type" binding:"omitempty,oneof=hourly daily monthly"`
	BaseRate     float64 `json:"base_rate" binding:"omitempty,gt=0"`
}

type VehicleFilterDTO struct {
	Status *string `form:"status"`
}
