package domain

import (
	"fmt"
	"time"
)

type SpotClass string

const (
	ClassCompact    SpotClass = "compact"
	ClassStandard   SpotClass = "standard"
	ClassOversized  SpotClass = "oversized"
	ClassElectric   SpotClass = "electric"
	ClassHandicap   SpotClass = "handicap"
	ClassMotorcycle SpotClass = "motorcycle"
)

type OccupancyState string

const (
	SpotAvailable   OccupancyState = "available"
	SpotOccupied    OccupancyState = "occupied"
	SpotReserved    OccupancyState = "reserved"
	SpotMaintenance OccupancyState = "maintenance"
	SpotOutOfOrder  OccupancyState = "out_of_order"
)

// Feature tags gắn trên chỗ đỗ. Các tag khác ngoài danh sách này vẫn được
// lưu nhưng không ảnh hưởng đến chấm điểm hay tính phí.
const (
	FeatureCharging = "charging"
	FeatureCovered  = "covered"
)

type Spot struct {
	ID                     int            `json:"id"`
	Level                  int            `json:"level"`
	Section                string         `json:"section"`
	Sequence               int            `json:"sequence"`
	SpotClass              SpotClass      `json:"spot_class"`
	Status                 OccupancyState `json:"status"`
	Active                 bool           `json:"active"`
	Features               []string       `json:"features,omitempty"`
	LastStatusUpdateSource string         `json:"last_status_update_source,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// Label trả về nhãn hiển thị của chỗ đỗ, ví dụ "2-B-07".
func (s *Spot) Label() string {
	return spotLabel(s.Level, s.Section, s.Sequence)
}

func spotLabel(level int, section string, sequence int) string {
	return fmt.Sprintf("%d-%s-%02d", level, section, sequence)
}

func (s *Spot) HasFeature(feature string) bool {
	for _, f := range s.Features {
		if f == feature {
			return true
		}
	}
	return false
}

type SpotDTO struct {
	Level     int      `json:"level" binding:"required,gte=1"`
	Section   string   `json:"section" binding:"required"`
	Sequence  int      `json:"sequence" binding:"required,gte=1"`
	SpotClass string   `json:"spot_class" binding:"required,oneof=compact standard oversized electric handicap motorcycle"`
	Features  []string `json:"features"`
	Active    *bool    `json:"active"`
}

type SpotStatusDTO struct {
	Status string `json:"status" binding:"required,oneof=available reserved maintenance out_of_order"`
}

type SpotFilterDTO struct {
	Level     *int    `form:"level"`
	Section   *string `form:"section"`
	SpotClass *string `form:"spotClass"`
	Status    *string `form:"status"`
}
