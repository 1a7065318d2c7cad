package domain

import "time"

type OccupancyBucket struct {
	Key          string `json:"key"` // tầng ("1", "2"...) hoặc loại chỗ đỗ
	Total        int    `json:"total"`
	Available    int    `json:"available"`
	Occupied     int    `json:"occupied"`
	OutOfService int    `json:"out_of_service"`
}

type OccupancyReport struct {
	GeneratedAt  time.Time         `json:"generated_at"`
	TotalSpots   int               `json:"total_spots"`
	Available    int               `json:"available"`
	Occupied     int               `json:"occupied"`
	OutOfService int               `json:"out_of_service"` // reserved + maintenance + out_of_order + inactive
	OccupancyPct float64           `json:"occupancy_pct"`
	ByLevel      []OccupancyBucket `json:"by_level"`
	ByClass      []OccupancyBucket `json:"by_class"`
}

type RevenueReport struct {
	From               time.Time `json:"from"`
	To                 time.Time `json:"to"`
	CompletedSessions  int       `json:"completed_sessions"`
	TotalRevenue       float64   `json:"total_revenue"`
	AvgDurationMinutes float64   `json:"avg_duration_minutes"`
}

type RevenueFilterDTO struct {
	From string `form:"from"` // RFC3339; mặc định 30 ngày trước
	To   string `form:"to"`   // RFC3339; mặc định hiện tại
}
