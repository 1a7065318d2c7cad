package domain

import "time"

type OccupancyEventType string

const (
	EventCheckIn  OccupancyEventType = "check_in"
	EventCheckOut OccupancyEventType = "check_out"
)

// OccupancyEvent được phát lên kênh realtime mỗi khi một chỗ đỗ đổi trạng
// thái vì check-in/check-out thành công.
type OccupancyEvent struct {
	Type         OccupancyEventType `json:"type"`
	SpotID       int                `json:"spot_id"`
	SpotLabel    string             `json:"spot_label"`
	VehiclePlate string             `json:"vehicle_plate"`
	At           time.Time          `json:"at"`
}
