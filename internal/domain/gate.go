package domain

import "time"

type GateDirection string

const (
	GateIn            GateDirection = "in"
	GateOut           GateDirection = "out"
	GateBidirectional GateDirection = "bidirectional"
)

func IsValidGateDirection(d GateDirection) bool {
	return d == GateIn || d == GateOut || d == GateBidirectional
}

// Gate: cổng vào/ra của một bãi đỗ. Direction là bất biến sau khi tạo
// (ràng buộc nghiệp vụ, được enforce ở service).
type Gate struct {
	ID             int           `json:"id"`
	FacilityID     int           `json:"facility_id"`
	Name           string        `json:"name"`
	Direction      GateDirection `json:"direction"`
	Esp32ThingName string        `json:"esp32_thing_name,omitempty"` // Thing Name của thiết bị điều khiển rào chắn
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type GateDTO struct {
	FacilityID     int           `json:"facility_id" binding:"required"`
	Name           string        `json:"name" binding:"required"`
	Direction      GateDirection `json:"direction" binding:"required"`
	Esp32ThingName string        `json:"esp32_thing_name"`
}

// GateUpdateDTO không chứa Direction: hướng của cổng không được phép đổi.
type GateUpdateDTO struct {
	Name           string `json:"name"`
	Esp32ThingName string `json:"esp32_thing_name"`
}
