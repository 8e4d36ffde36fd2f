package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type TransitType string

const (
	TransitIn  TransitType = "in"
	TransitOut TransitType = "out"
)

// Transit: một lượt xe qua cổng, append-only. Chuỗi transit của một xe
// sắp theo timestamp chính là lịch sử vào/ra của xe đó; xe đang ở trong
// bãi F khi và chỉ khi transit mới nhất (trên mọi bãi) có type "in" và
// facility = F.
type Transit struct {
	ID          int         `json:"id"`
	FacilityID  int         `json:"facility_id"`
	GateID      int         `json:"gate_id"`
	Plate       string      `json:"plate"`
	Type        TransitType `json:"type"`
	Timestamp   time.Time   `json:"timestamp"`
	GateEventID null.String `json:"gate_event_id,omitempty"` // correlation id từ thiết bị hoặc sinh bởi server
	CreatedAt   time.Time   `json:"created_at"`
}

// GateEventDTO: request ghi nhận xe qua cổng (từ API hoặc từ SQS consumer).
// Timestamp rỗng thì server dùng thời gian hiện tại.
type GateEventDTO struct {
	GateID      int    `json:"gate_id" binding:"required"`
	Plate       string `json:"plate" binding:"required"`
	Timestamp   string `json:"timestamp,omitempty"` // RFC3339Nano
	GateEventID string `json:"gate_event_id,omitempty"`
}

// GateEventResultDTO: kết quả trả về cho một lượt qua cổng. Invoice chỉ
// khác nil khi lượt này đóng một phiên đỗ (type = "out").
type GateEventResultDTO struct {
	Transit *Transit `json:"transit"`
	Invoice *Invoice `json:"invoice,omitempty"`
}

type TransitFilterDTO struct {
	FacilityID *int    `form:"facilityId"`
	Plate      *string `form:"plate"`
	Type       *string `form:"type"`
	From       *string `form:"from"` // RFC3339
	To         *string `form:"to"`
}

// TransitNotification được broadcast qua WebSocket cho dashboard realtime.
type TransitNotification struct {
	EventType    string       `json:"event_type"` // "transit_accepted" | "transit_rejected"
	FacilityID   int          `json:"facility_id"`
	GateID       int          `json:"gate_id"`
	Plate        string       `json:"plate"`
	TransitType  TransitType  `json:"transit_type,omitempty"`
	Reason       string       `json:"reason,omitempty"`
	VehicleClass VehicleClass `json:"vehicle_class,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}
