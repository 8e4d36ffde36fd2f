package domain

import (
	"encoding/json"
	"time"
)

// GenericIoTEvent dùng để parse bước đầu payload từ SQS, lấy message_type
// và các trường chung do IoT Rule thêm vào.
type GenericIoTEvent struct {
	DeviceID          string          `json:"device_id"` // Thing Name thiết bị ở cổng
	MessageType       string          `json:"message_type"`
	Timestamp         string          `json:"timestamp"` // ISO 8601 UTC string từ thiết bị
	ReceivedMqttTopic string          `json:"received_mqtt_topic,omitempty"`
	ClientIDFromIoT   string          `json:"client_id_iot,omitempty"`
	RawPayload        json.RawMessage `json:"-"`
}

// DeviceGateReadEvent: thiết bị ở cổng đọc được biển số một xe đang chờ
// qua rào (việc đọc biển do thiết bị/edge xử lý, backend chỉ nhận kết quả).
type DeviceGateReadEvent struct {
	GenericIoTEvent
	GateID  int    `json:"gate_id"`
	Plate   string `json:"plate"`
	EventID string `json:"event_id"` // correlation id do thiết bị sinh
	RSSI    int    `json:"rssi,omitempty"`
}

// DeviceBarrierStateEvent: rào chắn báo trạng thái sau khi đóng/mở.
type DeviceBarrierStateEvent struct {
	GenericIoTEvent
	GateID       int    `json:"gate_id"`
	BarrierState string `json:"barrier_state"` // "opened_command", "closed_command", "opened_auto", "closed_auto"
	DeviceUptime int64  `json:"device_uptime,omitempty"`
	RSSI         int    `json:"rssi,omitempty"`
}

// BarrierControlCommandPayload: lệnh điều khiển gửi từ backend xuống thiết bị
// qua IoT Data Plane.
type BarrierControlCommandPayload struct {
	Command   string `json:"command"` // "open" hoặc "close"
	RequestID string `json:"request_id,omitempty"`
}

type BarrierControlDTO struct {
	GateID  int    `json:"gate_id" binding:"required"`
	Command string `json:"command" binding:"required,oneof=open close"`
}

// DeviceEventLog lưu audit các payload thiết bị đã nhận, kể cả payload lỗi.
type DeviceEventLog struct {
	ID              int64           `json:"id"`
	ReceivedAt      time.Time       `json:"received_at"`
	Esp32ThingName  string          `json:"esp32_thing_name"`
	MqttTopic       string          `json:"mqtt_topic"`
	MessageType     string          `json:"message_type"`
	Payload         json.RawMessage `json:"payload"`          // payload gốc dạng JSONB
	ProcessedStatus string          `json:"processed_status"` // "pending", "processed", "rejected", "error"
	ProcessingNotes string          `json:"processing_notes,omitempty"`
}
