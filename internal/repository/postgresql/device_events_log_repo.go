package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parking_facility/internal/domain"
	"parking_facility/internal/repository"
)

type pgDeviceEventsLogRepository struct {
	db *sql.DB
}

func NewPgDeviceEventsLogRepository(db *sql.DB) repository.DeviceEventsLogRepository {
	return &pgDeviceEventsLogRepository{db: db}
}

func (r *pgDeviceEventsLogRepository) Create(ctx context.Context, event *domain.DeviceEventLog) error {
	query := `INSERT INTO device_events_log
	            (received_at, esp32_thing_name, mqtt_topic, message_type, payload, processed_status, processing_notes)
	           VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	var payloadToStore []byte
	if event.Payload != nil {
		payloadToStore = event.Payload
	}

	err := r.db.QueryRowContext(ctx, query,
		event.ReceivedAt,
		sql.NullString{String: event.Esp32ThingName, Valid: event.Esp32ThingName != ""},
		sql.NullString{String: event.MqttTopic, Valid: event.MqttTopic != ""},
		sql.NullString{String: event.MessageType, Valid: event.MessageType != ""},
		payloadToStore,
		sql.NullString{String: event.ProcessedStatus, Valid: event.ProcessedStatus != ""},
		sql.NullString{String: event.ProcessingNotes, Valid: event.ProcessingNotes != ""},
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("DeviceEventsLogRepository.Create: %w", err)
	}
	return nil
}

// CleanupOlderThan xóa các bản ghi audit cũ hơn cutoff, trả về số dòng đã
// xóa. Chạy định kỳ từ job dọn dẹp trong main.
func (r *pgDeviceEventsLogRepository) CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM device_events_log WHERE received_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("DeviceEventsLogRepository.CleanupOlderThan: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeviceEventsLogRepository.CleanupOlderThan (rows affected): %w", err)
	}
	return affected, nil
}
