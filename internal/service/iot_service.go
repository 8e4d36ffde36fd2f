package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"parking_facility/internal/config"
	"parking_facility/internal/domain"
	"parking_facility/internal/engine"
	"parking_facility/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
)

type IoTService struct {
	parkingService *ParkingService
	iotDataClient  *iotdataplane.Client
	cfg            *config.Config
	eventLogRepo   repository.DeviceEventsLogRepository
}

func NewIoTService(
	ps *ParkingService,
	iotDataClient *iotdataplane.Client,
	cfg *config.Config,
	eventLogRepo repository.DeviceEventsLogRepository,
) *IoTService {
	return &IoTService{
		parkingService: ps,
		iotDataClient:  iotDataClient,
		cfg:            cfg,
		eventLogRepo:   eventLogRepo,
	}
}

// HandleDeviceEvent xử lý một message từ SQS (payload từ thiết bị ở cổng).
// Trả về error CHỈ khi lỗi có thể retry (DB, mạng); payload hỏng và từ
// chối nghiệp vụ được ghi log audit rồi trả nil để consumer xóa message —
// retry một lượt bị từ chối vẫn sẽ bị từ chối y hệt.
func (s *IoTService) HandleDeviceEvent(ctx context.Context, sqsMessageBody string) error {
	log.Printf("IoTService: Xử lý sự kiện từ SQS: %s", sqsMessageBody)

	var rawPayload json.RawMessage
	if err := json.Unmarshal([]byte(sqsMessageBody), &rawPayload); err != nil {
		log.Printf("Lỗi unmarshal raw payload: %v. Body: %s", err, sqsMessageBody)
		s.logEvent(&domain.DeviceEventLog{
			ReceivedAt:      time.Now().UTC(),
			Payload:         json.RawMessage(sqsMessageBody),
			ProcessedStatus: "error",
			ProcessingNotes: fmt.Sprintf("Failed to unmarshal raw payload: %v", err),
		})
		return nil
	}

	var genericEvent domain.GenericIoTEvent
	if err := json.Unmarshal(rawPayload, &genericEvent); err != nil {
		log.Printf("Lỗi unmarshal generic IoT event: %v. Body: %s", err, sqsMessageBody)
		s.logEvent(&domain.DeviceEventLog{
			ReceivedAt:      time.Now().UTC(),
			MqttTopic:       genericEvent.ReceivedMqttTopic,
			Payload:         rawPayload,
			ProcessedStatus: "error",
			ProcessingNotes: fmt.Sprintf("Failed to unmarshal generic event: %v", err),
		})
		return nil
	}
	genericEvent.RawPayload = rawPayload

	logEntry := &domain.DeviceEventLog{
		ReceivedAt:      time.Now().UTC(),
		Esp32ThingName:  genericEvent.DeviceID,
		MqttTopic:       genericEvent.ReceivedMqttTopic,
		MessageType:     genericEvent.MessageType,
		Payload:         genericEvent.RawPayload,
		ProcessedStatus: "pending",
	}
	s.logEvent(logEntry)

	switch genericEvent.MessageType {
	case "gate_read":
		var event domain.DeviceGateReadEvent
		if err := json.Unmarshal(genericEvent.RawPayload, &event); err != nil {
			log.Printf("Lỗi unmarshal gate_read event: %v", err)
			logEntry.ProcessedStatus = "error"
			logEntry.ProcessingNotes = fmt.Sprintf("unmarshal gate_read: %v", err)
			s.logEvent(logEntry)
			return nil
		}
		event.GenericIoTEvent = genericEvent
		return s.handleGateRead(ctx, event)

	case "barrier_state":
		var event domain.DeviceBarrierStateEvent
		if err := json.Unmarshal(genericEvent.RawPayload, &event); err != nil {
			log.Printf("Lỗi unmarshal barrier_state event: %v", err)
			return nil
		}
		event.GenericIoTEvent = genericEvent
		log.Printf("Rào chắn cổng %d (thiết bị '%s') báo trạng thái '%s'",
			event.GateID, event.DeviceID, event.BarrierState)
		return nil

	default:
		log.Printf("IoTService: Loại message không được xử lý: '%s'", genericEvent.MessageType)
		return nil
	}
}

// handleGateRead: thiết bị ở cổng đã đọc được biển số, ghi nhận lượt qua
// cổng và mở rào nếu lượt được chấp nhận.
func (s *IoTService) handleGateRead(ctx context.Context, event domain.DeviceGateReadEvent) error {
	dto := domain.GateEventDTO{
		GateID:      event.GateID,
		Plate:       event.Plate,
		Timestamp:   event.Timestamp,
		GateEventID: event.EventID,
	}

	result, err := s.parkingService.RecordGateEvent(ctx, dto)
	if err != nil {
		if engine.IsRejection(err) {
			// Từ chối nghiệp vụ: rào giữ đóng, message không retry.
			log.Printf("Lượt qua cổng %d của xe '%s' bị từ chối: %v", event.GateID, event.Plate, err)
			return nil
		}
		// Các lỗi khác (DB, not-found do dữ liệu chưa sync) cho retry.
		return fmt.Errorf("lỗi xử lý gate_read (cổng %d, xe '%s'): %w", event.GateID, event.Plate, err)
	}

	gate, err := s.parkingService.GetGateByID(ctx, event.GateID)
	if err == nil && gate.Esp32ThingName != "" {
		if err := s.SendBarrierControlCommand(ctx, gate.Esp32ThingName, "open", event.EventID); err != nil {
			// Transit đã commit; lỗi mở rào cần can thiệp tay, không retry message.
			log.Printf("Lỗi gửi lệnh mở rào cho cổng %d: %v", event.GateID, err)
		}
	}

	if result.Invoice != nil {
		log.Printf("Phiên đỗ của xe '%s' đã đóng, hóa đơn %d: %s",
			event.Plate, result.Invoice.ID, result.Invoice.Amount.StringFixed(2))
	}
	return nil
}

// SendBarrierControlCommand publish lệnh đóng/mở rào chắn xuống thiết bị
// qua AWS IoT Data Plane.
func (s *IoTService) SendBarrierControlCommand(ctx context.Context, esp32ThingName string, command string, requestID string) error {
	topic := fmt.Sprintf("parking_facility/command/barriers/%s", esp32ThingName)

	payload := domain.BarrierControlCommandPayload{
		Command:   command,
		RequestID: requestID,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("lỗi marshal payload lệnh rào chắn: %w", err)
	}

	log.Printf("IoTService: Đang publish lệnh '%s' (ReqID: %s) tới topic %s", command, requestID, topic)
	_, err = s.iotDataClient.Publish(ctx, &iotdataplane.PublishInput{
		Topic:   aws.String(topic),
		Qos:     1,
		Payload: payloadBytes,
	})
	if err != nil {
		return fmt.Errorf("lỗi publish lệnh MQTT: %w", err)
	}

	log.Printf("Đã gửi lệnh '%s' (ReqID: %s) thành công tới thiết bị %s", command, requestID, esp32ThingName)
	return nil
}

func (s *IoTService) logEvent(entry *domain.DeviceEventLog) {
	if s.eventLogRepo == nil {
		return
	}
	if err := s.eventLogRepo.Create(context.Background(), entry); err != nil {
		log.Printf("Lỗi khi ghi log sự kiện thiết bị vào DB: %v", err)
	}
}
