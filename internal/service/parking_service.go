package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"parking_facility/internal/domain"
	"parking_facility/internal/engine"
	"parking_facility/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"
)

func parsePrice(s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("giá không hợp lệ '%s': %w", s, err)
	}
	if price.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("giá không được âm: %s", s)
	}
	return price, nil
}

// TransitNotifier đẩy thông báo realtime (WebSocket) cho dashboard.
// Triển khai ở tầng api; service chỉ cần fire-and-forget.
type TransitNotifier interface {
	BroadcastTransit(notification domain.TransitNotification)
}

type noopNotifier struct{}

func (noopNotifier) BroadcastTransit(domain.TransitNotification) {}

type ParkingService struct {
	facilityRepo repository.FacilityRepository
	gateRepo     repository.GateRepository
	vehicleRepo  repository.VehicleRepository
	transitRepo  repository.TransitRepository
	tariffRepo   repository.TariffRepository
	invoiceRepo  repository.InvoiceRepository

	ledger   *engine.CapacityLedger
	billing  *engine.BillingCalculator
	notifier TransitNotifier
}

func NewParkingService(
	facilityRepo repository.FacilityRepository,
	gateRepo repository.GateRepository,
	vehicleRepo repository.VehicleRepository,
	transitRepo repository.TransitRepository,
	tariffRepo repository.TariffRepository,
	invoiceRepo repository.InvoiceRepository,
	loc *time.Location,
) *ParkingService {
	s := &ParkingService{
		facilityRepo: facilityRepo,
		gateRepo:     gateRepo,
		vehicleRepo:  vehicleRepo,
		transitRepo:  transitRepo,
		tariffRepo:   tariffRepo,
		invoiceRepo:  invoiceRepo,
		ledger:       engine.NewCapacityLedger(facilityRepo),
		notifier:     noopNotifier{},
	}
	s.billing = engine.NewBillingCalculator(tariffRepo.FindWindows, loc)
	return s
}

// SetNotifier gắn kênh thông báo realtime. Gọi một lần lúc khởi động,
// trước khi server nhận traffic.
func (s *ParkingService) SetNotifier(n TransitNotifier) {
	if n != nil {
		s.notifier = n
	}
}

// RecordGateEvent xử lý một lượt xe qua cổng, từ API hoặc từ SQS consumer:
//
//  1. Suy ra lượt này là vào hay ra từ transit cuối của xe và hướng cổng.
//  2. Lượt vào phải còn chỗ cho loại xe đó; kiểm tra và commit được tuần
//     tự hóa theo cặp (bãi, loại xe) để hai lượt vào đồng thời không cùng
//     chiếm chỗ cuối cùng.
//  3. Ghi transit và dịch counter remaining trong cùng một transaction.
//  4. Lượt ra đóng phiên đỗ: tính phí và phát hành hóa đơn ngay.
//
// Lỗi từ chối (engine.IsRejection) là lỗi nghiệp vụ, không ghi transit nào.
func (s *ParkingService) RecordGateEvent(ctx context.Context, dto domain.GateEventDTO) (*domain.GateEventResultDTO, error) {
	gate, err := s.gateRepo.FindByID(ctx, dto.GateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: cổng với ID %d không tồn tại", repository.ErrNotFound, dto.GateID)
		}
		return nil, fmt.Errorf("lỗi khi kiểm tra cổng: %w", err)
	}

	vehicle, err := s.vehicleRepo.FindByPlate(ctx, dto.Plate)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: xe với biển số '%s' chưa được đăng ký", repository.ErrNotFound, dto.Plate)
		}
		return nil, fmt.Errorf("lỗi khi kiểm tra xe: %w", err)
	}

	timestamp := time.Now().UTC()
	if dto.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339Nano, dto.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("timestamp không hợp lệ '%s': %w", dto.Timestamp, err)
		}
		timestamp = parsed.UTC()
	}

	// Transit cuối của xe trên mọi bãi là đủ để suy ra trạng thái hiện tại.
	var history []domain.Transit
	lastTransit, err := s.transitRepo.FindLastByPlate(ctx, dto.Plate)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lỗi khi lấy transit cuối của xe '%s': %w", dto.Plate, err)
	}
	if lastTransit != nil {
		history = append(history, *lastTransit)
	}

	transitType, err := engine.ResolveTransit(history, gate)
	if err != nil {
		s.notifyRejected(gate, dto.Plate, vehicle.Class, err)
		return nil, err
	}

	// Lượt ra phải muộn hơn lượt vào đã mở phiên; bắt trước khi commit
	// để không ghi transit rồi mới phát hiện khoảng đỗ âm.
	if transitType == domain.TransitOut && !lastTransit.Timestamp.Before(timestamp) {
		s.notifyRejected(gate, dto.Plate, vehicle.Class, engine.ErrInvalidStayInterval)
		return nil, engine.ErrInvalidStayInterval
	}

	// Giữ khóa (bãi, loại xe) từ lúc kiểm tra sức chứa đến lúc commit.
	unlock := s.ledger.Lock(gate.FacilityID, vehicle.Class)
	defer unlock()

	if err := s.ledger.EnsureCapacity(ctx, gate.FacilityID, vehicle.Class, transitType); err != nil {
		if engine.IsRejection(err) {
			s.notifyRejected(gate, dto.Plate, vehicle.Class, err)
		}
		return nil, err
	}

	eventID := dto.GateEventID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	transit := &domain.Transit{
		FacilityID:  gate.FacilityID,
		GateID:      gate.ID,
		Plate:       dto.Plate,
		Type:        transitType,
		Timestamp:   timestamp,
		GateEventID: null.StringFrom(eventID),
	}

	created, err := s.transitRepo.CreateWithCapacityDelta(ctx, transit, vehicle.Class, engine.DeltaFor(transitType))
	if err != nil {
		if engine.IsRejection(err) {
			s.notifyRejected(gate, dto.Plate, vehicle.Class, err)
			return nil, err
		}
		return nil, fmt.Errorf("lỗi ghi transit: %w", err)
	}

	result := &domain.GateEventResultDTO{Transit: created}

	if transitType == domain.TransitOut {
		invoice, err := s.issueInvoice(ctx, gate.FacilityID, vehicle, lastTransit.Timestamp, timestamp)
		if err != nil {
			// Transit đã commit, phiên đã đóng; lỗi hóa đơn không được làm
			// mất lượt ra. Log để đối soát thủ công.
			log.Printf("Lỗi phát hành hóa đơn cho xe '%s' (bãi %d): %v", dto.Plate, gate.FacilityID, err)
		} else {
			result.Invoice = invoice
		}
	}

	log.Printf("Đã ghi nhận lượt '%s' cho xe '%s' tại cổng %d (bãi %d)", transitType, dto.Plate, gate.ID, gate.FacilityID)
	s.notifier.BroadcastTransit(domain.TransitNotification{
		EventType:    "transit_accepted",
		FacilityID:   gate.FacilityID,
		GateID:       gate.ID,
		Plate:        dto.Plate,
		TransitType:  transitType,
		VehicleClass: vehicle.Class,
		Timestamp:    timestamp,
	})
	return result, nil
}

func (s *ParkingService) notifyRejected(gate *domain.Gate, plate string, class domain.VehicleClass, reason error) {
	log.Printf("Từ chối lượt qua cổng %d cho xe '%s': %v", gate.ID, plate, reason)
	s.notifier.BroadcastTransit(domain.TransitNotification{
		EventType:    "transit_rejected",
		FacilityID:   gate.FacilityID,
		GateID:       gate.ID,
		Plate:        plate,
		Reason:       reason.Error(),
		VehicleClass: class,
		Timestamp:    time.Now().UTC(),
	})
}

func (s *ParkingService) issueInvoice(ctx context.Context, facilityID int, vehicle *domain.Vehicle, entryTime, exitTime time.Time) (*domain.Invoice, error) {
	charge, err := s.billing.ComputeCharge(ctx, engine.BillingContext{
		FacilityID:   facilityID,
		Plate:        vehicle.Plate,
		VehicleClass: vehicle.Class,
		EntryTime:    entryTime,
		ExitTime:     exitTime,
	})
	if err != nil {
		return nil, fmt.Errorf("lỗi tính phí: %w", err)
	}
	if charge.UncoveredMinutes > 0 {
		log.Printf("Cảnh báo: %d phút của phiên đỗ (xe '%s', bãi %d) không có khung giá nào phủ, tính 0 đồng",
			charge.UncoveredMinutes, vehicle.Plate, facilityID)
	}
	invoice := &domain.Invoice{
		FacilityID:       facilityID,
		Plate:            vehicle.Plate,
		VehicleClass:     vehicle.Class,
		EntryTime:        entryTime,
		ExitTime:         exitTime,
		Amount:           charge.Amount,
		UncoveredMinutes: charge.UncoveredMinutes,
	}
	return s.invoiceRepo.Create(ctx, invoice)
}

// EstimateCharge tính thử phí cho phiên đỗ đang mở của một xe, tại thời
// điểm at, mà không đóng phiên và không phát hành hóa đơn.
func (s *ParkingService) EstimateCharge(ctx context.Context, plate string, at time.Time) (*domain.ChargeEstimateDTO, error) {
	lastTransit, err := s.transitRepo.FindLastByPlate(ctx, plate)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNoOpenStay
		}
		return nil, fmt.Errorf("lỗi khi lấy transit cuối của xe '%s': %w", plate, err)
	}
	if lastTransit.Type != domain.TransitIn {
		return nil, repository.ErrNoOpenStay
	}

	vehicle, err := s.vehicleRepo.FindByPlate(ctx, plate)
	if err != nil {
		return nil, fmt.Errorf("lỗi khi kiểm tra xe '%s': %w", plate, err)
	}

	if at.IsZero() {
		at = time.Now().UTC()
	}
	charge, err := s.billing.ComputeCharge(ctx, engine.BillingContext{
		FacilityID:   lastTransit.FacilityID,
		Plate:        plate,
		VehicleClass: vehicle.Class,
		EntryTime:    lastTransit.Timestamp,
		ExitTime:     at,
	})
	if err != nil {
		return nil, err
	}
	return &domain.ChargeEstimateDTO{
		Plate:            plate,
		FacilityID:       lastTransit.FacilityID,
		VehicleClass:     vehicle.Class,
		EntryTime:        lastTransit.Timestamp,
		At:               at.UTC(),
		Amount:           charge.Amount.StringFixed(2),
		UncoveredMinutes: charge.UncoveredMinutes,
	}, nil
}

// --- Facility ---

func (s *ParkingService) CreateFacility(ctx context.Context, dto domain.FacilityDTO) (*domain.Facility, error) {
	facility := &domain.Facility{
		Name:    dto.Name,
		Address: dto.Address,
	}
	return s.facilityRepo.Create(ctx, facility, dto.Capacity.PerClass())
}

func (s *ParkingService) GetFacilityByID(ctx context.Context, id int) (*domain.Facility, error) {
	return s.facilityRepo.FindByID(ctx, id)
}

func (s *ParkingService) GetAllFacilities(ctx context.Context) ([]domain.Facility, error) {
	return s.facilityRepo.FindAll(ctx)
}

func (s *ParkingService) UpdateFacility(ctx context.Context, id int, dto domain.FacilityDTO) (*domain.Facility, error) {
	facility, err := s.facilityRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	facility.Name = dto.Name
	facility.Address = dto.Address
	return s.facilityRepo.Update(ctx, facility)
}

func (s *ParkingService) DeleteFacility(ctx context.Context, id int) error {
	// Nếu còn cổng thuộc bãi này thì từ chối xóa, tránh mồ côi transit.
	gates, err := s.gateRepo.FindByFacilityID(ctx, id)
	if err != nil {
		return fmt.Errorf("lỗi khi kiểm tra các cổng của bãi %d: %w", id, err)
	}
	if len(gates) > 0 {
		return fmt.Errorf("không thể xóa bãi đỗ %d vì vẫn còn các cổng liên kết", id)
	}
	return s.facilityRepo.Delete(ctx, id)
}

// --- Gate ---

func (s *ParkingService) CreateGate(ctx context.Context, dto domain.GateDTO) (*domain.Gate, error) {
	if !domain.IsValidGateDirection(dto.Direction) {
		return nil, fmt.Errorf("hướng cổng không hợp lệ: %s", dto.Direction)
	}
	_, err := s.facilityRepo.FindByID(ctx, dto.FacilityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: bãi đỗ xe với ID %d không tồn tại", repository.ErrNotFound, dto.FacilityID)
		}
		return nil, fmt.Errorf("lỗi khi kiểm tra bãi đỗ xe: %w", err)
	}
	gate := &domain.Gate{
		FacilityID:     dto.FacilityID,
		Name:           dto.Name,
		Direction:      dto.Direction,
		Esp32ThingName: dto.Esp32ThingName,
	}
	return s.gateRepo.Create(ctx, gate)
}

func (s *ParkingService) GetGateByID(ctx context.Context, id int) (*domain.Gate, error) {
	return s.gateRepo.FindByID(ctx, id)
}

func (s *ParkingService) GetGatesByFacilityID(ctx context.Context, facilityID int) ([]domain.Gate, error) {
	return s.gateRepo.FindByFacilityID(ctx, facilityID)
}

// UpdateGate chỉ cho phép đổi tên và thiết bị. Direction là bất biến:
// đổi hướng một cổng đang hoạt động sẽ làm sai lệch việc suy ra vào/ra
// của các lượt sau đó.
func (s *ParkingService) UpdateGate(ctx context.Context, id int, dto domain.GateUpdateDTO) (*domain.Gate, error) {
	gate, err := s.gateRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dto.Name != "" {
		gate.Name = dto.Name
	}
	if dto.Esp32ThingName != "" {
		gate.Esp32ThingName = dto.Esp32ThingName
	}
	return s.gateRepo.Update(ctx, gate)
}

func (s *ParkingService) DeleteGate(ctx context.Context, id int) error {
	return s.gateRepo.Delete(ctx, id)
}

// --- Vehicle ---

func (s *ParkingService) RegisterVehicle(ctx context.Context, dto domain.VehicleDTO) (*domain.Vehicle, error) {
	if !domain.IsValidVehicleClass(dto.Class) {
		return nil, fmt.Errorf("loại xe không hợp lệ: %s", dto.Class)
	}
	vehicle := &domain.Vehicle{
		Plate:      dto.Plate,
		Class:      dto.Class,
		OwnerName:  dto.OwnerName,
		OwnerPhone: dto.OwnerPhone,
	}
	return s.vehicleRepo.Create(ctx, vehicle)
}

func (s *ParkingService) GetVehicleByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	return s.vehicleRepo.FindByPlate(ctx, plate)
}

func (s *ParkingService) GetAllVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	return s.vehicleRepo.FindAll(ctx)
}

func (s *ParkingService) UpdateVehicle(ctx context.Context, plate string, dto domain.VehicleDTO) (*domain.Vehicle, error) {
	vehicle, err := s.vehicleRepo.FindByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}
	if dto.Class != "" {
		if !domain.IsValidVehicleClass(dto.Class) {
			return nil, fmt.Errorf("loại xe không hợp lệ: %s", dto.Class)
		}
		vehicle.Class = dto.Class
	}
	if dto.OwnerName != "" {
		vehicle.OwnerName = dto.OwnerName
	}
	if dto.OwnerPhone != "" {
		vehicle.OwnerPhone = dto.OwnerPhone
	}
	return s.vehicleRepo.Update(ctx, vehicle)
}

func (s *ParkingService) DeleteVehicle(ctx context.Context, plate string) error {
	return s.vehicleRepo.Delete(ctx, plate)
}

// --- Tariff ---

func (s *ParkingService) CreateTariffWindow(ctx context.Context, dto domain.TariffWindowDTO) (*domain.TariffWindow, error) {
	window, err := s.tariffWindowFromDTO(ctx, dto)
	if err != nil {
		return nil, err
	}
	created, err := s.tariffRepo.Create(ctx, window)
	if err != nil {
		return nil, err
	}
	s.warnOverlappingWindows(ctx, created)
	return created, nil
}

func (s *ParkingService) GetTariffWindowByID(ctx context.Context, id int) (*domain.TariffWindow, error) {
	return s.tariffRepo.FindByID(ctx, id)
}

func (s *ParkingService) GetTariffWindowsByFacility(ctx context.Context, facilityID int) ([]domain.TariffWindow, error) {
	return s.tariffRepo.FindByFacility(ctx, facilityID)
}

func (s *ParkingService) UpdateTariffWindow(ctx context.Context, id int, dto domain.TariffWindowDTO) (*domain.TariffWindow, error) {
	existing, err := s.tariffRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	window, err := s.tariffWindowFromDTO(ctx, dto)
	if err != nil {
		return nil, err
	}
	window.ID = existing.ID
	window.FacilityID = existing.FacilityID
	updated, err := s.tariffRepo.Update(ctx, window)
	if err != nil {
		return nil, err
	}
	s.warnOverlappingWindows(ctx, updated)
	return updated, nil
}

func (s *ParkingService) DeleteTariffWindow(ctx context.Context, id int) error {
	return s.tariffRepo.Delete(ctx, id)
}

func (s *ParkingService) tariffWindowFromDTO(ctx context.Context, dto domain.TariffWindowDTO) (*domain.TariffWindow, error) {
	if !domain.IsValidVehicleClass(dto.VehicleClass) {
		return nil, fmt.Errorf("loại xe không hợp lệ: %s", dto.VehicleClass)
	}
	if dto.DayType != domain.DayWeekday && dto.DayType != domain.DayWeekend {
		return nil, fmt.Errorf("loại ngày không hợp lệ: %s", dto.DayType)
	}
	startMinute, err := domain.ParseMinuteOfDay(dto.Start)
	if err != nil {
		return nil, err
	}
	endMinute, err := domain.ParseMinuteOfDay(dto.End)
	if err != nil {
		return nil, err
	}
	price, err := parsePrice(dto.PricePerHour)
	if err != nil {
		return nil, err
	}
	_, err = s.facilityRepo.FindByID(ctx, dto.FacilityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: bãi đỗ xe với ID %d không tồn tại", repository.ErrNotFound, dto.FacilityID)
		}
		return nil, fmt.Errorf("lỗi khi kiểm tra bãi đỗ xe: %w", err)
	}
	return &domain.TariffWindow{
		FacilityID:   dto.FacilityID,
		VehicleClass: dto.VehicleClass,
		DayType:      dto.DayType,
		StartMinute:  startMinute,
		EndMinute:    endMinute,
		PricePerHour: price,
	}, nil
}

// warnOverlappingWindows log cảnh báo khi khung giá mới chồng lấn khung đã
// có cho cùng (bãi, loại xe, loại ngày). Chồng lấn vẫn hợp lệ và được tính
// CỘNG DỒN khi tính phí, nhưng hầu như luôn là cấu hình ngoài ý muốn.
func (s *ParkingService) warnOverlappingWindows(ctx context.Context, w *domain.TariffWindow) {
	windows, err := s.tariffRepo.FindWindows(ctx, w.FacilityID, w.VehicleClass, w.DayType)
	if err != nil {
		log.Printf("Lỗi kiểm tra khung giá chồng lấn: %v", err)
		return
	}
	for _, other := range windows {
		if other.ID == w.ID {
			continue
		}
		if windowsOverlap(w, &other) {
			log.Printf("Cảnh báo: khung giá %d chồng lấn khung giá %d (bãi %d, %s, %s); phần chồng lấn sẽ tính phí cộng dồn",
				w.ID, other.ID, w.FacilityID, w.VehicleClass, w.DayType)
		}
	}
}

func windowsOverlap(a, b *domain.TariffWindow) bool {
	for _, pa := range minuteRanges(a) {
		for _, pb := range minuteRanges(b) {
			if pa[0] < pb[1] && pb[0] < pa[1] {
				return true
			}
		}
	}
	return false
}

// minuteRanges tách một khung giá thành các đoạn [start, end) phút trong
// ngày; khung vắt qua nửa đêm thành hai đoạn.
func minuteRanges(w *domain.TariffWindow) [][2]int {
	if !w.Wraps() {
		return [][2]int{{w.StartMinute, w.EndMinute}}
	}
	return [][2]int{{0, w.EndMinute}, {w.StartMinute, 24 * 60}}
}

// --- Transit & Invoice queries ---

func (s *ParkingService) FindTransits(ctx context.Context, filter domain.TransitFilterDTO) ([]domain.Transit, error) {
	return s.transitRepo.Find(ctx, filter)
}

func (s *ParkingService) GetInvoiceByID(ctx context.Context, id int) (*domain.Invoice, error) {
	return s.invoiceRepo.FindByID(ctx, id)
}

func (s *ParkingService) FindInvoices(ctx context.Context, filter domain.InvoiceFilterDTO) ([]domain.Invoice, error) {
	return s.invoiceRepo.Find(ctx, filter)
}
