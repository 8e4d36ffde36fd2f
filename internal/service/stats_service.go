package service

import (
	"context"
	"fmt"
	"time"

	"parking_facility/internal/domain"
	"parking_facility/internal/engine"
	"parking_facility/internal/repository"
)

// StatsService trả lời các truy vấn thống kê occupancy từ lịch sử transit.
// Đọc thuần, không giữ trạng thái: mỗi truy vấn dựng lại chuỗi sự kiện
// trong khoảng được hỏi.
type StatsService struct {
	facilityRepo repository.FacilityRepository
	transitRepo  repository.TransitRepository
	loc          *time.Location
}

func NewStatsService(facilityRepo repository.FacilityRepository, transitRepo repository.TransitRepository, loc *time.Location) *StatsService {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsService{
		facilityRepo: facilityRepo,
		transitRepo:  transitRepo,
		loc:          loc,
	}
}

// AverageFreeSlots tính số chỗ trống trung bình (trọng số theo thời gian)
// của một bãi trong [from, to], kèm phân rã theo khung 2 giờ trong ngày.
// query.Class rỗng thì gộp mọi loại xe (tổng sức chứa = tổng các loại).
func (s *StatsService) AverageFreeSlots(ctx context.Context, facilityID int, query domain.OccupancyQueryDTO) (*domain.OccupancyReportDTO, error) {
	from, err := time.Parse(time.RFC3339, query.From)
	if err != nil {
		return nil, fmt.Errorf("tham số from không hợp lệ '%s': %w", query.From, err)
	}
	to, err := time.Parse(time.RFC3339, query.To)
	if err != nil {
		return nil, fmt.Errorf("tham số to không hợp lệ '%s': %w", query.To, err)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("khoảng thống kê không hợp lệ: from phải nhỏ hơn to")
	}

	var class *domain.VehicleClass
	if query.Class != "" {
		c := domain.VehicleClass(query.Class)
		if !domain.IsValidVehicleClass(c) {
			return nil, fmt.Errorf("loại xe không hợp lệ: %s", query.Class)
		}
		class = &c
	}

	caps, err := s.facilityRepo.GetCapacity(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	totalSlots := 0
	for _, c := range caps {
		if class == nil || c.VehicleClass == *class {
			totalSlots += c.Total
		}
	}

	transits, err := s.transitRepo.FindByFacilityAndRange(ctx, facilityID, class, from, to)
	if err != nil {
		return nil, err
	}
	events := make([]engine.OccupancyEvent, 0, len(transits))
	for _, t := range transits {
		events = append(events, engine.OccupancyEvent{Timestamp: t.Timestamp, Type: t.Type})
	}

	report, err := engine.AverageFreeSlots(events, totalSlots, from, to, s.loc)
	if err != nil {
		return nil, err
	}

	dto := &domain.OccupancyReportDTO{
		FacilityID:  facilityID,
		From:        from.UTC().Format(time.RFC3339),
		To:          to.UTC().Format(time.RFC3339),
		TotalSlots:  totalSlots,
		AverageFree: report.AverageFree,
		Buckets:     make([]domain.BucketResult, 0, len(report.Buckets)),
	}
	if class != nil {
		dto.VehicleClass = *class
	}
	for _, b := range report.Buckets {
		dto.Buckets = append(dto.Buckets, domain.BucketResult{
			Label:       b.Label,
			AverageFree: b.AverageFree,
			Covered:     b.Covered,
		})
	}
	return dto, nil
}
