package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type DayType string

const (
	DayWeekday DayType = "weekday"
	DayWeekend DayType = "weekend"
)

// DayTypeOf phân loại một ngày: thứ bảy/chủ nhật là weekend, còn lại weekday.
func DayTypeOf(t time.Time) DayType {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return DayWeekend
	default:
		return DayWeekday
	}
}

// TariffWindow: một khung giờ có giá, theo bãi + loại xe + loại ngày.
// StartMinute/EndMinute tính bằng phút kể từ 00:00. EndMinute <= StartMinute
// nghĩa là khung giờ vắt qua nửa đêm (ví dụ 20:00 - 08:00).
// Nhiều window có thể cùng áp cho một (facility, class, dayType); phần
// chồng lấn được tính cộng dồn khi tính phí.
type TariffWindow struct {
	ID           int             `json:"id"`
	FacilityID   int             `json:"facility_id"`
	VehicleClass VehicleClass    `json:"vehicle_class"`
	DayType      DayType         `json:"day_type"`
	StartMinute  int             `json:"start_minute"`
	EndMinute    int             `json:"end_minute"`
	PricePerHour decimal.Decimal `json:"price_per_hour"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Wraps cho biết window có vắt qua nửa đêm không.
func (w TariffWindow) Wraps() bool { return w.EndMinute <= w.StartMinute }

type TariffWindowDTO struct {
	FacilityID   int          `json:"facility_id" binding:"required"`
	VehicleClass VehicleClass `json:"vehicle_class" binding:"required"`
	DayType      DayType      `json:"day_type" binding:"required"`
	Start        string       `json:"start" binding:"required"` // "HH:MM"
	End          string       `json:"end" binding:"required"`   // "HH:MM"
	PricePerHour string       `json:"price_per_hour" binding:"required"`
}

// ParseMinuteOfDay đổi chuỗi "HH:MM" thành số phút kể từ 00:00.
func ParseMinuteOfDay(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("giờ không hợp lệ %q (định dạng HH:MM): %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("giờ không hợp lệ %q (định dạng HH:MM)", s)
	}
	return h*60 + m, nil
}
