package repository

import (
	"context"
	"errors"
	"time"

	"parking_facility/internal/domain"
)

// Lỗi not-found tách riêng khỏi lỗi từ chối nghiệp vụ (engine) để handler
// map được "resource missing" vs "business rule violated".
var ErrNotFound = errors.New("không tìm thấy bản ghi")
var ErrDuplicateEntry = errors.New("bản ghi đã tồn tại")
var ErrNoOpenStay = errors.New("không tìm thấy phiên đỗ đang mở cho xe này")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
}

type FacilityRepository interface {
	// Create tạo bãi và seed các dòng sức chứa: remaining = total cho từng
	// loại xe.
	Create(ctx context.Context, facility *domain.Facility, capacity map[domain.VehicleClass]int) (*domain.Facility, error)
	FindByID(ctx context.Context, id int) (*domain.Facility, error)
	FindAll(ctx context.Context) ([]domain.Facility, error)
	Update(ctx context.Context, facility *domain.Facility) (*domain.Facility, error)
	Delete(ctx context.Context, id int) error
	// GetCapacity thỏa interface engine.CapacityStore.
	GetCapacity(ctx context.Context, facilityID int) ([]domain.CapacityInfo, error)
}

type GateRepository interface {
	Create(ctx context.Context, gate *domain.Gate) (*domain.Gate, error)
	FindByID(ctx context.Context, id int) (*domain.Gate, error)
	FindByFacilityID(ctx context.Context, facilityID int) ([]domain.Gate, error)
	// Update không bao giờ đổi direction: hướng cổng là bất biến sau khi tạo.
	Update(ctx context.Context, gate *domain.Gate) (*domain.Gate, error)
	Delete(ctx context.Context, id int) error
}

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error)
	FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error)
	FindAll(ctx context.Context) ([]domain.Vehicle, error)
	Update(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error)
	Delete(ctx context.Context, plate string) error
}

type TransitRepository interface {
	// CreateWithCapacityDelta ghi transit VÀ cập nhật counter remaining
	// của (facility, class) trong CÙNG một transaction, all-or-nothing.
	// Delta -1 chỉ được áp khi remaining > 0; +1 được clamp không vượt total.
	CreateWithCapacityDelta(ctx context.Context, transit *domain.Transit, class domain.VehicleClass, delta int) (*domain.Transit, error)
	FindByID(ctx context.Context, id int) (*domain.Transit, error)
	// FindLastByPlate: transit mới nhất của xe trên MỌI bãi (truy vấn theo
	// index plate + timestamp, không scan cả lịch sử). ErrNotFound nếu xe
	// chưa từng di chuyển.
	FindLastByPlate(ctx context.Context, plate string) (*domain.Transit, error)
	// FindByFacilityAndRange: các transit của một bãi trong [from, to],
	// sắp theo timestamp tăng dần; class khác nil thì lọc theo loại xe
	// (join với bảng vehicles).
	FindByFacilityAndRange(ctx context.Context, facilityID int, class *domain.VehicleClass, from, to time.Time) ([]domain.Transit, error)
	Find(ctx context.Context, filter domain.TransitFilterDTO) ([]domain.Transit, error)
}

type TariffRepository interface {
	Create(ctx context.Context, window *domain.TariffWindow) (*domain.TariffWindow, error)
	FindByID(ctx context.Context, id int) (*domain.TariffWindow, error)
	FindByFacility(ctx context.Context, facilityID int) ([]domain.TariffWindow, error)
	// FindWindows khớp chữ ký engine.TariffLookup.
	FindWindows(ctx context.Context, facilityID int, class domain.VehicleClass, dayType domain.DayType) ([]domain.TariffWindow, error)
	Update(ctx context.Context, window *domain.TariffWindow) (*domain.TariffWindow, error)
	Delete(ctx context.Context, id int) error
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error)
	FindByID(ctx context.Context, id int) (*domain.Invoice, error)
	Find(ctx context.Context, filter domain.InvoiceFilterDTO) ([]domain.Invoice, error)
}

type DeviceEventsLogRepository interface {
	Create(ctx context.Context, event *domain.DeviceEventLog) error
	CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
