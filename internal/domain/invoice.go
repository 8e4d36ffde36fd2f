package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice: hóa đơn cho một phiên đỗ đã đóng (cặp transit vào + ra).
// Bất biến sau khi tạo; trạng thái thanh toán do hệ thống ngoài theo dõi.
// UncoveredMinutes > 0 nghĩa là một phần phiên đỗ không có khung giá nào
// phủ (lỗ hổng cấu hình biểu phí, phần đó tính 0 đồng chứ không mặc định
// giá khác).
type Invoice struct {
	ID               int             `json:"id"`
	FacilityID       int             `json:"facility_id"`
	Plate            string          `json:"plate"`
	VehicleClass     VehicleClass    `json:"vehicle_class"`
	EntryTime        time.Time       `json:"entry_time"`
	ExitTime         time.Time       `json:"exit_time"`
	Amount           decimal.Decimal `json:"amount"` // đã làm tròn 2 chữ số thập phân
	UncoveredMinutes int64           `json:"uncovered_minutes"`
	CreatedAt        time.Time       `json:"created_at"`
}

type InvoiceFilterDTO struct {
	FacilityID *int    `form:"facilityId"`
	Plate      *string `form:"plate"`
}

// ChargeEstimateDTO: xem trước phí cho một phiên đỗ đang mở.
type ChargeEstimateDTO struct {
	Plate            string       `json:"plate"`
	FacilityID       int          `json:"facility_id"`
	VehicleClass     VehicleClass `json:"vehicle_class"`
	EntryTime        time.Time    `json:"entry_time"`
	At               time.Time    `json:"at"`
	Amount           string       `json:"amount"`
	UncoveredMinutes int64        `json:"uncovered_minutes"`
}
