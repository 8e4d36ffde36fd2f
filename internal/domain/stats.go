package domain

// OccupancyReportDTO: thống kê số chỗ trống trung bình (theo thời gian,
// không phải theo số sự kiện) trong một khoảng [from, to].
type OccupancyReportDTO struct {
	FacilityID   int            `json:"facility_id"`
	VehicleClass VehicleClass   `json:"vehicle_class,omitempty"` // rỗng = mọi loại xe
	From         string         `json:"from"`
	To           string         `json:"to"`
	TotalSlots   int            `json:"total_slots"`
	AverageFree  float64        `json:"average_free"`
	Buckets      []BucketResult `json:"buckets"`
}

// BucketResult: trung bình chỗ trống trong một khung giờ cố định trong ngày
// (nhãn dạng "HH-HH", ví dụ "08-10"). Bucket không được phủ bởi khoảng
// thống kê nào có AverageFree = 0 và Covered = false.
type BucketResult struct {
	Label       string  `json:"label"`
	AverageFree float64 `json:"average_free"`
	Covered     bool    `json:"covered"`
}

type OccupancyQueryDTO struct {
	From  string `form:"from" binding:"required"` // RFC3339
	To    string `form:"to" binding:"required"`
	Class string `form:"class"` // tùy chọn: car/motorcycle/truck
}
