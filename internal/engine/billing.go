package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"parking_facility/internal/domain"
)

// BillingContext là đầu vào tính phí cho một phiên đỗ đã đóng: cặp
// transit vào/ra của cùng một xe tại cùng một bãi. Không persist.
type BillingContext struct {
	FacilityID   int
	Plate        string
	VehicleClass domain.VehicleClass
	EntryTime    time.Time
	ExitTime     time.Time
}

// Charge là kết quả tính phí. Amount đã được làm tròn 2 chữ số thập phân
// theo kiểu half-up (5 làm tròn lên, xa số 0) — làm tròn MỘT lần duy nhất
// ở cuối, không làm tròn từng khoảng con để tránh trôi số.
// UncoveredMinutes là tổng số phút của phiên đỗ không được khung giá nào
// phủ: phần đó tính 0 đồng, nhưng phải quan sát được để phát hiện biểu
// phí cấu hình thiếu.
type Charge struct {
	Amount           decimal.Decimal
	UncoveredMinutes int64
}

// TariffLookup lấy các khung giá áp cho (bãi, loại xe, loại ngày).
// Persist biểu phí ở ngoài core.
type TariffLookup func(ctx context.Context, facilityID int, class domain.VehicleClass, dayType domain.DayType) ([]domain.TariffWindow, error)

var minutesPerHour = decimal.NewFromInt(60)

// BillingCalculator tính phí một phiên đỗ theo biểu giá theo khung giờ,
// cắt đúng tại các mốc nửa đêm (giờ địa phương loc) và xử lý khung giờ
// vắt qua nửa đêm.
type BillingCalculator struct {
	lookup TariffLookup
	loc    *time.Location
}

func NewBillingCalculator(lookup TariffLookup, loc *time.Location) *BillingCalculator {
	if loc == nil {
		loc = time.UTC
	}
	return &BillingCalculator{lookup: lookup, loc: loc}
}

// ComputeCharge tính tổng phí cho [EntryTime, ExitTime):
//
//  1. Cắt phiên đỗ thành các khoảng con theo từng ngày lịch (mốc nửa đêm
//     giờ địa phương).
//  2. Mỗi khoảng con lấy loại ngày theo NGÀY BẮT ĐẦU của khoảng đó
//     (thứ bảy/chủ nhật là weekend).
//  3. Với mỗi khung giá khớp (bãi, loại xe, loại ngày): tính phần giao
//     giữa khoảng con và lần xuất hiện của khung trong ngày đó, cộng dồn
//     soPhutGiao/60 × giá. Khung vắt qua nửa đêm (end <= start) được tách
//     thành hai mảnh trong ngày: [00:00, end) và [start, 24:00).
//  4. Các khung chồng lấn nhau được tính CỘNG DỒN, engine không khử trùng
//     lặp — biểu phí phải tự tránh tính tiền hai lần ngoài ý muốn (service
//     cảnh báo khi cấu hình khung chồng lấn).
//  5. Phần thời gian không có khung nào phủ tính 0 đồng và được cộng vào
//     UncoveredMinutes.
func (c *BillingCalculator) ComputeCharge(ctx context.Context, bc BillingContext) (*Charge, error) {
	if !bc.EntryTime.Before(bc.ExitTime) {
		return nil, ErrInvalidStayInterval
	}

	stay := span{Start: bc.EntryTime, End: bc.ExitTime}
	total := decimal.Zero
	var uncovered time.Duration

	for _, day := range splitByLocalDay(stay, c.loc) {
		dayStart := startOfDay(day.Start, c.loc)
		dayType := domain.DayTypeOf(day.Start.In(c.loc))

		windows, err := c.lookup(ctx, bc.FacilityID, bc.VehicleClass, dayType)
		if err != nil {
			return nil, fmt.Errorf("lỗi lấy biểu giá (bãi %d, loại xe %s, %s): %w",
				bc.FacilityID, bc.VehicleClass, dayType, err)
		}

		var covered []span
		for _, w := range windows {
			for _, piece := range windowPieces(w, dayStart) {
				overlap := intersect(piece, day)
				if overlap.Empty() {
					continue
				}
				covered = append(covered, overlap)
				minutes := decimal.NewFromFloat(overlap.Duration().Minutes())
				total = total.Add(minutes.Div(minutesPerHour).Mul(w.PricePerHour))
			}
		}
		uncovered += day.Duration() - mergedDuration(covered)
	}

	return &Charge{
		Amount:           total.Round(2),
		UncoveredMinutes: int64(uncovered / time.Minute),
	}, nil
}

// windowPieces trả về các lần xuất hiện của một khung giá trong ngày bắt
// đầu tại dayStart. Khung thường là một mảnh [start, end); khung vắt qua
// nửa đêm là hai mảnh: phần đầu ngày [00:00, end) và phần cuối ngày
// [start, nửa đêm hôm sau).
func windowPieces(w domain.TariffWindow, dayStart time.Time) []span {
	nextDay := dayStart.AddDate(0, 0, 1)
	if !w.Wraps() {
		return []span{{
			Start: minuteOffset(dayStart, w.StartMinute),
			End:   minuteOffset(dayStart, w.EndMinute),
		}}
	}
	return []span{
		{Start: dayStart, End: minuteOffset(dayStart, w.EndMinute)},
		{Start: minuteOffset(dayStart, w.StartMinute), End: nextDay},
	}
}
