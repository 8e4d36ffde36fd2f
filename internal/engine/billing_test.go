package engine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking_facility/internal/domain"
)

// lookupFromWindows trả về TariffLookup tĩnh lọc theo loại ngày,
// thay cho TariffRepository trong test.
func lookupFromWindows(windows ...domain.TariffWindow) TariffLookup {
	return func(_ context.Context, facilityID int, class domain.VehicleClass, dayType domain.DayType) ([]domain.TariffWindow, error) {
		var out []domain.TariffWindow
		for _, w := range windows {
			if w.FacilityID == facilityID && w.VehicleClass == class && w.DayType == dayType {
				out = append(out, w)
			}
		}
		return out, nil
	}
}

func window(dayType domain.DayType, startMin, endMin int, price string) domain.TariffWindow {
	return domain.TariffWindow{
		FacilityID:   1,
		VehicleClass: domain.ClassCar,
		DayType:      dayType,
		StartMinute:  startMin,
		EndMinute:    endMin,
		PricePerHour: decimal.RequireFromString(price),
	}
}

func carStay(entry, exit time.Time) BillingContext {
	return BillingContext{FacilityID: 1, Plate: "51A-123.45", VehicleClass: domain.ClassCar, EntryTime: entry, ExitTime: exit}
}

// 2024-03-12 là thứ ba, 2024-03-15 thứ sáu, 2024-03-16 thứ bảy.
func day(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestComputeCharge_SimpleWindow(t *testing.T) {
	// 08:00-20:00 giá 2.50/giờ, đỗ 09:00-11:00 cùng ngày: 5.00.
	calc := NewBillingCalculator(lookupFromWindows(window(domain.DayWeekday, 8*60, 20*60, "2.50")), time.UTC)

	charge, err := calc.ComputeCharge(context.Background(),
		carStay(day(2024, 3, 12, 9, 0), day(2024, 3, 12, 11, 0)))
	require.NoError(t, err)
	assert.Equal(t, "5.00", charge.Amount.StringFixed(2))
	assert.EqualValues(t, 0, charge.UncoveredMinutes)
}

func TestComputeCharge_WrappingWindowAcrossMidnight(t *testing.T) {
	// Khung 20:00-08:00 (vắt qua nửa đêm) giá 1.00/giờ, đỗ 23:00-01:00:
	// hai đoạn 1 giờ, tổng 2.00.
	calc := NewBillingCalculator(lookupFromWindows(window(domain.DayWeekday, 20*60, 8*60, "1.00")), time.UTC)

	charge, err := calc.ComputeCharge(context.Background(),
		carStay(day(2024, 3, 12, 23, 0), day(2024, 3, 13, 1, 0)))
	require.NoError(t, err)
	assert.Equal(t, "2.00", charge.Amount.StringFixed(2))
	assert.EqualValues(t, 0, charge.UncoveredMinutes)
}

func TestComputeCharge_AdditiveAcrossSplit(t *testing.T) {
	// Tính phí [t0,t2) phải bằng [t0,t1) cộng [t1,t2) với mọi điểm cắt.
	calc := NewBillingCalculator(lookupFromWindows(
		window(domain.DayWeekday, 6*60, 22*60, "2.50"),
		window(domain.DayWeekday, 20*60, 8*60, "1.20"),
		window(domain.DayWeekend, 0, 0, "3.00"), // cả ngày cuối tuần
	), time.UTC)

	t0 := day(2024, 3, 15, 7, 30)  // thứ sáu
	t2 := day(2024, 3, 16, 10, 15) // thứ bảy
	cuts := []time.Time{
		day(2024, 3, 15, 12, 0),
		day(2024, 3, 15, 23, 59),
		day(2024, 3, 16, 0, 0),
		day(2024, 3, 16, 3, 45),
	}

	whole, err := calc.ComputeCharge(context.Background(), carStay(t0, t2))
	require.NoError(t, err)

	for _, t1 := range cuts {
		left, err := calc.ComputeCharge(context.Background(), carStay(t0, t1))
		require.NoError(t, err)
		right, err := calc.ComputeCharge(context.Background(), carStay(t1, t2))
		require.NoError(t, err)
		sum := left.Amount.Add(right.Amount)
		assert.Truef(t, whole.Amount.Equal(sum),
			"cắt tại %v: %s + %s != %s", t1, left.Amount, right.Amount, whole.Amount)
	}
}

func TestComputeCharge_DayTypeFromIntervalStart(t *testing.T) {
	// Chỉ có khung weekday; đoạn thứ bảy tra biểu weekend (trống) nên
	// không tính tiền và bị báo là không được phủ.
	calc := NewBillingCalculator(lookupFromWindows(window(domain.DayWeekday, 0, 0, "1.00")), time.UTC)

	charge, err := calc.ComputeCharge(context.Background(),
		carStay(day(2024, 3, 15, 23, 0), day(2024, 3, 16, 1, 0)))
	require.NoError(t, err)
	assert.Equal(t, "1.00", charge.Amount.StringFixed(2)) // chỉ 1 giờ thứ sáu
	assert.EqualValues(t, 60, charge.UncoveredMinutes)    // 1 giờ thứ bảy không có giá
}

func TestComputeCharge_UncoveredPortionIsZeroCharge(t *testing.T) {
	// Khung 08:00-10:00; đỗ 07:00-11:00: chỉ 2 giờ giữa có giá,
	// 2 giờ hai đầu là lỗ hổng cấu hình.
	calc := NewBillingCalculator(lookupFromWindows(window(domain.DayWeekday, 8*60, 10*60, "2.00")), time.UTC)

	charge, err := calc.ComputeCharge(context.Background(),
		carStay(day(2024, 3, 12, 7, 0), day(2024, 3, 12, 11, 0)))
	require.NoError(t, err)
	assert.Equal(t, "4.00", charge.Amount.StringFixed(2))
	assert.EqualValues(t, 120, charge.UncoveredMinutes)
}

func TestComputeCharge_OverlappingWindowsAreAdditive(t *testing.T) {
	// Hai khung chồng lấn cùng phủ 09:00-10:00: engine cộng dồn cả hai.
	calc := NewBillingCalculator(lookupFromWindows(
		window(domain.DayWeekday, 8*60, 10*60, "1.00"),
		window(domain.DayWeekday, 9*60, 12*60, "2.00"),
	), time.UTC)

	charge, err := calc.ComputeCharge(context.Background(),
		carStay(day(2024, 3, 12, 9, 0), day(2024, 3, 12, 10, 0)))
	require.NoError(t, err)
	assert.Equal(t, "3.00", charge.Amount.StringFixed(2))
	assert.EqualValues(t, 0, charge.UncoveredMinutes)
}

func TestComputeCharge_RoundHalfUpOnce(t *testing.T) {
	// 30 phút với giá 1.01/giờ = 0.505, làm tròn half-up thành 0.51.
	calc := NewBillingCalculator(lookupFromWindows(window(domain.DayWeekday, 0, 0, "1.01")), time.UTC)

	charge, err := calc.ComputeCharge(context.Background(),
		carStay(day(2024, 3, 12, 9, 0), day(2024, 3, 12, 9, 30)))
	require.NoError(t, err)
	assert.Equal(t, "0.51", charge.Amount.StringFixed(2))
}

func TestComputeCharge_InvalidInterval(t *testing.T) {
	calc := NewBillingCalculator(lookupFromWindows(), time.UTC)
	ts := day(2024, 3, 12, 9, 0)

	_, err := calc.ComputeCharge(context.Background(), carStay(ts, ts))
	assert.ErrorIs(t, err, ErrInvalidStayInterval)

	_, err = calc.ComputeCharge(context.Background(), carStay(ts.Add(time.Hour), ts))
	assert.ErrorIs(t, err, ErrInvalidStayInterval)
}

func TestComputeCharge_MultiDayStay(t *testing.T) {
	// Đỗ trọn 2 ngày thứ ba + thứ tư với khung cả ngày 1.00/giờ: 48.00.
	calc := NewBillingCalculator(lookupFromWindows(window(domain.DayWeekday, 0, 0, "1.00")), time.UTC)

	charge, err := calc.ComputeCharge(context.Background(),
		carStay(day(2024, 3, 12, 0, 0), day(2024, 3, 14, 0, 0)))
	require.NoError(t, err)
	assert.Equal(t, "48.00", charge.Amount.StringFixed(2))
	assert.EqualValues(t, 0, charge.UncoveredMinutes)
}

func TestComputeCharge_LocalTimezoneDaySplit(t *testing.T) {
	// Mốc nửa đêm tính theo giờ địa phương: 17:30-18:30 UTC ngày 12/03
	// là 00:30-01:30 ngày 13/03 giờ ICT, nằm gọn trong khung 00:00-08:00.
	ict := time.FixedZone("ICT", 7*3600)
	calc := NewBillingCalculator(lookupFromWindows(window(domain.DayWeekday, 0, 8*60, "2.00")), ict)

	charge, err := calc.ComputeCharge(context.Background(),
		carStay(day(2024, 3, 12, 17, 30), day(2024, 3, 12, 18, 30)))
	require.NoError(t, err)
	assert.Equal(t, "2.00", charge.Amount.StringFixed(2))
	assert.EqualValues(t, 0, charge.UncoveredMinutes)
}
