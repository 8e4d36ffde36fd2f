package engine

import (
	"fmt"
	"sort"
	"time"

	"parking_facility/internal/domain"
)

// BucketHours là độ rộng một bucket thống kê theo giờ trong ngày.
const BucketHours = 2

// BucketCount: số bucket trong một ngày ("00-02" ... "22-00").
const BucketCount = 24 / BucketHours

// OccupancyEvent là một sự kiện vào/ra đã lọc sẵn cho aggregator.
type OccupancyEvent struct {
	Timestamp time.Time
	Type      domain.TransitType
}

// BucketAverage: số chỗ trống trung bình của một khung giờ trong ngày.
// Covered = false khi khoảng thống kê không chạm vào bucket này; khi đó
// AverageFree quy ước bằng 0 (được pin bằng test).
type BucketAverage struct {
	Label       string
	AverageFree float64
	Covered     bool
}

// OccupancyReport: kết quả thống kê chỗ trống trung bình theo thời gian.
type OccupancyReport struct {
	AverageFree float64
	Buckets     [BucketCount]BucketAverage
}

// AverageFreeSlots tính số chỗ trống trung bình (trọng số theo THỜI GIAN,
// không theo số sự kiện) trong [rangeStart, rangeEnd), từ chuỗi sự kiện
// vào/ra và tổng sức chứa.
//
// Thuật toán sweep-line: giữa hai sự kiện liên tiếp, occupancy là hằng số,
// nên tích phân free × duration từng đoạn là trung bình đúng về mặt thống
// kê. Mỗi đoạn được cắt tại các mốc bucket 2 giờ (giờ địa phương loc) để
// quy phần đóng góp về đúng khung giờ trong ngày.
//
// Occupancy xuất phát từ 0 tại rangeStart (sự kiện trước rangeStart không
// được đưa vào); counter được clamp vào [0, totalCapacity]. Input không
// cần sắp sẵn: hàm sort lại phòng sự kiện đến lệch thứ tự.
func AverageFreeSlots(events []OccupancyEvent, totalCapacity int, rangeStart, rangeEnd time.Time, loc *time.Location) (*OccupancyReport, error) {
	if !rangeStart.Before(rangeEnd) {
		return nil, fmt.Errorf("khoảng thống kê không hợp lệ: from phải nhỏ hơn to")
	}
	if totalCapacity < 0 {
		return nil, fmt.Errorf("tổng sức chứa không hợp lệ: %d", totalCapacity)
	}
	if loc == nil {
		loc = time.UTC
	}

	filtered := make([]OccupancyEvent, 0, len(events))
	for _, ev := range events {
		if ev.Timestamp.Before(rangeStart) || ev.Timestamp.After(rangeEnd) {
			continue
		}
		filtered = append(filtered, ev)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	var freeSeconds [BucketCount]float64
	var durSeconds [BucketCount]float64

	occupancy := 0
	prev := rangeStart
	accumulate := func(until time.Time) {
		free := totalCapacity - occupancy
		for _, piece := range splitByBucket(span{Start: prev, End: until}, loc) {
			idx := bucketIndex(piece.Start, loc)
			sec := piece.Duration().Seconds()
			freeSeconds[idx] += float64(free) * sec
			durSeconds[idx] += sec
		}
		prev = until
	}

	for _, ev := range filtered {
		accumulate(ev.Timestamp)
		switch ev.Type {
		case domain.TransitIn:
			if occupancy < totalCapacity {
				occupancy++
			}
		case domain.TransitOut:
			if occupancy > 0 {
				occupancy--
			}
		}
	}
	accumulate(rangeEnd)

	report := &OccupancyReport{}
	var totalFree, totalDur float64
	for i := 0; i < BucketCount; i++ {
		report.Buckets[i].Label = bucketLabel(i)
		totalFree += freeSeconds[i]
		totalDur += durSeconds[i]
		if durSeconds[i] > 0 {
			report.Buckets[i].AverageFree = freeSeconds[i] / durSeconds[i]
			report.Buckets[i].Covered = true
		}
	}
	if totalDur > 0 {
		report.AverageFree = totalFree / totalDur
	}
	return report, nil
}

// splitByBucket cắt một khoảng tại mọi mốc bucket (mỗi BucketHours giờ
// chẵn, giờ địa phương). Khoảng nằm gọn trong một bucket giữ nguyên.
func splitByBucket(s span, loc *time.Location) []span {
	if s.Empty() {
		return nil
	}
	var out []span
	cur := s.Start
	for cur.Before(s.End) {
		boundary := nextBucketBoundary(cur, loc)
		end := boundary
		if end.After(s.End) {
			end = s.End
		}
		out = append(out, span{Start: cur, End: end})
		cur = end
	}
	return out
}

func nextBucketBoundary(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	nextHour := (lt.Hour()/BucketHours + 1) * BucketHours
	day := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	if nextHour >= 24 {
		return day.AddDate(0, 0, 1)
	}
	return day.Add(time.Duration(nextHour) * time.Hour)
}

func bucketIndex(t time.Time, loc *time.Location) int {
	return t.In(loc).Hour() / BucketHours
}

// bucketLabel tạo nhãn "HH-HH", bucket cuối trong ngày là "22-00".
func bucketLabel(idx int) string {
	from := idx * BucketHours
	to := (from + BucketHours) % 24
	return fmt.Sprintf("%02d-%02d", from, to)
}
