// Package engine chứa phần lõi thuần tính toán của hệ thống: phân loại
// lượt xe qua cổng, sổ sức chứa, tính phí theo biểu giá và thống kê chỗ
// trống theo thời gian. Mọi I/O (lịch sử transit, biểu giá, persist) do
// các collaborator bên ngoài cung cấp qua interface hẹp.
package engine

import "time"

// span là một khoảng thời gian nửa mở [Start, End). Dùng chung cho
// cả tính phí (cắt theo ngày, giao với khung giờ) và thống kê chỗ trống
// (cắt theo bucket).
type span struct {
	Start time.Time
	End   time.Time
}

func (s span) Empty() bool { return !s.Start.Before(s.End) }

func (s span) Duration() time.Duration { return s.End.Sub(s.Start) }

// intersect trả về phần giao của hai khoảng; khoảng rỗng nếu không giao nhau.
func intersect(a, b span) span {
	out := a
	if b.Start.After(out.Start) {
		out.Start = b.Start
	}
	if b.End.Before(out.End) {
		out.End = b.End
	}
	if out.Empty() {
		return span{Start: out.Start, End: out.Start}
	}
	return out
}

// startOfDay trả về 00:00 của ngày chứa t theo múi giờ loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// splitByLocalDay cắt một khoảng tại các mốc nửa đêm (giờ địa phương),
// trả về các khoảng con liên tiếp đã được clip vào [s.Start, s.End).
func splitByLocalDay(s span, loc *time.Location) []span {
	if s.Empty() {
		return nil
	}
	var out []span
	cur := s.Start
	for cur.Before(s.End) {
		nextMidnight := startOfDay(cur, loc).AddDate(0, 0, 1)
		end := nextMidnight
		if end.After(s.End) {
			end = s.End
		}
		out = append(out, span{Start: cur, End: end})
		cur = end
	}
	return out
}

// minuteOffset trả về thời điểm dayStart + m phút. Dùng time.Add thay vì
// dựng lại time.Date để giữ nguyên ngữ nghĩa "phút kể từ 00:00" của
// khung giờ biểu phí.
func minuteOffset(dayStart time.Time, m int) time.Time {
	return dayStart.Add(time.Duration(m) * time.Minute)
}

// mergedDuration tính tổng độ dài phần hợp (union) của một tập khoảng,
// bỏ qua phần chồng lấn. Các khoảng rỗng được bỏ qua.
func mergedDuration(spans []span) time.Duration {
	var kept []span
	for _, s := range spans {
		if !s.Empty() {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return 0
	}
	// Sắp theo Start rồi gộp dần.
	for i := 0; i < len(kept); i++ {
		for j := i + 1; j < len(kept); j++ {
			if kept[j].Start.Before(kept[i].Start) {
				kept[i], kept[j] = kept[j], kept[i]
			}
		}
	}
	total := time.Duration(0)
	curStart, curEnd := kept[0].Start, kept[0].End
	for _, s := range kept[1:] {
		if s.Start.After(curEnd) {
			total += curEnd.Sub(curStart)
			curStart, curEnd = s.Start, s.End
			continue
		}
		if s.End.After(curEnd) {
			curEnd = s.End
		}
	}
	total += curEnd.Sub(curStart)
	return total
}
