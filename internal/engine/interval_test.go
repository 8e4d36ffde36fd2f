package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntersect(t *testing.T) {
	a := span{Start: day(2024, 3, 12, 8, 0), End: day(2024, 3, 12, 12, 0)}
	b := span{Start: day(2024, 3, 12, 10, 0), End: day(2024, 3, 12, 14, 0)}

	got := intersect(a, b)
	assert.Equal(t, day(2024, 3, 12, 10, 0), got.Start)
	assert.Equal(t, day(2024, 3, 12, 12, 0), got.End)

	// Không giao nhau: kết quả rỗng.
	c := span{Start: day(2024, 3, 12, 13, 0), End: day(2024, 3, 12, 14, 0)}
	assert.True(t, intersect(a, c).Empty())
}

func TestSplitByLocalDay(t *testing.T) {
	s := span{Start: day(2024, 3, 12, 22, 0), End: day(2024, 3, 14, 2, 0)}
	parts := splitByLocalDay(s, time.UTC)
	require.Len(t, parts, 3)
	assert.Equal(t, day(2024, 3, 13, 0, 0), parts[0].End)
	assert.Equal(t, day(2024, 3, 14, 0, 0), parts[1].End)
	assert.Equal(t, day(2024, 3, 14, 2, 0), parts[2].End)

	// Khoảng nằm gọn trong một ngày: giữ nguyên.
	oneDay := span{Start: day(2024, 3, 12, 9, 0), End: day(2024, 3, 12, 11, 0)}
	parts = splitByLocalDay(oneDay, time.UTC)
	require.Len(t, parts, 1)
	assert.Equal(t, oneDay, parts[0])
}

func TestSplitByLocalDay_RespectsTimezone(t *testing.T) {
	// 18:00 UTC ngày 12 là 01:00 ICT ngày 13: không có mốc nửa đêm ICT
	// nào trong [18:00, 20:00) UTC.
	ict := time.FixedZone("ICT", 7*3600)
	s := span{Start: day(2024, 3, 12, 18, 0), End: day(2024, 3, 12, 20, 0)}
	parts := splitByLocalDay(s, ict)
	require.Len(t, parts, 1)

	// Còn [15:00, 18:00) UTC thì vắt qua nửa đêm ICT (17:00 UTC).
	s = span{Start: day(2024, 3, 12, 15, 0), End: day(2024, 3, 12, 18, 0)}
	parts = splitByLocalDay(s, ict)
	require.Len(t, parts, 2)
	assert.Equal(t, day(2024, 3, 12, 17, 0), parts[0].End)
}

func TestMergedDuration(t *testing.T) {
	spans := []span{
		{Start: day(2024, 3, 12, 8, 0), End: day(2024, 3, 12, 10, 0)},
		{Start: day(2024, 3, 12, 9, 0), End: day(2024, 3, 12, 11, 0)}, // chồng lấn 1 giờ
		{Start: day(2024, 3, 12, 12, 0), End: day(2024, 3, 12, 13, 0)},
		{Start: day(2024, 3, 12, 9, 0), End: day(2024, 3, 12, 9, 0)}, // rỗng, bỏ qua
	}
	assert.Equal(t, 4*time.Hour, mergedDuration(spans))
	assert.Equal(t, time.Duration(0), mergedDuration(nil))
}
