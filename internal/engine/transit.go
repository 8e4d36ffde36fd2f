package engine

import (
	"errors"

	"parking_facility/internal/domain"
)

// Các lỗi từ chối nghiệp vụ (validation rejection). Phân biệt với lỗi
// not-found của tầng repository để handler map được 404 vs 409.
var (
	ErrExitWithoutEntry    = errors.New("xe chưa có lượt vào trước đó, không thể ghi nhận lượt ra")
	ErrAlreadyInside       = errors.New("xe đang ở trong bãi, không thể ghi nhận lượt vào lần nữa")
	ErrInsideOtherFacility = errors.New("xe đang ở trong một bãi khác, phải ra khỏi bãi đó trước")
	ErrConsecutiveExit     = errors.New("không thể ghi nhận hai lượt ra liên tiếp")
	ErrCapacityExhausted   = errors.New("bãi đã hết chỗ cho loại xe này")
	ErrInvalidStayInterval = errors.New("thời gian vào phải nhỏ hơn thời gian ra")
)

// IsRejection cho biết err có phải là một từ chối nghiệp vụ không
// (không retry được: thử lại một chuyển trạng thái sai vẫn sẽ sai y hệt).
func IsRejection(err error) bool {
	return errors.Is(err, ErrExitWithoutEntry) ||
		errors.Is(err, ErrAlreadyInside) ||
		errors.Is(err, ErrInsideOtherFacility) ||
		errors.Is(err, ErrConsecutiveExit) ||
		errors.Is(err, ErrCapacityExhausted) ||
		errors.Is(err, ErrInvalidStayInterval)
}

// ResolveTransit quyết định một lượt xe qua cổng là lượt vào hay lượt ra,
// dựa trên lịch sử transit của xe (trên MỌI bãi) và hướng cho phép của cổng.
//
// Trạng thái của xe được suy ra từ transit mới nhất: chưa có transit nào
// nghĩa là đang ở ngoài; transit cuối type "in" nghĩa là đang ở trong bãi
// của transit đó; type "out" nghĩa là đang ở ngoài. Một con trỏ "lượt di
// chuyển cuối" duy nhất là đủ vì một xe không thể ở trong hai bãi cùng lúc.
//
// history không cần sắp sẵn; hàm tự tìm bản ghi mới nhất theo timestamp
// (trùng timestamp thì lấy ID lớn hơn, vì transit là append-only).
func ResolveTransit(history []domain.Transit, gate *domain.Gate) (domain.TransitType, error) {
	last := latestTransit(history)

	if last == nil {
		// Xe chưa từng di chuyển: chỉ có thể là lượt vào.
		if gate.Direction == domain.GateOut {
			return "", ErrExitWithoutEntry
		}
		return domain.TransitIn, nil
	}

	if last.Type == domain.TransitIn {
		// Xe đang ở trong bãi last.FacilityID.
		if last.FacilityID != gate.FacilityID {
			return "", ErrInsideOtherFacility
		}
		if gate.Direction == domain.GateIn {
			return "", ErrAlreadyInside
		}
		return domain.TransitOut, nil
	}

	// last.Type == out: xe đang ở ngoài.
	if gate.Direction == domain.GateOut {
		return "", ErrConsecutiveExit
	}
	return domain.TransitIn, nil
}

func latestTransit(history []domain.Transit) *domain.Transit {
	var last *domain.Transit
	for i := range history {
		t := &history[i]
		if last == nil || t.Timestamp.After(last.Timestamp) ||
			(t.Timestamp.Equal(last.Timestamp) && t.ID > last.ID) {
			last = t
		}
	}
	return last
}
