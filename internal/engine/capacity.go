package engine

import (
	"context"
	"fmt"
	"sync"

	"parking_facility/internal/domain"
)

// CapacityStore là collaborator giữ counter sức chứa (persist ở ngoài core).
type CapacityStore interface {
	GetCapacity(ctx context.Context, facilityID int) ([]domain.CapacityInfo, error)
}

// CapacityLedger tuần tự hóa thao tác check-then-commit trên counter
// remaining theo từng cặp (facility, vehicleClass). Hai lượt vào đồng thời
// trên cùng một cặp không được phép cùng vượt qua EnsureCapacity rồi cùng
// trừ counter; caller phải giữ khóa của cặp đó từ lúc kiểm tra đến lúc
// commit transit + delta trong cùng một transaction.
type CapacityLedger struct {
	store CapacityStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCapacityLedger(store CapacityStore) *CapacityLedger {
	return &CapacityLedger{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

func ledgerKey(facilityID int, class domain.VehicleClass) string {
	return fmt.Sprintf("%d/%s", facilityID, class)
}

// Lock giữ khóa cho một cặp (facility, class) và trả về hàm nhả khóa.
func (l *CapacityLedger) Lock(facilityID int, class domain.VehicleClass) func() {
	l.mu.Lock()
	m, ok := l.locks[ledgerKey(facilityID, class)]
	if !ok {
		m = &sync.Mutex{}
		l.locks[ledgerKey(facilityID, class)] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// EnsureCapacity kiểm tra điều kiện trước khi commit một transit:
// lượt vào cần remaining > 0, lượt ra thì không cần gì. Caller phải đang
// giữ Lock của cặp (facility, class) tương ứng.
//
// Loại xe không có dòng sức chứa là lỗi logic (upstream phải validate),
// không phải từ chối nghiệp vụ.
func (l *CapacityLedger) EnsureCapacity(ctx context.Context, facilityID int, class domain.VehicleClass, result domain.TransitType) error {
	if result != domain.TransitIn {
		return nil
	}
	caps, err := l.store.GetCapacity(ctx, facilityID)
	if err != nil {
		return fmt.Errorf("lỗi đọc sức chứa của bãi %d: %w", facilityID, err)
	}
	for _, c := range caps {
		if c.VehicleClass == class {
			if c.Remaining <= 0 {
				return ErrCapacityExhausted
			}
			return nil
		}
	}
	return fmt.Errorf("bãi %d không có cấu hình sức chứa cho loại xe %q", facilityID, class)
}

// DeltaFor trả về thay đổi trên counter remaining khi commit một transit:
// vào chiếm một chỗ, ra trả lại một chỗ.
func DeltaFor(t domain.TransitType) int {
	if t == domain.TransitIn {
		return -1
	}
	return 1
}
