package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking_facility/internal/domain"
)

// fakeCapacityStore mô phỏng bảng facility_capacities với delta có clamp,
// giống hành vi của repository thật.
type fakeCapacityStore struct {
	mu   sync.Mutex
	caps map[domain.VehicleClass]*domain.CapacityInfo
}

func newFakeCapacityStore(total map[domain.VehicleClass]int) *fakeCapacityStore {
	s := &fakeCapacityStore{caps: make(map[domain.VehicleClass]*domain.CapacityInfo)}
	for class, n := range total {
		s.caps[class] = &domain.CapacityInfo{VehicleClass: class, Total: n, Remaining: n}
	}
	return s
}

func (s *fakeCapacityStore) GetCapacity(_ context.Context, _ int) ([]domain.CapacityInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CapacityInfo, 0, len(s.caps))
	for _, c := range s.caps {
		out = append(out, *c)
	}
	return out, nil
}

func (s *fakeCapacityStore) applyDelta(class domain.VehicleClass, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.caps[class]
	c.Remaining += delta
	if c.Remaining < 0 {
		c.Remaining = 0
	}
	if c.Remaining > c.Total {
		c.Remaining = c.Total
	}
}

func TestEnsureCapacity(t *testing.T) {
	store := newFakeCapacityStore(map[domain.VehicleClass]int{domain.ClassCar: 1})
	ledger := NewCapacityLedger(store)
	ctx := context.Background()

	// Còn chỗ: vào được.
	require.NoError(t, ledger.EnsureCapacity(ctx, 1, domain.ClassCar, domain.TransitIn))

	store.applyDelta(domain.ClassCar, -1)

	// Hết chỗ: từ chối lượt vào, lượt ra vẫn qua.
	err := ledger.EnsureCapacity(ctx, 1, domain.ClassCar, domain.TransitIn)
	assert.ErrorIs(t, err, ErrCapacityExhausted)
	assert.NoError(t, ledger.EnsureCapacity(ctx, 1, domain.ClassCar, domain.TransitOut))

	// Loại xe không có cấu hình sức chứa: lỗi logic, không phải từ chối nghiệp vụ.
	err = ledger.EnsureCapacity(ctx, 1, domain.ClassTruck, domain.TransitIn)
	require.Error(t, err)
	assert.False(t, IsRejection(err))
}

func TestDeltaFor(t *testing.T) {
	assert.Equal(t, -1, DeltaFor(domain.TransitIn))
	assert.Equal(t, 1, DeltaFor(domain.TransitOut))
}

// Chạy nhiều goroutine cùng giành chỗ: remaining không bao giờ âm và số
// lượt vào thành công đúng bằng sức chứa.
func TestCapacityLedger_ConcurrentEntries(t *testing.T) {
	const total = 5
	const workers = 50

	store := newFakeCapacityStore(map[domain.VehicleClass]int{domain.ClassCar: total})
	ledger := NewCapacityLedger(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := ledger.Lock(1, domain.ClassCar)
			defer unlock()
			if err := ledger.EnsureCapacity(ctx, 1, domain.ClassCar, domain.TransitIn); err != nil {
				return
			}
			store.applyDelta(domain.ClassCar, DeltaFor(domain.TransitIn))
			mu.Lock()
			accepted++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, total, accepted)
	caps, err := store.GetCapacity(ctx, 1)
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, 0, caps[0].Remaining)
}

// Chuỗi vào/ra ngẫu nhiên xen kẽ: bất biến 0 <= remaining <= total giữ vững.
func TestCapacityLedger_RemainingStaysInBounds(t *testing.T) {
	const total = 3
	store := newFakeCapacityStore(map[domain.VehicleClass]int{domain.ClassMotorcycle: total})
	ledger := NewCapacityLedger(store)
	ctx := context.Background()

	ops := []domain.TransitType{
		domain.TransitIn, domain.TransitIn, domain.TransitOut, domain.TransitIn,
		domain.TransitIn, domain.TransitIn, domain.TransitOut, domain.TransitOut,
		domain.TransitOut, domain.TransitOut,
	}
	for _, op := range ops {
		unlock := ledger.Lock(1, domain.ClassMotorcycle)
		if err := ledger.EnsureCapacity(ctx, 1, domain.ClassMotorcycle, op); err == nil {
			store.applyDelta(domain.ClassMotorcycle, DeltaFor(op))
		}
		unlock()

		caps, err := store.GetCapacity(ctx, 1)
		require.NoError(t, err)
		require.Len(t, caps, 1)
		assert.GreaterOrEqual(t, caps[0].Remaining, 0)
		assert.LessOrEqual(t, caps[0].Remaining, total)
	}
}
