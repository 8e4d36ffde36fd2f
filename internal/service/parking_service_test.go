package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"parking_facility/internal/domain"
	"parking_facility/internal/engine"
	"parking_facility/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- In-memory fakes ---

type fakeFacilityRepo struct {
	mu         sync.Mutex
	facilities map[int]*domain.Facility
	caps       map[int][]domain.CapacityInfo
	nextID     int
}

func newFakeFacilityRepo() *fakeFacilityRepo {
	return &fakeFacilityRepo{
		facilities: make(map[int]*domain.Facility),
		caps:       make(map[int][]domain.CapacityInfo),
		nextID:     1,
	}
}

func (r *fakeFacilityRepo) Create(_ context.Context, f *domain.Facility, capacity map[domain.VehicleClass]int) (*domain.Facility, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.ID = r.nextID
	r.nextID++
	r.facilities[f.ID] = f
	var caps []domain.CapacityInfo
	for _, class := range domain.AllVehicleClasses {
		caps = append(caps, domain.CapacityInfo{VehicleClass: class, Total: capacity[class], Remaining: capacity[class]})
	}
	r.caps[f.ID] = caps
	return f, nil
}

func (r *fakeFacilityRepo) FindByID(_ context.Context, id int) (*domain.Facility, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.facilities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return f, nil
}

func (r *fakeFacilityRepo) FindAll(_ context.Context) ([]domain.Facility, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Facility
	for _, f := range r.facilities {
		out = append(out, *f)
	}
	return out, nil
}

func (r *fakeFacilityRepo) Update(_ context.Context, f *domain.Facility) (*domain.Facility, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.facilities[f.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	r.facilities[f.ID] = f
	return f, nil
}

func (r *fakeFacilityRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.facilities[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.facilities, id)
	delete(r.caps, id)
	return nil
}

func (r *fakeFacilityRepo) GetCapacity(_ context.Context, facilityID int) ([]domain.CapacityInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	caps, ok := r.caps[facilityID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := make([]domain.CapacityInfo, len(caps))
	copy(out, caps)
	return out, nil
}

type fakeGateRepo struct {
	mu     sync.Mutex
	gates  map[int]*domain.Gate
	nextID int
}

func newFakeGateRepo() *fakeGateRepo {
	return &fakeGateRepo{gates: make(map[int]*domain.Gate), nextID: 1}
}

func (r *fakeGateRepo) Create(_ context.Context, g *domain.Gate) (*domain.Gate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g.ID = r.nextID
	r.nextID++
	r.gates[g.ID] = g
	return g, nil
}

func (r *fakeGateRepo) FindByID(_ context.Context, id int) (*domain.Gate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGateRepo) FindByFacilityID(_ context.Context, facilityID int) ([]domain.Gate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Gate
	for _, g := range r.gates {
		if g.FacilityID == facilityID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *fakeGateRepo) Update(_ context.Context, g *domain.Gate) (*domain.Gate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.gates[g.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Direction không bao giờ được ghi đè, như contract của repository.
	g.Direction = existing.Direction
	r.gates[g.ID] = g
	return g, nil
}

func (r *fakeGateRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.gates[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.gates, id)
	return nil
}

type fakeVehicleRepo struct {
	mu       sync.Mutex
	vehicles map[string]*domain.Vehicle
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{vehicles: make(map[string]*domain.Vehicle)}
}

func (r *fakeVehicleRepo) Create(_ context.Context, v *domain.Vehicle) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[v.Plate]; ok {
		return nil, repository.ErrDuplicateEntry
	}
	r.vehicles[v.Plate] = v
	return v, nil
}

func (r *fakeVehicleRepo) FindByPlate(_ context.Context, plate string) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[plate]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *fakeVehicleRepo) FindAll(_ context.Context) ([]domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Vehicle
	for _, v := range r.vehicles {
		out = append(out, *v)
	}
	return out, nil
}

func (r *fakeVehicleRepo) Update(_ context.Context, v *domain.Vehicle) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[v.Plate]; !ok {
		return nil, repository.ErrNotFound
	}
	r.vehicles[v.Plate] = v
	return v, nil
}

func (r *fakeVehicleRepo) Delete(_ context.Context, plate string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[plate]; !ok {
		return repository.ErrNotFound
	}
	delete(r.vehicles, plate)
	return nil
}

type fakeTransitRepo struct {
	mu           sync.Mutex
	transits     []domain.Transit
	nextID       int
	facilityRepo *fakeFacilityRepo
}

func newFakeTransitRepo(facilityRepo *fakeFacilityRepo) *fakeTransitRepo {
	return &fakeTransitRepo{nextID: 1, facilityRepo: facilityRepo}
}

func (r *fakeTransitRepo) CreateWithCapacityDelta(_ context.Context, t *domain.Transit, class domain.VehicleClass, delta int) (*domain.Transit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.facilityRepo.mu.Lock()
	defer r.facilityRepo.mu.Unlock()

	caps := r.facilityRepo.caps[t.FacilityID]
	applied := false
	for i := range caps {
		if caps[i].VehicleClass != class {
			continue
		}
		if delta < 0 {
			if caps[i].Remaining <= 0 {
				return nil, engine.ErrCapacityExhausted
			}
			caps[i].Remaining--
		} else if caps[i].Remaining < caps[i].Total {
			caps[i].Remaining++
		}
		applied = true
		break
	}
	if !applied {
		return nil, repository.ErrNotFound
	}

	t.ID = r.nextID
	r.nextID++
	t.CreatedAt = time.Now().UTC()
	r.transits = append(r.transits, *t)
	cp := *t
	return &cp, nil
}

func (r *fakeTransitRepo) FindByID(_ context.Context, id int) (*domain.Transit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.transits {
		if t.ID == id {
			cp := t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTransitRepo) FindLastByPlate(_ context.Context, plate string) (*domain.Transit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last *domain.Transit
	for i := range r.transits {
		t := &r.transits[i]
		if t.Plate != plate {
			continue
		}
		if last == nil || t.Timestamp.After(last.Timestamp) ||
			(t.Timestamp.Equal(last.Timestamp) && t.ID > last.ID) {
			last = t
		}
	}
	if last == nil {
		return nil, repository.ErrNotFound
	}
	cp := *last
	return &cp, nil
}

func (r *fakeTransitRepo) FindByFacilityAndRange(_ context.Context, facilityID int, class *domain.VehicleClass, from, to time.Time) ([]domain.Transit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transit
	for _, t := range r.transits {
		if t.FacilityID != facilityID || t.Timestamp.Before(from) || t.Timestamp.After(to) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (r *fakeTransitRepo) Find(_ context.Context, filter domain.TransitFilterDTO) ([]domain.Transit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transit
	for _, t := range r.transits {
		if filter.FacilityID != nil && t.FacilityID != *filter.FacilityID {
			continue
		}
		if filter.Plate != nil && t.Plate != *filter.Plate {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

type fakeTariffRepo struct {
	mu      sync.Mutex
	windows []domain.TariffWindow
	nextID  int
}

func newFakeTariffRepo() *fakeTariffRepo {
	return &fakeTariffRepo{nextID: 1}
}

func (r *fakeTariffRepo) Create(_ context.Context, w *domain.TariffWindow) (*domain.TariffWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w.ID = r.nextID
	r.nextID++
	r.windows = append(r.windows, *w)
	return w, nil
}

func (r *fakeTariffRepo) FindByID(_ context.Context, id int) (*domain.TariffWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.windows {
		if w.ID == id {
			cp := w
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTariffRepo) FindByFacility(_ context.Context, facilityID int) ([]domain.TariffWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TariffWindow
	for _, w := range r.windows {
		if w.FacilityID == facilityID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *fakeTariffRepo) FindWindows(_ context.Context, facilityID int, class domain.VehicleClass, dayType domain.DayType) ([]domain.TariffWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TariffWindow
	for _, w := range r.windows {
		if w.FacilityID == facilityID && w.VehicleClass == class && w.DayType == dayType {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *fakeTariffRepo) Update(_ context.Context, w *domain.TariffWindow) (*domain.TariffWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.windows {
		if r.windows[i].ID == w.ID {
			r.windows[i] = *w
			return w, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTariffRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.windows {
		if r.windows[i].ID == id {
			r.windows = append(r.windows[:i], r.windows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	invoices []domain.Invoice
	nextID   int
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{nextID: 1}
}

func (r *fakeInvoiceRepo) Create(_ context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv.ID = r.nextID
	r.nextID++
	inv.CreatedAt = time.Now().UTC()
	r.invoices = append(r.invoices, *inv)
	cp := *inv
	return &cp, nil
}

func (r *fakeInvoiceRepo) FindByID(_ context.Context, id int) (*domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.ID == id {
			cp := inv
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeInvoiceRepo) Find(_ context.Context, filter domain.InvoiceFilterDTO) ([]domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Invoice
	for _, inv := range r.invoices {
		if filter.FacilityID != nil && inv.FacilityID != *filter.FacilityID {
			continue
		}
		if filter.Plate != nil && inv.Plate != *filter.Plate {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

// --- Test fixture ---

type parkingFixture struct {
	svc          *ParkingService
	facilityRepo *fakeFacilityRepo
	transitRepo  *fakeTransitRepo
	invoiceRepo  *fakeInvoiceRepo
	tariffRepo   *fakeTariffRepo

	facility *domain.Facility
	gateIn   *domain.Gate
	gateOut  *domain.Gate
	gateBi   *domain.Gate
}

func newParkingFixture(t *testing.T, carCapacity int) *parkingFixture {
	t.Helper()
	ctx := context.Background()

	facilityRepo := newFakeFacilityRepo()
	gateRepo := newFakeGateRepo()
	vehicleRepo := newFakeVehicleRepo()
	transitRepo := newFakeTransitRepo(facilityRepo)
	tariffRepo := newFakeTariffRepo()
	invoiceRepo := newFakeInvoiceRepo()

	svc := NewParkingService(facilityRepo, gateRepo, vehicleRepo, transitRepo, tariffRepo, invoiceRepo, time.UTC)

	facility, err := svc.CreateFacility(ctx, domain.FacilityDTO{
		Name:     "Bãi trung tâm",
		Capacity: domain.CapacityDTO{Car: carCapacity, Motorcycle: 20, Truck: 2},
	})
	require.NoError(t, err)

	gateIn, err := svc.CreateGate(ctx, domain.GateDTO{FacilityID: facility.ID, Name: "Cổng vào", Direction: domain.GateIn})
	require.NoError(t, err)
	gateOut, err := svc.CreateGate(ctx, domain.GateDTO{FacilityID: facility.ID, Name: "Cổng ra", Direction: domain.GateOut})
	require.NoError(t, err)
	gateBi, err := svc.CreateGate(ctx, domain.GateDTO{FacilityID: facility.ID, Name: "Cổng chung", Direction: domain.GateBidirectional})
	require.NoError(t, err)

	_, err = svc.RegisterVehicle(ctx, domain.VehicleDTO{Plate: "51A-12345", Class: domain.ClassCar})
	require.NoError(t, err)

	// Giá cả ngày: 2.50/giờ cho ô tô, mọi loại ngày.
	for _, dayType := range []domain.DayType{domain.DayWeekday, domain.DayWeekend} {
		_, err = tariffRepo.Create(ctx, &domain.TariffWindow{
			FacilityID:   facility.ID,
			VehicleClass: domain.ClassCar,
			DayType:      dayType,
			StartMinute:  0,
			EndMinute:    1440,
			PricePerHour: decimal.RequireFromString("2.50"),
		})
		require.NoError(t, err)
	}

	return &parkingFixture{
		svc:          svc,
		facilityRepo: facilityRepo,
		transitRepo:  transitRepo,
		invoiceRepo:  invoiceRepo,
		tariffRepo:   tariffRepo,
		facility:     facility,
		gateIn:       gateIn,
		gateOut:      gateOut,
		gateBi:       gateBi,
	}
}

func (f *parkingFixture) remainingCars(t *testing.T) int {
	t.Helper()
	caps, err := f.facilityRepo.GetCapacity(context.Background(), f.facility.ID)
	require.NoError(t, err)
	for _, c := range caps {
		if c.VehicleClass == domain.ClassCar {
			return c.Remaining
		}
	}
	t.Fatalf("không có dòng sức chứa cho ô tô")
	return 0
}

// Thứ hai 2025-01-06, giờ UTC.
func mondayAt(hour int) string {
	return time.Date(2025, 1, 6, hour, 0, 0, 0, time.UTC).Format(time.RFC3339Nano)
}

// --- Tests ---

func TestRecordGateEvent_EntryDecrementsRemaining(t *testing.T) {
	f := newParkingFixture(t, 10)

	result, err := f.svc.RecordGateEvent(context.Background(), domain.GateEventDTO{
		GateID: f.gateIn.ID, Plate: "51A-12345", Timestamp: mondayAt(8),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransitIn, result.Transit.Type)
	assert.Nil(t, result.Invoice)
	assert.True(t, result.Transit.GateEventID.Valid, "server phải sinh correlation id khi thiết bị không gửi")
	assert.Equal(t, 9, f.remainingCars(t))
}

func TestRecordGateEvent_DuplicateEntryRejected(t *testing.T) {
	f := newParkingFixture(t, 10)
	ctx := context.Background()

	_, err := f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateIn.ID, Plate: "51A-12345", Timestamp: mondayAt(8)})
	require.NoError(t, err)

	_, err = f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateIn.ID, Plate: "51A-12345", Timestamp: mondayAt(9)})
	assert.ErrorIs(t, err, engine.ErrAlreadyInside)
	assert.Equal(t, 9, f.remainingCars(t), "lượt bị từ chối không được đụng vào counter")
}

func TestRecordGateEvent_ExitWithoutEntryRejected(t *testing.T) {
	f := newParkingFixture(t, 10)

	_, err := f.svc.RecordGateEvent(context.Background(), domain.GateEventDTO{
		GateID: f.gateOut.ID, Plate: "51A-12345", Timestamp: mondayAt(8),
	})
	assert.ErrorIs(t, err, engine.ErrExitWithoutEntry)
	assert.Equal(t, 10, f.remainingCars(t))
}

func TestRecordGateEvent_ExitClosesStayAndIssuesInvoice(t *testing.T) {
	f := newParkingFixture(t, 10)
	ctx := context.Background()

	_, err := f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateIn.ID, Plate: "51A-12345", Timestamp: mondayAt(8)})
	require.NoError(t, err)

	result, err := f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateOut.ID, Plate: "51A-12345", Timestamp: mondayAt(10)})
	require.NoError(t, err)
	assert.Equal(t, domain.TransitOut, result.Transit.Type)
	require.NotNil(t, result.Invoice, "lượt ra phải phát hành hóa đơn ngay")

	// 2 giờ × 2.50 = 5.00
	assert.Equal(t, "5.00", result.Invoice.Amount.StringFixed(2))
	assert.EqualValues(t, 0, result.Invoice.UncoveredMinutes)
	assert.Equal(t, 10, f.remainingCars(t), "lượt ra trả lại chỗ")
}

func TestRecordGateEvent_BidirectionalGateResolvesFromState(t *testing.T) {
	f := newParkingFixture(t, 10)
	ctx := context.Background()

	first, err := f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateBi.ID, Plate: "51A-12345", Timestamp: mondayAt(8)})
	require.NoError(t, err)
	assert.Equal(t, domain.TransitIn, first.Transit.Type)

	second, err := f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateBi.ID, Plate: "51A-12345", Timestamp: mondayAt(9)})
	require.NoError(t, err)
	assert.Equal(t, domain.TransitOut, second.Transit.Type)
}

func TestRecordGateEvent_CapacityExhausted(t *testing.T) {
	f := newParkingFixture(t, 1)
	ctx := context.Background()

	_, err := f.svc.RegisterVehicle(ctx, domain.VehicleDTO{Plate: "51B-99999", Class: domain.ClassCar})
	require.NoError(t, err)

	_, err = f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateIn.ID, Plate: "51A-12345", Timestamp: mondayAt(8)})
	require.NoError(t, err)

	_, err = f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateIn.ID, Plate: "51B-99999", Timestamp: mondayAt(9)})
	assert.ErrorIs(t, err, engine.ErrCapacityExhausted)

	// Xe đầu ra, chỗ được trả lại, xe thứ hai vào được.
	_, err = f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateOut.ID, Plate: "51A-12345", Timestamp: mondayAt(10)})
	require.NoError(t, err)
	_, err = f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateIn.ID, Plate: "51B-99999", Timestamp: mondayAt(11)})
	assert.NoError(t, err)
}

func TestRecordGateEvent_ExitBeforeEntryRejected(t *testing.T) {
	f := newParkingFixture(t, 10)
	ctx := context.Background()

	_, err := f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateIn.ID, Plate: "51A-12345", Timestamp: mondayAt(8)})
	require.NoError(t, err)

	_, err = f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateOut.ID, Plate: "51A-12345", Timestamp: mondayAt(7)})
	assert.ErrorIs(t, err, engine.ErrInvalidStayInterval)
	assert.Equal(t, 9, f.remainingCars(t), "xe vẫn đang ở trong bãi")
}

func TestRecordGateEvent_UnregisteredVehicle(t *testing.T) {
	f := newParkingFixture(t, 10)

	_, err := f.svc.RecordGateEvent(context.Background(), domain.GateEventDTO{
		GateID: f.gateIn.ID, Plate: "60C-00001", Timestamp: mondayAt(8),
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRecordGateEvent_InsideOtherFacility(t *testing.T) {
	f := newParkingFixture(t, 10)
	ctx := context.Background()

	other, err := f.svc.CreateFacility(ctx, domain.FacilityDTO{
		Name:     "Bãi thứ hai",
		Capacity: domain.CapacityDTO{Car: 5},
	})
	require.NoError(t, err)
	otherGate, err := f.svc.CreateGate(ctx, domain.GateDTO{FacilityID: other.ID, Name: "Cổng vào", Direction: domain.GateIn})
	require.NoError(t, err)

	_, err = f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateIn.ID, Plate: "51A-12345", Timestamp: mondayAt(8)})
	require.NoError(t, err)

	_, err = f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: otherGate.ID, Plate: "51A-12345", Timestamp: mondayAt(9)})
	assert.ErrorIs(t, err, engine.ErrInsideOtherFacility)
}

func TestEstimateCharge_OpenStay(t *testing.T) {
	f := newParkingFixture(t, 10)
	ctx := context.Background()

	_, err := f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateIn.ID, Plate: "51A-12345", Timestamp: mondayAt(8)})
	require.NoError(t, err)

	estimate, err := f.svc.EstimateCharge(ctx, "51A-12345", time.Date(2025, 1, 6, 11, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "7.50", estimate.Amount) // 3 giờ × 2.50
	assert.Equal(t, f.facility.ID, estimate.FacilityID)

	// Xem trước không đóng phiên: vẫn ra được bình thường.
	result, err := f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateOut.ID, Plate: "51A-12345", Timestamp: mondayAt(12)})
	require.NoError(t, err)
	require.NotNil(t, result.Invoice)
	assert.Equal(t, "10.00", result.Invoice.Amount.StringFixed(2))
}

func TestEstimateCharge_NoOpenStay(t *testing.T) {
	f := newParkingFixture(t, 10)
	ctx := context.Background()

	_, err := f.svc.EstimateCharge(ctx, "51A-12345", time.Now().UTC())
	assert.ErrorIs(t, err, repository.ErrNoOpenStay)

	_, err = f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateIn.ID, Plate: "51A-12345", Timestamp: mondayAt(8)})
	require.NoError(t, err)
	_, err = f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateOut.ID, Plate: "51A-12345", Timestamp: mondayAt(9)})
	require.NoError(t, err)

	_, err = f.svc.EstimateCharge(ctx, "51A-12345", time.Now().UTC())
	assert.ErrorIs(t, err, repository.ErrNoOpenStay, "đã ra rồi thì không còn phiên mở")
}

func TestUpdateGate_DirectionImmutable(t *testing.T) {
	f := newParkingFixture(t, 10)

	updated, err := f.svc.UpdateGate(context.Background(), f.gateIn.ID, domain.GateUpdateDTO{Name: "Cổng vào mới"})
	require.NoError(t, err)
	assert.Equal(t, "Cổng vào mới", updated.Name)
	assert.Equal(t, domain.GateIn, updated.Direction)
}

func TestDeleteFacility_RefusedWhileGatesExist(t *testing.T) {
	f := newParkingFixture(t, 10)
	ctx := context.Background()

	err := f.svc.DeleteFacility(ctx, f.facility.ID)
	assert.Error(t, err)

	for _, id := range []int{f.gateIn.ID, f.gateOut.ID, f.gateBi.ID} {
		require.NoError(t, f.svc.DeleteGate(ctx, id))
	}
	assert.NoError(t, f.svc.DeleteFacility(ctx, f.facility.ID))
}

func TestCreateTariffWindow_ValidatesInput(t *testing.T) {
	f := newParkingFixture(t, 10)
	ctx := context.Background()

	_, err := f.svc.CreateTariffWindow(ctx, domain.TariffWindowDTO{
		FacilityID: f.facility.ID, VehicleClass: "plane", DayType: domain.DayWeekday,
		Start: "08:00", End: "18:00", PricePerHour: "2.50",
	})
	assert.Error(t, err)

	_, err = f.svc.CreateTariffWindow(ctx, domain.TariffWindowDTO{
		FacilityID: f.facility.ID, VehicleClass: domain.ClassCar, DayType: domain.DayWeekday,
		Start: "25:00", End: "18:00", PricePerHour: "2.50",
	})
	assert.Error(t, err)

	_, err = f.svc.CreateTariffWindow(ctx, domain.TariffWindowDTO{
		FacilityID: f.facility.ID, VehicleClass: domain.ClassCar, DayType: domain.DayWeekday,
		Start: "08:00", End: "18:00", PricePerHour: "-1",
	})
	assert.Error(t, err)

	created, err := f.svc.CreateTariffWindow(ctx, domain.TariffWindowDTO{
		FacilityID: f.facility.ID, VehicleClass: domain.ClassCar, DayType: domain.DayWeekday,
		Start: "20:00", End: "08:00", PricePerHour: "1.75",
	})
	require.NoError(t, err)
	assert.True(t, created.Wraps())
}

type captureNotifier struct {
	mu            sync.Mutex
	notifications []domain.TransitNotification
}

func (n *captureNotifier) BroadcastTransit(notification domain.TransitNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification)
}

func TestRecordGateEvent_BroadcastsNotifications(t *testing.T) {
	f := newParkingFixture(t, 10)
	notifier := &captureNotifier{}
	f.svc.SetNotifier(notifier)
	ctx := context.Background()

	_, err := f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateIn.ID, Plate: "51A-12345", Timestamp: mondayAt(8)})
	require.NoError(t, err)
	_, err = f.svc.RecordGateEvent(ctx, domain.GateEventDTO{GateID: f.gateIn.ID, Plate: "51A-12345", Timestamp: mondayAt(9)})
	require.Error(t, err)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.notifications, 2)
	assert.Equal(t, "transit_accepted", notifier.notifications[0].EventType)
	assert.Equal(t, "transit_rejected", notifier.notifications[1].EventType)
	assert.NotEmpty(t, notifier.notifications[1].Reason)
}
