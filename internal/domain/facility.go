package domain

import "time"

type VehicleClass string

const (
	ClassCar        VehicleClass = "car"
	ClassMotorcycle VehicleClass = "motorcycle"
	ClassTruck      VehicleClass = "truck"
)

// AllVehicleClasses dùng để seed sức chứa khi tạo bãi và validate input.
var AllVehicleClasses = []VehicleClass{ClassCar, ClassMotorcycle, ClassTruck}

func IsValidVehicleClass(c VehicleClass) bool {
	for _, vc := range AllVehicleClasses {
		if c == vc {
			return true
		}
	}
	return false
}

type Facility struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sức chứa theo từng loại xe, không map trực tiếp vào bảng facilities.
	Capacities []CapacityInfo `json:"capacities,omitempty"`
}

// CapacityInfo là một dòng trong bảng facility_capacities.
// Bất biến: 0 <= Remaining <= Total, chỉ được thay đổi qua CapacityLedger.
type CapacityInfo struct {
	VehicleClass VehicleClass `json:"vehicle_class"`
	Total        int          `json:"total"`
	Remaining    int          `json:"remaining"`
}

type FacilityDTO struct {
	Name     string      `json:"name" binding:"required"`
	Address  string      `json:"address"`
	Capacity CapacityDTO `json:"capacity" binding:"required"`
}

// CapacityDTO: sức chứa tối đa theo loại xe. Khi tạo bãi, remaining
// được seed lại bằng total.
type CapacityDTO struct {
	Car        int `json:"car" binding:"min=0"`
	Motorcycle int `json:"motorcycle" binding:"min=0"`
	Truck      int `json:"truck" binding:"min=0"`
}

func (d CapacityDTO) PerClass() map[VehicleClass]int {
	return map[VehicleClass]int{
		ClassCar:        d.Car,
		ClassMotorcycle: d.Motorcycle,
		ClassTruck:      d.Truck,
	}
}
