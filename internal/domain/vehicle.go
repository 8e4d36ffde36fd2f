package domain

import "time"

// Vehicle: định danh theo biển số. Core chỉ đọc, không sửa.
type Vehicle struct {
	Plate      string       `json:"plate"`
	Class      VehicleClass `json:"vehicle_class"`
	OwnerName  string       `json:"owner_name,omitempty"`
	OwnerPhone string       `json:"owner_phone,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

type VehicleDTO struct {
	Plate      string       `json:"plate" binding:"required,min=4,max=16"`
	Class      VehicleClass `json:"vehicle_class" binding:"required"`
	OwnerName  string       `json:"owner_name"`
	OwnerPhone string       `json:"owner_phone"`
}
