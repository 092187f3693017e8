package model

import "time"

// VehicleIn is an active occupancy record (hot table). The unique plate index
// is the hard backstop against double admission of the same vehicle.
type VehicleIn struct {
	TransactionID string    `gorm:"primaryKey;size:64" json:"transactionId"`
	PlateNumber   string    `gorm:"uniqueIndex;size:16;not null" json:"plateNumber"`
	VehicleOwner  string    `gorm:"size:192" json:"vehicleOwner"`
	ContactNumber string    `gorm:"size:32" json:"contactNumber"`
	UserType      string    `gorm:"size:32" json:"userType"`
	VehicleType   string    `gorm:"size:32" json:"vehicleType"`
	VehicleClass  string    `gorm:"index;size:16" json:"vehicleClass"`
	VehicleColor  string    `gorm:"size:32" json:"vehicleColor"`
	EntryDate     string    `gorm:"index;size:10;not null" json:"date"`
	TimeIn        string    `gorm:"size:16;not null" json:"timeIn"`
	CreatedAt     time.Time `json:"-"`
}

// TableName matches the vehiclesIn collection name the reporting queries use.
func (VehicleIn) TableName() string { return "vehicles_in" }

// VehicleOut is the immutable archive of a completed occupancy (cold table).
type VehicleOut struct {
	ID            int64     `gorm:"primaryKey" json:"-"`
	TransactionID string    `gorm:"index;size:64;not null" json:"transactionId"`
	PlateNumber   string    `gorm:"index;size:16;not null" json:"plateNumber"`
	VehicleOwner  string    `gorm:"size:192" json:"vehicleOwner"`
	ContactNumber string    `gorm:"size:32" json:"contactNumber"`
	UserType      string    `gorm:"size:32" json:"userType"`
	VehicleType   string    `gorm:"size:32" json:"vehicleType"`
	VehicleClass  string    `gorm:"size:16" json:"vehicleClass"`
	VehicleColor  string    `gorm:"size:32" json:"vehicleColor"`
	EntryDate     string    `gorm:"size:10;not null" json:"date"`
	TimeIn        string    `gorm:"size:16;not null" json:"timeIn"`
	TimeOut       string    `gorm:"size:16;not null" json:"timeOut"`
	CreatedAt     time.Time `json:"-"`
}

func (VehicleOut) TableName() string { return "vehicles_out" }

// ParkingLogEntry is the per-transaction history row, created on admission with
// a null exit time and patched exactly once on release.
type ParkingLogEntry struct {
	TransactionID string    `gorm:"primaryKey;size:64" json:"transactionId"`
	PlateNumber   string    `gorm:"index;size:16;not null" json:"plateNumber"`
	VehicleOwner  string    `gorm:"size:192" json:"vehicleOwner"`
	ContactNumber string    `gorm:"size:32" json:"contactNumber"`
	UserType      string    `gorm:"size:32" json:"userType"`
	VehicleType   string    `gorm:"size:32" json:"vehicleType"`
	VehicleClass  string    `gorm:"size:16" json:"vehicleClass"`
	VehicleColor  string    `gorm:"size:32" json:"vehicleColor"`
	EntryDate     string    `gorm:"index;size:10;not null" json:"date"`
	TimeIn        string    `gorm:"size:16;not null" json:"timeIn"`
	TimeOut       *string   `gorm:"size:16" json:"timeOut"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}
