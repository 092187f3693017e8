package model

import "time"

// Driver represents a registered vehicle owner, looked up by document ID at the
// validation kiosk.
type Driver struct {
	ID            int64     `gorm:"primaryKey" json:"-"`
	DocumentID    string    `gorm:"uniqueIndex;size:64;not null" json:"docId"`
	FirstName     string    `gorm:"size:64" json:"firstName"`
	MiddleName    string    `gorm:"size:64" json:"middleName"`
	LastName      string    `gorm:"size:64" json:"lastName"`
	PlateNumber   string    `gorm:"index;size:16;not null" json:"plateNumber"`
	ContactNumber string    `gorm:"size:32" json:"contactNumber"`
	UserType      string    `gorm:"size:32" json:"userType"`
	VehicleType   string    `gorm:"size:32" json:"vehicleType"`
	VehicleColor  string    `gorm:"size:32" json:"vehicleColor"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}
