// Package vehicle defines the fleet vehicle model and the list
// operations the console performs on it: filtering, pagination,
// dashboard aggregation, and report rows.
package vehicle

import "time"

// Vehicle mirrors the backend's vehicle resource. Field names follow the
// backend JSON schema.
type Vehicle struct {
	ID             int64      `json:"id"`
	VehicleNumber  string     `json:"vehicle_number"`
	VehicleLetter  string     `json:"vehicle_letter"`
	Province       string     `json:"province"`
	Category       string     `json:"category"`
	ChassisNumber  string     `json:"chassis_number"`
	Amount         *float64   `json:"amount,omitempty"`
	PaidAmount     *float64   `json:"paid_amount,omitempty"`
	Remaining      *float64   `json:"remaining_amount,omitempty"`
	ImporterName   string     `json:"importer_name,omitempty"`
	ImporterPhone  string     `json:"importer_phone,omitempty"`
	BuyerName      string     `json:"buyer_name,omitempty"`
	BuyerPhone     string     `json:"buyer_phone,omitempty"`
	WorkLocation   string     `json:"work_location,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// RemainingAmount returns the outstanding balance. The backend sends it
// precomputed; when absent it is derived from amount and paid_amount, and
// zero when either is unknown.
func (v Vehicle) RemainingAmount() float64 {
	if v.Remaining != nil {
		return *v.Remaining
	}
	if v.Amount != nil && v.PaidAmount != nil {
		return *v.Amount - *v.PaidAmount
	}
	return 0
}

// Active reports whether the vehicle still has an outstanding balance.
func (v Vehicle) Active() bool { return v.RemainingAmount() > 0 }

// Input is the create payload. Chassis number must be unique backend-side.
type Input struct {
	VehicleNumber string   `json:"vehicle_number"`
	VehicleLetter string   `json:"vehicle_letter"`
	Province      string   `json:"province"`
	Category      string   `json:"category"`
	ChassisNumber string   `json:"chassis_number"`
	Amount        *float64 `json:"amount,omitempty"`
	PaidAmount    *float64 `json:"paid_amount,omitempty"`
	ImporterName  string   `json:"importer_name,omitempty"`
	ImporterPhone string   `json:"importer_phone,omitempty"`
	BuyerName     string   `json:"buyer_name,omitempty"`
	BuyerPhone    string   `json:"buyer_phone,omitempty"`
	WorkLocation  string   `json:"work_location,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// Update is the partial-update payload; nil fields are left untouched.
type Update struct {
	VehicleNumber *string  `json:"vehicle_number,omitempty"`
	VehicleLetter *string  `json:"vehicle_letter,omitempty"`
	Province      *string  `json:"province,omitempty"`
	Category      *string  `json:"category,omitempty"`
	ChassisNumber *string  `json:"chassis_number,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	PaidAmount    *float64 `json:"paid_amount,omitempty"`
	ImporterName  *string  `json:"importer_name,omitempty"`
	ImporterPhone *string  `json:"importer_phone,omitempty"`
	BuyerName     *string  `json:"buyer_name,omitempty"`
	BuyerPhone    *string  `json:"buyer_phone,omitempty"`
	WorkLocation  *string  `json:"work_location,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
}
