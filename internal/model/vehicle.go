package model

import "time"

// VehicleType classifies a vehicle.
type VehicleType string

const (
	VehicleCars        VehicleType = "cars"
	VehicleMotorcycles VehicleType = "motorcycles"
	VehicleTrucks      VehicleType = "trucks"
)

// VehicleTypes lists every accepted vehicle type.
var VehicleTypes = []VehicleType{VehicleCars, VehicleMotorcycles, VehicleTrucks}

// Vehicle is a purchase record owned by the user who created it.
type Vehicle struct {
	ID           string      `json:"id" db:"id"`
	OwnerID      string      `json:"ownerId" db:"owner_id"`
	VehicleType  VehicleType `json:"vehicleType" db:"vehicle_type"`
	VehicleBrand string      `json:"vehicleBrand" db:"vehicle_brand"`
	BrandName    string      `json:"brandName" db:"brand_name"`
	VehicleModel string      `json:"vehicleModel" db:"vehicle_model"`
	ModelName    string      `json:"modelName" db:"model_name"`
	YearCode     string      `json:"yearCode,omitempty" db:"year_code"`
	Quantity     int         `json:"quantity" db:"quantity"`
	PurchaseDate string      `json:"purchaseDate" db:"purchase_date"`
	BuyerName    string      `json:"buyerName" db:"buyer_name"`
	PhoneNumber  string      `json:"phoneNumber" db:"phone_number"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`
}

// VehicleInput is the payload for creating a vehicle.
type VehicleInput struct {
	VehicleType  VehicleType `json:"vehicleType" validate:"omitempty,oneof=cars motorcycles trucks"`
	VehicleBrand string      `json:"vehicleBrand" validate:"required,max=50"`
	BrandName    string      `json:"brandName" validate:"required,max=100"`
	VehicleModel string      `json:"vehicleModel" validate:"required,max=50"`
	ModelName    string      `json:"modelName" validate:"required,max=100"`
	YearCode     string      `json:"yearCode,omitempty" validate:"omitempty,max=20"`
	Quantity     int         `json:"quantity" validate:"omitempty,min=1"`
	PurchaseDate string      `json:"purchaseDate" validate:"required,datetime=2006-01-02"`
	BuyerName    string      `json:"buyerName" validate:"required,min=2,max=100"`
	PhoneNumber  string      `json:"phoneNumber" validate:"required,e164"`
}

// VehicleUpdate is a partial change to a vehicle. Nil fields are left untouched.
type VehicleUpdate struct {
	VehicleType  *VehicleType `json:"vehicleType,omitempty" validate:"omitnil,oneof=cars motorcycles trucks"`
	VehicleBrand *string      `json:"vehicleBrand,omitempty" validate:"omitnil,min=1,max=50"`
	BrandName    *string      `json:"brandName,omitempty" validate:"omitnil,min=1,max=100"`
	VehicleModel *string      `json:"vehicleModel,omitempty" validate:"omitnil,min=1,max=50"`
	ModelName    *string      `json:"modelName,omitempty" validate:"omitnil,min=1,max=100"`
	YearCode     *string      `json:"yearCode,omitempty" validate:"omitnil,max=20"`
	Quantity     *int         `json:"quantity,omitempty" validate:"omitnil,min=1"`
	PurchaseDate *string      `json:"purchaseDate,omitempty" validate:"omitnil,datetime=2006-01-02"`
	BuyerName    *string      `json:"buyerName,omitempty" validate:"omitnil,min=2,max=100"`
	PhoneNumber  *string      `json:"phoneNumber,omitempty" validate:"omitnil,e164"`
}

// VehicleStatistics summarises the whole catalogue.
type VehicleStatistics struct {
	TotalVehicles  int64        `json:"totalVehicles"`
	VehiclesByType []TypeCount  `json:"vehiclesByType"`
	TopBrands      []BrandCount `json:"topBrands"`
}

// TypeCount is the number of vehicles of one type.
type TypeCount struct {
	Type  VehicleType `json:"type" db:"vehicle_type"`
	Count int64       `json:"count" db:"total"`
}

// BrandCount is the number of vehicles of one brand.
type BrandCount struct {
	Brand string `json:"brand" db:"brand_name"`
	Count int64  `json:"count" db:"total"`
}

// Brand is a brand present in the catalogue with the models recorded for it.
type Brand struct {
	Code   string       `json:"code"`
	Name   string       `json:"name"`
	Models []BrandModel `json:"models"`
}

// BrandModel is one model of a Brand.
type BrandModel struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
