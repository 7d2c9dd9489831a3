package service

import (
	"context"
	"slices"
	"strings"

	"github.com/carshowcase/showcase/internal/model"
	"github.com/carshowcase/showcase/internal/store"
)

const (
	topBrandCount     = 5
	msgVehicleDeleted = "Vehicle deleted successfully"
)

// VehicleService manages vehicles. Each vehicle is owned by its creator.
type VehicleService struct {
	store *store.Store
}

func NewVehicleService(st *store.Store) *VehicleService {
	return &VehicleService{store: st}
}

// Create records a vehicle owned by actor.
func (s *VehicleService) Create(ctx context.Context, actor *model.Identity, in model.VehicleInput) (*model.Vehicle, error) {
	if err := Authorize(actor, AccessOwner, ""); err != nil {
		return nil, err
	}
	if in.VehicleType == "" {
		in.VehicleType = model.VehicleCars
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	in.BuyerName = strings.TrimSpace(in.BuyerName)

	verr := &ValidationError{}
	validateStruct(&in, verr)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	v := &model.Vehicle{
		OwnerID:      actor.ID,
		VehicleType:  in.VehicleType,
		VehicleBrand: in.VehicleBrand,
		BrandName:    in.BrandName,
		VehicleModel: in.VehicleModel,
		ModelName:    in.ModelName,
		YearCode:     in.YearCode,
		Quantity:     in.Quantity,
		PurchaseDate: in.PurchaseDate,
		BuyerName:    in.BuyerName,
		PhoneNumber:  in.PhoneNumber,
	}
	if err := s.store.CreateVehicle(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// List returns actor's vehicles, or every vehicle for an admin.
func (s *VehicleService) List(ctx context.Context, actor *model.Identity) ([]model.Vehicle, error) {
	if err := Authorize(actor, AccessOwner, ""); err != nil {
		return nil, err
	}
	owner := actor.ID
	if actor.IsAdmin {
		owner = ""
	}
	return s.store.ListVehicles(ctx, owner)
}

// Get returns a vehicle actor owns, or any vehicle for an admin.
func (s *VehicleService) Get(ctx context.Context, actor *model.Identity, id string) (*model.Vehicle, error) {
	if err := Authorize(actor, AccessOwner, ""); err != nil {
		return nil, err
	}
	v, err := s.store.GetVehicle(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if err := Authorize(actor, AccessOwner, v.OwnerID); err != nil {
		return nil, err
	}
	return v, nil
}

// Update applies the non-nil fields of upd to a vehicle actor may modify.
func (s *VehicleService) Update(ctx context.Context, actor *model.Identity, id string, upd model.VehicleUpdate) (*model.Vehicle, error) {
	v, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	validateStruct(&upd, verr)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	if upd.VehicleType != nil {
		v.VehicleType = *upd.VehicleType
	}
	setString(&v.VehicleBrand, upd.VehicleBrand)
	setString(&v.BrandName, upd.BrandName)
	setString(&v.VehicleModel, upd.VehicleModel)
	setString(&v.ModelName, upd.ModelName)
	setString(&v.YearCode, upd.YearCode)
	setString(&v.PurchaseDate, upd.PurchaseDate)
	setString(&v.BuyerName, upd.BuyerName)
	setString(&v.PhoneNumber, upd.PhoneNumber)
	if upd.Quantity != nil {
		v.Quantity = *upd.Quantity
	}

	if err := s.store.UpdateVehicle(ctx, v); err != nil {
		return nil, mapStoreError(err)
	}
	return v, nil
}

// Delete removes a vehicle actor may modify.
func (s *VehicleService) Delete(ctx context.Context, actor *model.Identity, id string) (*model.MessageResponse, error) {
	v, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteVehicle(ctx, v.ID); err != nil {
		return nil, mapStoreError(err)
	}
	return &model.MessageResponse{Message: msgVehicleDeleted}, nil
}

// Statistics summarises the whole catalogue. Public.
func (s *VehicleService) Statistics(ctx context.Context) (*model.VehicleStatistics, error) {
	return s.store.VehicleStatistics(ctx, topBrandCount)
}

// Brands lists brands and their models, optionally for one vehicle type.
// Public.
func (s *VehicleService) Brands(ctx context.Context, vehicleType string) ([]model.Brand, error) {
	vt := model.VehicleType(strings.ToLower(strings.TrimSpace(vehicleType)))
	if vt != "" && !slices.Contains(model.VehicleTypes, vt) {
		verr := &ValidationError{}
		verr.add("type", "must be one of: cars motorcycles trucks")
		return nil, verr
	}
	return s.store.VehicleBrands(ctx, vt)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
