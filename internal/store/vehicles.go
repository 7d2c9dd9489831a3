package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carshowcase/showcase/internal/model"
)

// CreateVehicle inserts a vehicle. ID, CreatedAt and UpdatedAt are populated
// on success.
func (s *Store) CreateVehicle(ctx context.Context, v *model.Vehicle) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate vehicle id: %w", err)
	}
	now := time.Now().UTC()
	v.ID = id.String()
	v.CreatedAt = now
	v.UpdatedAt = now

	const q = `INSERT INTO vehicles
		(id, owner_id, vehicle_type, vehicle_brand, brand_name, vehicle_model, model_name,
		 year_code, quantity, purchase_date, buyer_name, phone_number, created_at, updated_at)
		VALUES
		(:id, :owner_id, :vehicle_type, :vehicle_brand, :brand_name, :vehicle_model, :model_name,
		 :year_code, :quantity, :purchase_date, :buyer_name, :phone_number, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, q, v); err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

// GetVehicle returns a vehicle by ID.
func (s *Store) GetVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	var v model.Vehicle
	if err := s.db.GetContext(ctx, &v, s.q("SELECT * FROM vehicles WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get vehicle: %w", err)
	}
	return &v, nil
}

// ListVehicles returns vehicles newest first. An empty ownerID lists every
// vehicle.
func (s *Store) ListVehicles(ctx context.Context, ownerID string) ([]model.Vehicle, error) {
	vehicles := []model.Vehicle{}
	var err error
	if ownerID == "" {
		err = s.db.SelectContext(ctx, &vehicles,
			"SELECT * FROM vehicles ORDER BY created_at DESC, id DESC")
	} else {
		err = s.db.SelectContext(ctx, &vehicles,
			s.q("SELECT * FROM vehicles WHERE owner_id = ? ORDER BY created_at DESC, id DESC"), ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return vehicles, nil
}

// UpdateVehicle writes every mutable column of v. UpdatedAt is refreshed.
func (s *Store) UpdateVehicle(ctx context.Context, v *model.Vehicle) error {
	v.UpdatedAt = time.Now().UTC()

	const q = `UPDATE vehicles SET
		vehicle_type = :vehicle_type,
		vehicle_brand = :vehicle_brand,
		brand_name = :brand_name,
		vehicle_model = :vehicle_model,
		model_name = :model_name,
		year_code = :year_code,
		quantity = :quantity,
		purchase_date = :purchase_date,
		buyer_name = :buyer_name,
		phone_number = :phone_number,
		updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, v)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update vehicle rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteVehicle removes a vehicle by ID.
func (s *Store) DeleteVehicle(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.q("DELETE FROM vehicles WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete vehicle rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Catalogue queries
// ---------------------------------------------------------------------------

// VehicleStatistics returns the total vehicle count, the count per type and
// the topN brands by count.
func (s *Store) VehicleStatistics(ctx context.Context, topN int) (*model.VehicleStatistics, error) {
	stats := &model.VehicleStatistics{
		VehiclesByType: []model.TypeCount{},
		TopBrands:      []model.BrandCount{},
	}

	if err := s.db.GetContext(ctx, &stats.TotalVehicles, "SELECT COUNT(*) FROM vehicles"); err != nil {
		return nil, fmt.Errorf("count vehicles: %w", err)
	}

	if err := s.db.SelectContext(ctx, &stats.VehiclesByType,
		`SELECT vehicle_type, COUNT(id) AS total FROM vehicles
		 GROUP BY vehicle_type ORDER BY vehicle_type`); err != nil {
		return nil, fmt.Errorf("count vehicles by type: %w", err)
	}

	if err := s.db.SelectContext(ctx, &stats.TopBrands, s.q(
		`SELECT brand_name, COUNT(id) AS total FROM vehicles
		 GROUP BY brand_name ORDER BY total DESC, brand_name LIMIT ?`), topN); err != nil {
		return nil, fmt.Errorf("top brands: %w", err)
	}
	return stats, nil
}

type brandModelRow struct {
	VehicleBrand string `db:"vehicle_brand"`
	BrandName    string `db:"brand_name"`
	VehicleModel string `db:"vehicle_model"`
	ModelName    string `db:"model_name"`
}

// VehicleBrands returns the brands in the catalogue with their models, sorted
// by name. An empty vehicleType includes every type.
func (s *Store) VehicleBrands(ctx context.Context, vehicleType model.VehicleType) ([]model.Brand, error) {
	var rows []brandModelRow
	var err error
	if vehicleType == "" {
		err = s.db.SelectContext(ctx, &rows,
			`SELECT DISTINCT vehicle_brand, brand_name, vehicle_model, model_name FROM vehicles
			 ORDER BY brand_name, vehicle_brand, model_name, vehicle_model`)
	} else {
		err = s.db.SelectContext(ctx, &rows, s.q(
			`SELECT DISTINCT vehicle_brand, brand_name, vehicle_model, model_name FROM vehicles
			 WHERE vehicle_type = ?
			 ORDER BY brand_name, vehicle_brand, model_name, vehicle_model`), vehicleType)
	}
	if err != nil {
		return nil, fmt.Errorf("list vehicle brands: %w", err)
	}

	brands := []model.Brand{}
	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.VehicleBrand]
		if !ok {
			i = len(brands)
			index[r.VehicleBrand] = i
			brands = append(brands, model.Brand{Code: r.VehicleBrand, Name: r.BrandName, Models: []model.BrandModel{}})
		}
		brands[i].Models = append(brands[i].Models, model.BrandModel{Code: r.VehicleModel, Name: r.ModelName})
	}
	return brands, nil
}
