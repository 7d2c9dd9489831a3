package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carshowcase/showcase/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, "") // in-memory
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createUser(t *testing.T, s *Store, email string, admin bool) *model.User {
	t.Helper()
	u := &model.User{
		Email:        email,
		PasswordHash: "$2a$04$hash",
		FirstName:    "Test",
		LastName:     "User",
		IsAdmin:      admin,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

func createVehicle(t *testing.T, s *Store, ownerID string, vt model.VehicleType, brand, vmodel string) *model.Vehicle {
	t.Helper()
	v := &model.Vehicle{
		OwnerID:      ownerID,
		VehicleType:  vt,
		VehicleBrand: brand,
		BrandName:    brand + " Motors",
		VehicleModel: vmodel,
		ModelName:    vmodel + " GT",
		Quantity:     1,
		PurchaseDate: "2024-03-01",
		BuyerName:    "Buyer",
		PhoneNumber:  "+15551234567",
	}
	if err := s.CreateVehicle(context.Background(), v); err != nil {
		t.Fatalf("CreateVehicle: %v", err)
	}
	return v
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createUser(t, s, "  Alice@Example.COM ", false)
	if u.ID == "" {
		t.Fatal("expected ID after create")
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want normalized", u.Email)
	}

	got, err := s.GetUserByEmail(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("got ID %q, want %q", got.ID, u.ID)
	}
	if got.PasswordHash != "$2a$04$hash" {
		t.Errorf("password hash not persisted: %q", got.PasswordHash)
	}

	got.FirstName = "Alicia"
	got.IsAdmin = true
	if err := s.UpdateUser(ctx, got); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	reloaded, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if reloaded.FirstName != "Alicia" || !reloaded.IsAdmin {
		t.Errorf("update not persisted: %+v", reloaded)
	}

	n, err := s.CountAdmins(ctx)
	if err != nil {
		t.Fatalf("CountAdmins: %v", err)
	}
	if n != 1 {
		t.Errorf("CountAdmins = %d, want 1", n)
	}

	if _, err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := s.GetUser(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser after delete: err = %v, want ErrNotFound", err)
	}
	if _, err := s.DeleteUser(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteUser: err = %v, want ErrNotFound", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	createUser(t, s, "a@x.com", false)

	dup := &model.User{Email: "A@X.com", PasswordHash: "other"}
	if err := s.CreateUser(context.Background(), dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("CreateUser duplicate: err = %v, want ErrDuplicate", err)
	}

	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("got %d users, want 1", len(users))
	}
}

func TestUpdateUserEmailConflict(t *testing.T) {
	s := newTestStore(t)
	createUser(t, s, "a@x.com", false)
	b := createUser(t, s, "b@x.com", false)

	b.Email = "a@x.com"
	if err := s.UpdateUser(context.Background(), b); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("UpdateUser: err = %v, want ErrDuplicate", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetUser(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser: err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetUserByEmail(context.Background(), "nobody@x.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserByEmail: err = %v, want ErrNotFound", err)
	}
}

func TestVehicleCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice@x.com", false)
	bob := createUser(t, s, "bob@x.com", false)

	v1 := createVehicle(t, s, alice.ID, model.VehicleCars, "toyota", "corolla")
	createVehicle(t, s, alice.ID, model.VehicleTrucks, "volvo", "fh16")
	createVehicle(t, s, bob.ID, model.VehicleCars, "toyota", "yaris")

	own, err := s.ListVehicles(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListVehicles: %v", err)
	}
	if len(own) != 2 {
		t.Fatalf("got %d vehicles for alice, want 2", len(own))
	}
	if own[0].VehicleBrand != "volvo" {
		t.Errorf("expected newest first, got %q", own[0].VehicleBrand)
	}

	all, err := s.ListVehicles(ctx, "")
	if err != nil {
		t.Fatalf("ListVehicles all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d vehicles, want 3", len(all))
	}

	v1.Quantity = 4
	if err := s.UpdateVehicle(ctx, v1); err != nil {
		t.Fatalf("UpdateVehicle: %v", err)
	}
	got, err := s.GetVehicle(ctx, v1.ID)
	if err != nil {
		t.Fatalf("GetVehicle: %v", err)
	}
	if got.Quantity != 4 || got.OwnerID != alice.ID {
		t.Errorf("got %+v", got)
	}

	if err := s.DeleteVehicle(ctx, v1.ID); err != nil {
		t.Fatalf("DeleteVehicle: %v", err)
	}
	if _, err := s.GetVehicle(ctx, v1.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetVehicle after delete: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteUserRemovesOwnedRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice@x.com", false)
	bob := createUser(t, s, "bob@x.com", false)
	createVehicle(t, s, alice.ID, model.VehicleCars, "toyota", "corolla")
	createVehicle(t, s, bob.ID, model.VehicleCars, "volvo", "xc60")

	for _, f := range []*model.File{
		{OwnerID: alice.ID, OriginalName: "a.png", Filename: "a.png", MimeType: "image/png", Size: 1},
		{OwnerID: bob.ID, OriginalName: "b.png", Filename: "b.png", MimeType: "image/png", Size: 1},
	} {
		if err := s.CreateFile(ctx, f); err != nil {
			t.Fatalf("CreateFile: %v", err)
		}
	}

	removed, err := s.DeleteUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if len(removed) != 1 || removed[0].Filename != "a.png" {
		t.Errorf("removed files = %+v, want [a.png]", removed)
	}

	vehicles, err := s.ListVehicles(ctx, "")
	if err != nil {
		t.Fatalf("ListVehicles: %v", err)
	}
	if len(vehicles) != 1 || vehicles[0].OwnerID != bob.ID {
		t.Errorf("vehicles after delete = %+v, want only bob's", vehicles)
	}
	files, err := s.ListFiles(ctx, "")
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 1 || files[0].OwnerID != bob.ID {
		t.Errorf("files after delete = %+v, want only bob's", files)
	}
}

func TestDeleteUserMissingKeepsOtherRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice@x.com", false)
	createVehicle(t, s, alice.ID, model.VehicleCars, "toyota", "corolla")

	if _, err := s.DeleteUser(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteUser(missing): err = %v, want ErrNotFound", err)
	}
	if vs, _ := s.ListVehicles(ctx, alice.ID); len(vs) != 1 {
		t.Errorf("got %d vehicles, want 1", len(vs))
	}
}

func TestReopenReappliesSchema(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "showcase.db")

	s, err := Open(ctx, DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	u := createUser(t, s, "keep@example.com", false)
	s.Close()

	s, err = Open(ctx, DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser after reopen: %v", err)
	}
	if got.Email != u.Email {
		t.Errorf("email = %q, want %q", got.Email, u.Email)
	}
}

func TestMigrationsDeclareTableLevelForeignKeys(t *testing.T) {
	for name, d := range dialects {
		for _, m := range d.migrations() {
			if strings.Contains(m, "CREATE TABLE IF NOT EXISTS vehicles") || strings.Contains(m, "CREATE TABLE IF NOT EXISTS files") {
				if !strings.Contains(m, "FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE") {
					t.Errorf("%s: owner_id lacks a table-level foreign key:\n%s", name, m)
				}
			}
		}
	}
}

func TestVehicleStatisticsAndBrands(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "alice@x.com", false)

	createVehicle(t, s, u.ID, model.VehicleCars, "toyota", "corolla")
	createVehicle(t, s, u.ID, model.VehicleCars, "toyota", "yaris")
	createVehicle(t, s, u.ID, model.VehicleCars, "toyota", "yaris")
	createVehicle(t, s, u.ID, model.VehicleTrucks, "volvo", "fh16")

	stats, err := s.VehicleStatistics(ctx, 5)
	if err != nil {
		t.Fatalf("VehicleStatistics: %v", err)
	}
	if stats.TotalVehicles != 4 {
		t.Errorf("TotalVehicles = %d, want 4", stats.TotalVehicles)
	}
	if len(stats.VehiclesByType) != 2 {
		t.Fatalf("got %d type buckets, want 2", len(stats.VehiclesByType))
	}
	if stats.VehiclesByType[0].Type != model.VehicleCars || stats.VehiclesByType[0].Count != 3 {
		t.Errorf("first bucket = %+v, want cars:3", stats.VehiclesByType[0])
	}
	if len(stats.TopBrands) == 0 || stats.TopBrands[0].Brand != "toyota Motors" || stats.TopBrands[0].Count != 3 {
		t.Errorf("TopBrands = %+v", stats.TopBrands)
	}

	brands, err := s.VehicleBrands(ctx, model.VehicleCars)
	if err != nil {
		t.Fatalf("VehicleBrands: %v", err)
	}
	if len(brands) != 1 {
		t.Fatalf("got %d car brands, want 1", len(brands))
	}
	if len(brands[0].Models) != 2 {
		t.Errorf("got %d toyota models, want 2 distinct", len(brands[0].Models))
	}

	all, err := s.VehicleBrands(ctx, "")
	if err != nil {
		t.Fatalf("VehicleBrands all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d brands, want 2", len(all))
	}
}

func TestFileCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner1 := createUser(t, s, "one@x.com", false)
	owner2 := createUser(t, s, "two@x.com", false)

	f := &model.File{
		OwnerID:      owner1.ID,
		OriginalName: "photo.png",
		Filename:     "abc.png",
		MimeType:     "image/png",
		Size:         42,
	}
	if err := s.CreateFile(ctx, f); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	dup := &model.File{OwnerID: owner2.ID, OriginalName: "x", Filename: "abc.png", MimeType: "text/plain"}
	if err := s.CreateFile(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("CreateFile duplicate: err = %v, want ErrDuplicate", err)
	}

	got, err := s.GetFileByFilename(ctx, "abc.png")
	if err != nil {
		t.Fatalf("GetFileByFilename: %v", err)
	}
	if got.Size != 42 || got.OwnerID != owner1.ID {
		t.Errorf("got %+v", got)
	}

	own, err := s.ListFiles(ctx, owner1.ID)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(own) != 1 {
		t.Errorf("got %d files, want 1", len(own))
	}
	other, err := s.ListFiles(ctx, owner2.ID)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("got %d files for owner-2, want 0", len(other))
	}

	if err := s.DeleteFile(ctx, f.ID); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := s.GetFileByFilename(ctx, "abc.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetFileByFilename after delete: err = %v, want ErrNotFound", err)
	}
}
