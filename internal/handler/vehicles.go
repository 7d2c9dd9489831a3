package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carshowcase/showcase/internal/model"
	"github.com/carshowcase/showcase/internal/server/middleware"
	"github.com/carshowcase/showcase/internal/service"
)

const msgVehicleNotFound = "Vehicle not found"

// VehicleHandler serves the vehicle catalogue under /api/vehicles.
type VehicleHandler struct {
	vehicles *service.VehicleService
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(vehicles *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles}
}

// Create records a vehicle owned by the caller.
// POST /api/vehicles
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.VehicleInput
	if err := readJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}

	v, err := h.vehicles.Create(r.Context(), middleware.GetIdentity(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err, msgVehicleNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// List returns the caller's vehicles, or every vehicle for an admin.
// GET /api/vehicles
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.vehicles.List(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, msgVehicleNotFound)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Statistics summarises the catalogue.
// GET /api/vehicles/statistics
func (h *VehicleHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.vehicles.Statistics(r.Context())
	if err != nil {
		writeServiceError(w, r, err, msgVehicleNotFound)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Types lists recorded brands and models, optionally for one vehicle type.
// GET /api/vehicles/types?type=cars
func (h *VehicleHandler) Types(w http.ResponseWriter, r *http.Request) {
	brands, err := h.vehicles.Brands(r.Context(), queryString(r, "type"))
	if err != nil {
		writeServiceError(w, r, err, msgVehicleNotFound)
		return
	}
	writeJSON(w, http.StatusOK, brands)
}

// Get returns a single vehicle.
// GET /api/vehicles/{id}
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.vehicles.Get(r.Context(), middleware.GetIdentity(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, msgVehicleNotFound)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Update applies a partial change to a vehicle.
// PATCH /api/vehicles/{id}
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.VehicleUpdate
	if err := readJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}

	v, err := h.vehicles.Update(r.Context(), middleware.GetIdentity(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err, msgVehicleNotFound)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Delete removes a vehicle.
// DELETE /api/vehicles/{id}
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	resp, err := h.vehicles.Delete(r.Context(), middleware.GetIdentity(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, msgVehicleNotFound)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
