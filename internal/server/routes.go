package server

import (
	"net/http"

	"github.com/carshowcase/showcase/internal/openapi"
	"github.com/carshowcase/showcase/internal/service"
)

const apiPrefix = "/api"

// Endpoints is the API route table. The router mounts each entry behind a
// guard for its access class, and the OpenAPI document is generated from it.
func Endpoints() []openapi.Endpoint {
	return []openapi.Endpoint{
		// Auth
		{OperationID: "register", Method: http.MethodPost, Path: "/api/auth/register", Tag: "auth",
			Summary: "Register a new account", Access: service.AccessPublic,
			Request: "Registration", Response: "RegisterResponse", Status: http.StatusCreated,
			Errors: []int{http.StatusConflict, http.StatusTooManyRequests}},
		{OperationID: "login", Method: http.MethodPost, Path: "/api/auth/login", Tag: "auth",
			Summary: "Exchange credentials for an access token", Access: service.AccessPublic,
			Request: "LoginRequest", Response: "LoginResponse",
			Errors: []int{http.StatusUnauthorized, http.StatusTooManyRequests}},
		{OperationID: "logout", Method: http.MethodPost, Path: "/api/auth/logout", Tag: "auth",
			Summary: "Log out", Access: service.AccessOwner, Response: "MessageResponse"},

		// Users
		{OperationID: "createUser", Method: http.MethodPost, Path: "/api/users", Tag: "users",
			Summary: "Create a user", Access: service.AccessAdmin,
			Request: "NewUser", Response: "UserSummary", Status: http.StatusCreated,
			Errors: []int{http.StatusConflict}},
		{OperationID: "listUsers", Method: http.MethodGet, Path: "/api/users", Tag: "users",
			Summary: "List users", Access: service.AccessAdmin, Response: "UserSummary", List: true},
		{OperationID: "profile", Method: http.MethodGet, Path: "/api/users/profile", Tag: "users",
			Summary: "The caller's own account", Access: service.AccessOwner, Response: "UserSummary"},
		{OperationID: "getUser", Method: http.MethodGet, Path: "/api/users/{id}", Tag: "users",
			Summary: "Get a user", Access: service.AccessOwner, Response: "UserSummary"},
		{OperationID: "updateUser", Method: http.MethodPatch, Path: "/api/users/{id}", Tag: "users",
			Summary: "Update a user", Access: service.AccessOwner,
			Request: "UserUpdate", Response: "UserSummary", Errors: []int{http.StatusConflict}},
		{OperationID: "deleteUser", Method: http.MethodDelete, Path: "/api/users/{id}", Tag: "users",
			Summary: "Delete a user and their vehicles", Access: service.AccessOwner, Response: "MessageResponse"},

		// Vehicles
		{OperationID: "createVehicle", Method: http.MethodPost, Path: "/api/vehicles", Tag: "vehicles",
			Summary: "Record a vehicle", Access: service.AccessOwner,
			Request: "VehicleInput", Response: "Vehicle", Status: http.StatusCreated},
		{OperationID: "listVehicles", Method: http.MethodGet, Path: "/api/vehicles", Tag: "vehicles",
			Summary: "List vehicles, newest first", Access: service.AccessOwner, Response: "Vehicle", List: true},
		{OperationID: "vehicleStatistics", Method: http.MethodGet, Path: "/api/vehicles/statistics", Tag: "vehicles",
			Summary: "Catalogue statistics", Access: service.AccessPublic, Response: "VehicleStatistics"},
		{OperationID: "vehicleTypes", Method: http.MethodGet, Path: "/api/vehicles/types", Tag: "vehicles",
			Summary: "Brands and models, optionally for one vehicle type", Access: service.AccessPublic,
			Response: "Brand", List: true, Query: []string{"type"}},
		{OperationID: "getVehicle", Method: http.MethodGet, Path: "/api/vehicles/{id}", Tag: "vehicles",
			Summary: "Get a vehicle", Access: service.AccessOwner, Response: "Vehicle"},
		{OperationID: "updateVehicle", Method: http.MethodPatch, Path: "/api/vehicles/{id}", Tag: "vehicles",
			Summary: "Update a vehicle", Access: service.AccessOwner, Request: "VehicleUpdate", Response: "Vehicle"},
		{OperationID: "deleteVehicle", Method: http.MethodDelete, Path: "/api/vehicles/{id}", Tag: "vehicles",
			Summary: "Delete a vehicle", Access: service.AccessOwner, Response: "MessageResponse"},

		// Files
		{OperationID: "uploadFiles", Method: http.MethodPost, Path: "/api/files/upload", Tag: "files",
			Summary: "Upload files", Access: service.AccessOwner, Multipart: true,
			Response: "UploadResponse", Status: http.StatusCreated, Errors: []int{http.StatusRequestEntityTooLarge}},
		{OperationID: "listFiles", Method: http.MethodGet, Path: "/api/files", Tag: "files",
			Summary: "List uploaded files", Access: service.AccessOwner, Response: "File", List: true},
		{OperationID: "downloadFile", Method: http.MethodGet, Path: "/api/files/{filename}", Tag: "files",
			Summary: "Download a file", Access: service.AccessPublic},
		{OperationID: "deleteFile", Method: http.MethodDelete, Path: "/api/files/{filename}", Tag: "files",
			Summary: "Delete a file", Access: service.AccessOwner, Response: "MessageResponse"},
	}
}

// APIInfo is the metadata of the generated OpenAPI document.
func APIInfo(version, serverURL string) openapi.Info {
	return openapi.Info{
		Title:       "Vehicle Showcase API",
		Description: "Vehicle catalogue with token authentication.",
		Version:     version,
		ServerURL:   serverURL,
	}
}
