package openapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/carshowcase/showcase/internal/service"
)

type openapiDoc struct {
	*openapi3.T
}

func (d *openapiDoc) op(t *testing.T, path, method string) *openapi3.Operation {
	t.Helper()
	item := d.Paths.Value(path)
	if item == nil {
		t.Fatalf("path %s not found", path)
	}
	op := item.GetOperation(method)
	if op == nil {
		t.Fatalf("%s %s not found", method, path)
	}
	return op
}

func testEndpoints() []Endpoint {
	return []Endpoint{
		{OperationID: "login", Method: http.MethodPost, Path: "/api/auth/login", Tag: "auth",
			Summary: "Log in", Access: service.AccessPublic, Request: "LoginRequest", Response: "LoginResponse",
			Errors: []int{http.StatusUnauthorized}},
		{OperationID: "listUsers", Method: http.MethodGet, Path: "/api/users", Tag: "users",
			Summary: "List users", Access: service.AccessAdmin, Response: "UserSummary", List: true},
		{OperationID: "updateVehicle", Method: http.MethodPatch, Path: "/api/vehicles/{id}", Tag: "vehicles",
			Summary: "Update a vehicle", Access: service.AccessOwner, Request: "VehicleUpdate", Response: "Vehicle"},
		{OperationID: "vehicleTypes", Method: http.MethodGet, Path: "/api/vehicles/types", Tag: "vehicles",
			Summary: "Brands and models", Access: service.AccessPublic, Response: "Brand", List: true, Query: []string{"type"}},
		{OperationID: "uploadFiles", Method: http.MethodPost, Path: "/api/files/upload", Tag: "files",
			Summary: "Upload files", Access: service.AccessOwner, Multipart: true, Response: "UploadResponse", Status: http.StatusCreated},
		{OperationID: "downloadFile", Method: http.MethodGet, Path: "/api/files/{filename}", Tag: "files",
			Summary: "Download a file", Access: service.AccessPublic},
	}
}

func generate(t *testing.T) *openapiDoc {
	t.Helper()
	doc, err := Generate(Info{Title: "Showcase API", Version: "1.0.0", ServerURL: "http://localhost:3001"}, testEndpoints())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return &openapiDoc{doc}
}

func TestGenerate_Info(t *testing.T) {
	doc := generate(t).T

	if doc.OpenAPI != "3.1.0" {
		t.Errorf("OpenAPI version = %q, want %q", doc.OpenAPI, "3.1.0")
	}
	if doc.Info.Title != "Showcase API" {
		t.Errorf("Info.Title = %q", doc.Info.Title)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "http://localhost:3001" {
		t.Errorf("Servers not set correctly")
	}
}

func TestGenerate_BearerScheme(t *testing.T) {
	doc := generate(t).T

	bearer, ok := doc.Components.SecuritySchemes["bearerAuth"]
	if !ok {
		t.Fatal("bearerAuth security scheme not found")
	}
	if bearer.Value.Type != "http" || bearer.Value.Scheme != "bearer" || bearer.Value.BearerFormat != "JWT" {
		t.Errorf("bearerAuth = %+v", bearer.Value)
	}
	if len(doc.Security) != 0 {
		t.Errorf("global security = %v, want none", doc.Security)
	}
}

func TestGenerate_SecurityFollowsAccess(t *testing.T) {
	d := generate(t)

	tests := []struct {
		path, method string
		secured      bool
		access       string
	}{
		{"/api/auth/login", http.MethodPost, false, "public"},
		{"/api/users", http.MethodGet, true, "admin"},
		{"/api/vehicles/{id}", http.MethodPatch, true, "owner"},
		{"/api/files/{filename}", http.MethodGet, false, "public"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			op := d.op(t, tt.path, tt.method)
			secured := op.Security != nil && len(*op.Security) > 0
			if secured != tt.secured {
				t.Errorf("secured = %v, want %v", secured, tt.secured)
			}
			if got := op.Extensions["x-access"]; got != tt.access {
				t.Errorf("x-access = %v, want %q", got, tt.access)
			}
		})
	}
}

func TestGenerate_Responses(t *testing.T) {
	d := generate(t)

	login := d.op(t, "/api/auth/login", http.MethodPost)
	for _, code := range []string{"200", "400", "401", "500"} {
		if login.Responses.Value(code) == nil {
			t.Errorf("login missing %s response", code)
		}
	}
	if login.Responses.Value("403") != nil {
		t.Error("public login should not declare 403")
	}

	patch := d.op(t, "/api/vehicles/{id}", http.MethodPatch)
	for _, code := range []string{"200", "400", "401", "403", "404", "500"} {
		if patch.Responses.Value(code) == nil {
			t.Errorf("updateVehicle missing %s response", code)
		}
	}

	upload := d.op(t, "/api/files/upload", http.MethodPost)
	if upload.Responses.Value("201") == nil {
		t.Error("upload missing 201 response")
	}
	if upload.RequestBody == nil || upload.RequestBody.Value.Content.Get("multipart/form-data") == nil {
		t.Error("upload should take multipart/form-data")
	}
}

func TestGenerate_ListAndBinaryBodies(t *testing.T) {
	d := generate(t)

	list := d.op(t, "/api/users", http.MethodGet)
	schema := list.Responses.Value("200").Value.Content.Get("application/json").Schema.Value
	if schema == nil || !schema.Type.Is("array") {
		t.Fatalf("list response schema = %+v, want array", schema)
	}
	if schema.Items.Ref != "#/components/schemas/UserSummary" {
		t.Errorf("items ref = %q", schema.Items.Ref)
	}

	download := d.op(t, "/api/files/{filename}", http.MethodGet)
	if download.Responses.Value("200").Value.Content.Get("application/octet-stream") == nil {
		t.Error("download should stream application/octet-stream")
	}
}

func TestGenerate_Parameters(t *testing.T) {
	d := generate(t)

	patch := d.op(t, "/api/vehicles/{id}", http.MethodPatch)
	if len(patch.Parameters) != 1 {
		t.Fatalf("parameters = %d, want 1", len(patch.Parameters))
	}
	p := patch.Parameters[0].Value
	if p.Name != "id" || p.In != "path" || !p.Required {
		t.Errorf("path parameter = %+v", p)
	}

	types := d.op(t, "/api/vehicles/types", http.MethodGet)
	if len(types.Parameters) != 1 || types.Parameters[0].Value.In != "query" {
		t.Errorf("types parameters = %+v", types.Parameters)
	}
}

func TestGenerate_ComponentSchemas(t *testing.T) {
	doc := generate(t).T

	user, ok := doc.Components.Schemas["UserSummary"]
	if !ok {
		t.Fatal("UserSummary schema not found")
	}
	for _, prop := range []string{"id", "email", "firstName", "lastName", "isAdmin", "createdAt"} {
		if _, ok := user.Value.Properties[prop]; !ok {
			t.Errorf("UserSummary missing property %q", prop)
		}
	}
	if _, ok := user.Value.Properties["passwordHash"]; ok {
		t.Error("UserSummary must not expose a password hash")
	}
	if _, ok := doc.Components.Schemas["ErrorResponse"]; !ok {
		t.Error("ErrorResponse schema not found")
	}
}

func TestGenerate_UnknownSchema(t *testing.T) {
	_, err := Generate(Info{Title: "x", Version: "1"}, []Endpoint{
		{OperationID: "bad", Method: http.MethodGet, Path: "/api/bad", Response: "Nope"},
	})
	if err == nil {
		t.Fatal("expected error for unknown schema")
	}
}

func TestMarshal(t *testing.T) {
	doc := generate(t).T

	raw, err := MarshalJSON(doc)
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if parsed["openapi"] != "3.1.0" {
		t.Errorf("openapi = %v", parsed["openapi"])
	}
	if !strings.Contains(string(raw), `"x-access": "admin"`) {
		t.Error("JSON output should carry x-access extensions")
	}

	y, err := MarshalYAML(doc)
	if err != nil {
		t.Fatalf("MarshalYAML: %v", err)
	}
	if !strings.Contains(string(y), "openapi: 3.1.0") {
		t.Errorf("YAML output missing version line:\n%s", y)
	}
}

func TestPathParams(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/api/users", nil},
		{"/api/users/{id}", []string{"id"}},
		{"/api/files/{filename}", []string{"filename"}},
		{"/api/a/{x}/b/{y:[0-9]+}", []string{"x", "y"}},
	}
	for _, tt := range tests {
		got := pathParams(tt.path)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("pathParams(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
