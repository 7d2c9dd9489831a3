package openapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
	"gopkg.in/yaml.v3"

	"github.com/carshowcase/showcase/internal/model"
	"github.com/carshowcase/showcase/internal/service"
)

// Endpoint describes one API operation. The server builds its router and
// this document from the same table.
type Endpoint struct {
	OperationID string
	Method      string
	Path        string // chi pattern, e.g. /api/vehicles/{id}
	Tag         string
	Summary     string
	Access      service.Access

	Request   string // component schema of the JSON body, "" for none
	Multipart bool   // body is multipart/form-data with a "files" field
	Response  string // component schema of the success body, "" for a binary stream
	List      bool   // success body is an array of Response
	Status    int    // success status, 200 when zero
	Query     []string
	Errors    []int // error statuses beyond those implied by access and shape
}

// Info is the document metadata.
type Info struct {
	Title       string
	Description string
	Version     string
	ServerURL   string
}

// componentValues are the Go values each named component schema is derived from.
var componentValues = map[string]any{
	"Registration":      model.Registration{},
	"RegisterResponse":  model.RegisterResponse{},
	"LoginRequest":      model.LoginRequest{},
	"LoginResponse":     model.LoginResponse{},
	"MessageResponse":   model.MessageResponse{},
	"UserSummary":       model.UserSummary{},
	"NewUser":           model.NewUser{},
	"UserUpdate":        model.UserUpdate{},
	"Vehicle":           model.Vehicle{},
	"VehicleInput":      model.VehicleInput{},
	"VehicleUpdate":     model.VehicleUpdate{},
	"VehicleStatistics": model.VehicleStatistics{},
	"Brand":             model.Brand{},
	"File":              model.File{},
	"UploadResponse":    model.UploadResponse{},
}

// Generate builds an OpenAPI 3.1 document for endpoints. Operations that are
// not public carry the bearerAuth security requirement.
func Generate(info Info, endpoints []Endpoint) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       info.Title,
			Description: info.Description,
			Version:     info.Version,
		},
		Paths: openapi3.NewPaths(),
	}
	if info.ServerURL != "" {
		doc.Servers = openapi3.Servers{{URL: info.ServerURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	doc.Components.Schemas["ErrorResponse"] = errorSchema()

	names := make([]string, 0, len(componentValues))
	for name := range componentValues {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ref, err := openapi3gen.NewSchemaRefForValue(componentValues[name], nil)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		doc.Components.Schemas[name] = ref
	}

	for _, ep := range endpoints {
		for _, name := range []string{ep.Request, ep.Response} {
			if name == "" {
				continue
			}
			if _, ok := doc.Components.Schemas[name]; !ok {
				return nil, fmt.Errorf("endpoint %s: unknown schema %q", ep.OperationID, name)
			}
		}
		doc.AddOperation(ep.Path, ep.Method, operation(ep))
	}

	return doc, nil
}

// operation converts one endpoint into an OpenAPI operation.
func operation(ep Endpoint) *openapi3.Operation {
	op := &openapi3.Operation{
		Tags:        []string{ep.Tag},
		Summary:     ep.Summary,
		OperationID: ep.OperationID,
		Parameters:  parameters(ep),
		Extensions:  map[string]any{"x-access": ep.Access.String()},
	}

	switch {
	case ep.Multipart:
		op.RequestBody = multipartBody()
	case ep.Request != "":
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithRequired(true).
				WithJSONSchemaRef(componentRef(ep.Request)),
		}
	}

	if ep.Access != service.AccessPublic {
		op.Security = &openapi3.SecurityRequirements{
			openapi3.SecurityRequirement{"bearerAuth": []string{}},
		}
		switch ep.Access {
		case service.AccessAdmin:
			op.Description = "Requires an admin token."
		case service.AccessOwner:
			op.Description = "Requires a token. Non-admin callers only reach their own records."
		}
	}

	op.Responses = responses(ep)
	return op
}

// parameters returns the path parameters named in the pattern followed by
// the declared query parameters.
func parameters(ep Endpoint) openapi3.Parameters {
	var params openapi3.Parameters
	for _, name := range pathParams(ep.Path) {
		params = append(params, &openapi3.ParameterRef{
			Value: openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema()),
		})
	}
	for _, name := range ep.Query {
		params = append(params, &openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter(name).WithSchema(openapi3.NewStringSchema()),
		})
	}
	return params
}

// pathParams extracts {name} segments from a chi pattern.
func pathParams(path string) []string {
	var names []string
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			name := strings.TrimSuffix(strings.TrimPrefix(seg, "{"), "}")
			if i := strings.IndexByte(name, ':'); i >= 0 {
				name = name[:i]
			}
			names = append(names, name)
		}
	}
	return names
}

// responses builds the success response and the error responses the
// endpoint can produce.
func responses(ep Endpoint) *openapi3.Responses {
	status := ep.Status
	if status == 0 {
		status = http.StatusOK
	}

	resp := openapi3.NewResponsesWithCapacity(6)
	resp.Set(strconv.Itoa(status), &openapi3.ResponseRef{Value: successResponse(ep)})

	if ep.Request != "" || ep.Multipart || len(ep.Query) > 0 {
		setError(resp, http.StatusBadRequest, "Bad request")
	}
	if ep.Access != service.AccessPublic {
		setError(resp, http.StatusUnauthorized, "Unauthorized")
	}
	if ep.Access == service.AccessAdmin || (ep.Access == service.AccessOwner && len(pathParams(ep.Path)) > 0) {
		setError(resp, http.StatusForbidden, "Forbidden")
	}
	if len(pathParams(ep.Path)) > 0 {
		setError(resp, http.StatusNotFound, "Not found")
	}
	for _, code := range ep.Errors {
		setError(resp, code, http.StatusText(code))
	}
	setError(resp, http.StatusInternalServerError, "Internal server error")
	return resp
}

func successResponse(ep Endpoint) *openapi3.Response {
	r := openapi3.NewResponse().WithDescription(http.StatusText(orOK(ep.Status)))
	if ep.Response == "" {
		r.Content = openapi3.Content{
			"application/octet-stream": openapi3.NewMediaType().WithSchema(
				&openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "binary"},
			),
		}
		return r
	}

	schema := componentRef(ep.Response)
	if ep.List {
		schema = &openapi3.SchemaRef{Value: &openapi3.Schema{
			Type:  &openapi3.Types{"array"},
			Items: schema,
		}}
	}
	r.Content = openapi3.NewContentWithJSONSchemaRef(schema)
	return r
}

func setError(resp *openapi3.Responses, status int, description string) {
	resp.Set(strconv.Itoa(status), &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription(description).
			WithContent(openapi3.NewContentWithJSONSchemaRef(componentRef("ErrorResponse"))),
	})
}

func multipartBody() *openapi3.RequestBodyRef {
	files := &openapi3.Schema{
		Type: &openapi3.Types{"array"},
		Items: &openapi3.SchemaRef{Value: &openapi3.Schema{
			Type:   &openapi3.Types{"string"},
			Format: "binary",
		}},
	}
	return &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().
			WithRequired(true).
			WithContent(openapi3.Content{
				"multipart/form-data": openapi3.NewMediaType().WithSchema(&openapi3.Schema{
					Type:       &openapi3.Types{"object"},
					Properties: openapi3.Schemas{"files": &openapi3.SchemaRef{Value: files}},
				}),
			}),
	}
}

// errorSchema describes the standard error envelope.
func errorSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"code":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
							"message": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
							"context": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
						},
					},
				},
			},
		},
	}
}

func componentRef(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

func orOK(status int) int {
	if status == 0 {
		return http.StatusOK
	}
	return status
}

// MarshalJSON renders doc as indented JSON.
func MarshalJSON(doc *openapi3.T) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// MarshalYAML renders doc as YAML.
func MarshalYAML(doc *openapi3.T) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var tree any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return yaml.Marshal(tree)
}
