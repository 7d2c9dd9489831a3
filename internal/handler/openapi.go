package handler

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/carshowcase/showcase/internal/openapi"
)

// OpenAPIHandler serves the API description. The document is rendered once
// at construction.
type OpenAPIHandler struct {
	body []byte
}

// NewOpenAPIHandler renders doc for serving.
func NewOpenAPIHandler(doc *openapi3.T) (*OpenAPIHandler, error) {
	body, err := openapi.MarshalJSON(doc)
	if err != nil {
		return nil, err
	}
	return &OpenAPIHandler{body: body}, nil
}

// ServeSpec returns the OpenAPI document.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(h.body)
}
