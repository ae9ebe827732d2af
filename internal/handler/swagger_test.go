package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConvertToOpenAPI3_MovesBodyToRequestBody(t *testing.T) {
	doc := []byte(`{
		"swagger": "2.0",
		"info": {"title": "t"},
		"paths": {
			"/jobs/{id}": {
				"put": {
					"parameters": [
						{"type": "string", "name": "id", "in": "path", "required": true},
						{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.JobRequest"}}
					],
					"responses": {"200": {"schema": {"$ref": "#/definitions/handler.JobResponse"}}}
				}
			}
		},
		"definitions": {"handler.JobRequest": {"type": "object"}}
	}`)

	spec, err := ConvertToOpenAPI3(doc, DefaultServers)
	if err != nil {
		t.Fatalf("ConvertToOpenAPI3 failed: %v", err)
	}

	op := spec.Paths["/jobs/{id}"].(map[string]any)["put"].(map[string]any)

	params := op["parameters"].([]any)
	if len(params) != 1 {
		t.Fatalf("Expected 1 non-body parameter, got %d", len(params))
	}
	idParam := params[0].(map[string]any)
	if idParam["schema"].(map[string]any)["type"] != "string" {
		t.Errorf("Expected path parameter schema type string, got %v", idParam["schema"])
	}

	body := op["requestBody"].(map[string]any)
	schema := body["content"].(map[string]any)["application/json"].(map[string]any)["schema"].(map[string]any)
	if schema["$ref"] != "#/components/schemas/handler.JobRequest" {
		t.Errorf("Expected request body ref rewritten, got %v", schema["$ref"])
	}

	resp := op["responses"].(map[string]any)["200"].(map[string]any)["schema"].(map[string]any)
	if resp["$ref"] != "#/components/schemas/handler.JobResponse" {
		t.Errorf("Expected response ref rewritten, got %v", resp["$ref"])
	}

	if _, ok := spec.Components["schemas"].(map[string]any)["handler.JobRequest"]; !ok {
		t.Error("Expected definitions moved to components.schemas")
	}
}

func TestConvertToOpenAPI3_InvalidDocument(t *testing.T) {
	if _, err := ConvertToOpenAPI3([]byte("not json"), nil); err == nil {
		t.Fatal("Expected error for invalid document")
	}
}

func TestServeOpenAPI3Spec(t *testing.T) {
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := ServeOpenAPI3Spec(c); err != nil {
		t.Fatalf("ServeOpenAPI3Spec returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var spec OpenAPI3Spec
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("Failed to decode spec: %v", err)
	}
	if spec.OpenAPI != "3.0.3" {
		t.Errorf("Expected openapi 3.0.3, got %s", spec.OpenAPI)
	}
	if len(spec.Servers) != len(DefaultServers) {
		t.Errorf("Expected %d servers, got %d", len(DefaultServers), len(spec.Servers))
	}
	if _, ok := spec.Paths["/jobs/{id}/payments"]; !ok {
		t.Error("Expected payments path in spec")
	}
	if _, ok := spec.Components["securitySchemes"]; !ok {
		t.Error("Expected security schemes in components")
	}
}
