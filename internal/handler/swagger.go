package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dafibh/elektrikci/elektrikci-backend/docs"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/swaggo/swag"
)

// OpenAPI3Spec represents an OpenAPI 3.0 spec structure
type OpenAPI3Spec struct {
	OpenAPI    string         `json:"openapi"`
	Info       map[string]any `json:"info"`
	Servers    []Server       `json:"servers"`
	Paths      map[string]any `json:"paths"`
	Components map[string]any `json:"components,omitempty"`
}

// Server represents an OpenAPI 3.0 server
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// DefaultServers lists the servers advertised in the OpenAPI document
var DefaultServers = []Server{
	{URL: "http://localhost:8080/api/v1", Description: "Local Development"},
	{URL: "https://api.elektrikci.app/api/v1", Description: "Production"},
}

// rewriteRefs points swagger 2.0 definition refs at OpenAPI 3 component schemas
func rewriteRefs(data any) any {
	switch v := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			if ref, ok := value.(string); ok && key == "$ref" {
				out[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
				continue
			}
			out[key] = rewriteRefs(value)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = rewriteRefs(item)
		}
		return out
	default:
		return data
	}
}

// convertOperation moves swagger 2.0 parameters into OpenAPI 3 form.
// A body parameter becomes the requestBody; the others get a schema.
func convertOperation(op map[string]any) map[string]any {
	out := make(map[string]any, len(op))
	for key, value := range op {
		if key != "parameters" {
			out[key] = rewriteRefs(value)
		}
	}

	params, _ := op["parameters"].([]any)
	converted := make([]any, 0, len(params))
	for _, p := range params {
		param, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if param["in"] == "body" {
			out["requestBody"] = map[string]any{
				"required": param["required"],
				"content": map[string]any{
					"application/json": map[string]any{"schema": rewriteRefs(param["schema"])},
				},
			}
			continue
		}

		result := make(map[string]any)
		for _, field := range []string{"name", "in", "description", "required"} {
			if val, ok := param[field]; ok {
				result[field] = val
			}
		}
		schema := make(map[string]any)
		for _, field := range []string{"type", "format", "enum", "default", "minimum", "maximum", "items"} {
			if val, ok := param[field]; ok {
				schema[field] = rewriteRefs(val)
			}
		}
		if len(schema) > 0 {
			result["schema"] = schema
		}
		converted = append(converted, result)
	}
	if len(converted) > 0 {
		out["parameters"] = converted
	}
	return out
}

// ConvertToOpenAPI3 converts a swag generated swagger 2.0 document
func ConvertToOpenAPI3(doc []byte, servers []Server) (*OpenAPI3Spec, error) {
	var swagger2 map[string]any
	if err := json.Unmarshal(doc, &swagger2); err != nil {
		return nil, err
	}

	info, _ := swagger2["info"].(map[string]any)

	paths := make(map[string]any)
	rawPaths, _ := swagger2["paths"].(map[string]any)
	for path, item := range rawPaths {
		methods, ok := item.(map[string]any)
		if !ok {
			continue
		}
		convertedMethods := make(map[string]any, len(methods))
		for method, op := range methods {
			if opMap, ok := op.(map[string]any); ok {
				convertedMethods[method] = convertOperation(opMap)
			}
		}
		paths[path] = convertedMethods
	}

	components := make(map[string]any)
	if secDefs, ok := swagger2["securityDefinitions"].(map[string]any); ok {
		components["securitySchemes"] = secDefs
	}
	if definitions, ok := swagger2["definitions"].(map[string]any); ok {
		components["schemas"] = rewriteRefs(definitions)
	}

	return &OpenAPI3Spec{
		OpenAPI:    "3.0.3",
		Info:       info,
		Servers:    servers,
		Paths:      paths,
		Components: components,
	}, nil
}

// ServeOpenAPI3Spec serves the registered swagger doc converted to OpenAPI 3.0
func ServeOpenAPI3Spec(c echo.Context) error {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read swagger doc")
		return NewInternalError(c, "Failed to read API documentation")
	}

	spec, err := ConvertToOpenAPI3([]byte(doc), DefaultServers)
	if err != nil {
		log.Error().Err(err).Msg("Failed to convert swagger doc")
		return NewInternalError(c, "Failed to parse API documentation")
	}

	return c.JSON(http.StatusOK, spec)
}
