// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "List jobs",
                "parameters": [
                    {"type": "integer", "default": 10, "description": "page size", "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "description": "rows to skip", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.JobListResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            },
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Create a redaction job",
                "parameters": [
                    {"type": "file", "description": "PDF document", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.jobResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/jobs/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Get a job",
                "parameters": [
                    {"type": "string", "description": "job id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.jobResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            },
            "delete": {
                "tags": ["jobs"],
                "summary": "Delete a job",
                "parameters": [
                    {"type": "string", "description": "job id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/jobs/{id}/output": {
            "get": {
                "produces": ["application/pdf"],
                "tags": ["jobs"],
                "summary": "Download the last redacted PDF",
                "parameters": [
                    {"type": "string", "description": "job id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/jobs/{id}/pages/{page}": {
            "get": {
                "produces": ["image/png"],
                "tags": ["pages"],
                "summary": "Download a page image",
                "parameters": [
                    {"type": "string", "description": "job id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "page index or page identifier", "name": "page", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/jobs/{id}/pages/{page}/url": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pages"],
                "summary": "Presign a page image URL",
                "parameters": [
                    {"type": "string", "description": "job id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "page index or page identifier", "name": "page", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/jobs/{id}/redactions": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/pdf"],
                "tags": ["jobs"],
                "summary": "Blur zones and download the redacted PDF",
                "parameters": [
                    {"type": "string", "description": "job id", "name": "id", "in": "path", "required": true},
                    {"description": "zones per page", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.RedactionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        }
    },
    "definitions": {
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/handler.errorEnvelope"},
                "request_id": {"type": "string"}
            }
        },
        "handler.jobResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "original_filename": {"type": "string"},
                "source_key": {"type": "string"},
                "page_count": {"type": "integer"},
                "page_width": {"type": "integer"},
                "page_height": {"type": "integer"},
                "status": {"type": "string", "enum": ["RASTERIZED", "REDACTED", "FAILED"]},
                "output_key": {"type": "string"},
                "error_details": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "pages": {"type": "array", "items": {"type": "string"}}
            }
        },
        "model.Job": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "original_filename": {"type": "string"},
                "source_key": {"type": "string"},
                "page_count": {"type": "integer"},
                "page_width": {"type": "integer"},
                "page_height": {"type": "integer"},
                "status": {"type": "string"},
                "output_key": {"type": "string"},
                "error_details": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "model.PageZones": {
            "type": "object",
            "properties": {
                "page": {"type": "string"},
                "zones": {"type": "array", "items": {"$ref": "#/definitions/model.ZoneCoords"}}
            }
        },
        "model.RedactionRequest": {
            "type": "object",
            "properties": {
                "blur_data": {"type": "array", "items": {"$ref": "#/definitions/model.PageZones"}}
            }
        },
        "model.ZoneCoords": {
            "type": "object",
            "properties": {
                "x1": {"type": "number"},
                "y1": {"type": "number"},
                "x2": {"type": "number"},
                "y2": {"type": "number"}
            }
        },
        "service.JobListResult": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/model.Job"}},
                "total": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "pdfblur API",
	Description:      "Rasterize PDFs, blur rectangular zones and reassemble redacted PDFs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
