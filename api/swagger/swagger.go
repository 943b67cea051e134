package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Studio API",
        "description": "Versioned timetable documents, feasibility validation and readiness dashboards for school scheduling projects.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Organizations", "description": "Tenant management"},
        {"name": "Projects", "description": "Scheduling projects inside an organization"},
        {"name": "Versions", "description": "Immutable timetable document snapshots"},
        {"name": "Validation", "description": "Feasibility rules engine"},
        {"name": "Dashboard", "description": "Project readiness overview"},
        {"name": "Solver", "description": "External scheduling service jobs"},
        {"name": "Exports", "description": "Validation report exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/organizations": {
            "get": {
                "tags": ["Organizations"],
                "summary": "List organizations",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Organizations"],
                "summary": "Create organization",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateOrganizationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/organizations/{orgId}": {
            "get": {
                "tags": ["Organizations"],
                "summary": "Get organization",
                "parameters": [
                    {"name": "orgId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Organizations"],
                "summary": "Update organization",
                "parameters": [
                    {"name": "orgId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateOrganizationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Organizations"],
                "summary": "Delete organization",
                "parameters": [
                    {"name": "orgId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/organizations/{orgId}/projects": {
            "get": {
                "tags": ["Projects"],
                "summary": "List projects",
                "parameters": [
                    {"name": "orgId", "in": "path", "required": true, "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Projects"],
                "summary": "Create project",
                "parameters": [
                    {"name": "orgId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateProjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/organizations/{orgId}/projects/{projectId}/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Project overview: progress, issue counts and version history",
                "parameters": [
                    {"name": "orgId", "in": "path", "required": true, "type": "string"},
                    {"name": "projectId", "in": "path", "required": true, "type": "string"},
                    {"name": "versionId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/organizations/{orgId}/projects/{projectId}/versions": {
            "get": {
                "tags": ["Versions"],
                "summary": "List version summaries, newest first",
                "parameters": [
                    {"name": "orgId", "in": "path", "required": true, "type": "string"},
                    {"name": "projectId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Versions"],
                "summary": "Save a new immutable document snapshot",
                "parameters": [
                    {"name": "orgId", "in": "path", "required": true, "type": "string"},
                    {"name": "projectId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateVersionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/organizations/{orgId}/projects/{projectId}/versions/{versionId}/validation": {
            "get": {
                "tags": ["Validation"],
                "summary": "Run a full validation pass over a version document",
                "parameters": [
                    {"name": "orgId", "in": "path", "required": true, "type": "string"},
                    {"name": "projectId", "in": "path", "required": true, "type": "string"},
                    {"name": "versionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/organizations/{orgId}/projects/{projectId}/versions/{versionId}/progress": {
            "get": {
                "tags": ["Validation"],
                "summary": "Scheduling progress metrics for a version",
                "parameters": [
                    {"name": "orgId", "in": "path", "required": true, "type": "string"},
                    {"name": "projectId", "in": "path", "required": true, "type": "string"},
                    {"name": "versionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/organizations/{orgId}/projects/{projectId}/versions/{versionId}/solver/jobs": {
            "post": {
                "tags": ["Solver"],
                "summary": "Submit a version document to the scheduling service",
                "parameters": [
                    {"name": "orgId", "in": "path", "required": true, "type": "string"},
                    {"name": "projectId", "in": "path", "required": true, "type": "string"},
                    {"name": "versionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitSolverJobRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/organizations/{orgId}/projects/{projectId}/versions/{versionId}/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Start an asynchronous export of a version's validation report",
                "parameters": [
                    {"name": "orgId", "in": "path", "required": true, "type": "string"},
                    {"name": "projectId", "in": "path", "required": true, "type": "string"},
                    {"name": "versionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateOrganizationRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "slug": {"type": "string"}
            },
            "required": ["name", "slug"]
        },
        "UpdateOrganizationRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "slug": {"type": "string"}
            },
            "required": ["name", "slug"]
        },
        "CreateProjectRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"}
            },
            "required": ["name"]
        },
        "CreateVersionRequest": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "document": {"type": "object"}
            },
            "required": ["document"]
        },
        "SubmitSolverJobRequest": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["solve", "diagnostics"]}
            },
            "required": ["kind"]
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["issues", "progress", "summary"]},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["type", "format"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
