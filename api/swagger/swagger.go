package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Weekly timetable auto-placement service",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetable", "description": "Timetable generation and placements"},
        {"name": "Operations", "description": "Liveness, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Operations"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Operations"],
                "summary": "Readiness check against postgres and redis",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Operations"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Metrics in exposition format"}
                }
            }
        },
        "/api/v1/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate the weekly timetable",
                "description": "Places every lesson requirement greedily and persists the result. Unplaceable occurrences are reported as conflicts, not errors.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": false, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GenerateTimetableEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "408": {"description": "Run cancelled or timed out", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No teaching periods or no lesson requirements", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Storage failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/generate/async": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Queue a timetable generation run",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": false, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "202": {
                        "description": "Accepted",
                        "headers": {"Location": {"type": "string", "description": "Run status URL"}},
                        "schema": {"$ref": "#/definitions/TimetableRunEnvelope"}
                    },
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/runs/latest": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get the most recently recorded run",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TimetableRunEnvelope"}},
                    "404": {"description": "No run recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/runs/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get a timetable generation run",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TimetableRunEnvelope"}},
                    "404": {"description": "Unknown run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/slots/export": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download persisted timetable slots as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv"], "default": "csv"},
                    {"in": "query", "name": "day", "type": "string"},
                    {"in": "query", "name": "classId", "type": "string"},
                    {"in": "query", "name": "teacherId", "type": "string"},
                    {"in": "query", "name": "roomId", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Document", "schema": {"type": "file"}},
                    "400": {"description": "Invalid filter or format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/slots": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List persisted timetable slots",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "day", "type": "string", "enum": ["MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"]},
                    {"in": "query", "name": "classId", "type": "string"},
                    {"in": "query", "name": "teacherId", "type": "string"},
                    {"in": "query", "name": "roomId", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "clearExisting": {"type": "boolean"},
                "activeDays": {"type": "array", "maxItems": 7, "items": {"type": "string"}}
            }
        },
        "ConflictRecord": {
            "type": "object",
            "properties": {
                "requirement_id": {"type": "string"},
                "label": {"type": "string"},
                "class_ids": {"type": "array", "items": {"type": "string"}},
                "teacher_ids": {"type": "array", "items": {"type": "string"}},
                "needed": {"type": "integer"},
                "placed": {"type": "integer"},
                "reason": {"type": "string"}
            }
        },
        "RunStep": {
            "type": "object",
            "properties": {
                "step": {"type": "integer"},
                "message": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"}
            }
        },
        "RunSummary": {
            "type": "object",
            "properties": {
                "lesson_requirement_count": {"type": "integer"},
                "periods_per_day": {"type": "integer"},
                "days_per_week": {"type": "integer"},
                "rooms_available": {"type": "integer"},
                "total_placements_created": {"type": "integer"}
            }
        },
        "GenerateTimetableResponse": {
            "type": "object",
            "properties": {
                "runId": {"type": "string"},
                "success": {"type": "boolean"},
                "totalPlaced": {"type": "integer"},
                "totalConflicts": {"type": "integer"},
                "conflicts": {"type": "array", "items": {"$ref": "#/definitions/ConflictRecord"}},
                "steps": {"type": "array", "items": {"$ref": "#/definitions/RunStep"}},
                "summary": {"$ref": "#/definitions/RunSummary"},
                "generatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "TimetableRunResponse": {
            "type": "object",
            "properties": {
                "runId": {"type": "string"},
                "status": {"type": "string", "enum": ["QUEUED", "RUNNING", "COMPLETED", "FAILED"]},
                "error": {"type": "string"},
                "errorCode": {"type": "string"},
                "result": {"type": "object"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
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
                "meta": {"type": "object"},
                "request_id": {"type": "string"}
            }
        },
        "GenerateTimetableEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/GenerateTimetableResponse"},
                "request_id": {"type": "string"}
            }
        },
        "TimetableRunEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/TimetableRunResponse"},
                "request_id": {"type": "string"}
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
