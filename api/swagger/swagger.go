package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LMS Grading API",
        "description": "Weighted course grades, assignment statistics and grade curves",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "GradeWeights", "description": "Per-course category weights"},
        {"name": "Grades", "description": "Computed course grades and exports"},
        {"name": "Curves", "description": "Assignment statistics, curve preview and commit"},
        {"name": "Ops", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Ops"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Ops"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/api/v1/metrics/summary": {
            "get": {
                "tags": ["Ops"],
                "summary": "Service metrics summary",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/courses/{courseId}/grade-weights": {
            "get": {
                "tags": ["GradeWeights"],
                "summary": "Get course grade weights",
                "description": "Returns stored weights or the configured defaults when the course has none.",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Course not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["GradeWeights"],
                "summary": "Replace course grade weights",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateGradeWeightsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "INVALID_WEIGHTS or VALIDATION_ERROR", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/courses/{courseId}/students/{studentId}/grade": {
            "get": {
                "tags": ["Grades"],
                "summary": "Get a student's course grade",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Course not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/courses/{courseId}/grades": {
            "get": {
                "tags": ["Grades"],
                "summary": "Get grades of every student in a course",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/courses/{courseId}/grades/export": {
            "get": {
                "tags": ["Grades"],
                "summary": "Export course grades",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File attachment", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Exports disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/curve-policies": {
            "get": {
                "tags": ["Curves"],
                "summary": "List curve policies with labels and parameter ranges",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/courses/{courseId}/assignments/{assignmentId}/statistics": {
            "get": {
                "tags": ["Curves"],
                "summary": "Assignment score statistics",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "assignmentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/courses/{courseId}/assignments/{assignmentId}/curve/preview": {
            "post": {
                "tags": ["Curves"],
                "summary": "Preview a curve without saving",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "assignmentId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CurvePolicyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "INVALID_CURVE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/courses/{courseId}/assignments/{assignmentId}/curve/commit": {
            "post": {
                "tags": ["Curves"],
                "summary": "Commit a curve atomically",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "assignmentId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CurvePolicyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "NOTHING_TO_CURVE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "CURVE_COMMIT_FAILED, no grades were changed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/courses/{courseId}/curves": {
            "get": {
                "tags": ["Curves"],
                "summary": "List committed curves of a course",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "UpdateGradeWeightsRequest": {
            "type": "object",
            "properties": {
                "assignments": {"type": "number", "minimum": 0, "maximum": 1},
                "quizzes": {"type": "number", "minimum": 0, "maximum": 1},
                "participation": {"type": "number", "minimum": 0, "maximum": 1},
                "attendance": {"type": "number", "minimum": 0, "maximum": 1},
                "updated_by": {"type": "string"}
            },
            "required": ["assignments", "quizzes", "participation", "attendance"]
        },
        "CurvePolicyRequest": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["FLAT", "PERCENTAGE_BOOST", "SQUARE_ROOT", "BELL_CURVE"]},
                "points": {"type": "number"},
                "factor": {"type": "number"},
                "target_mean": {"type": "number"},
                "target_std_dev": {"type": "number"}
            },
            "required": ["kind"]
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
