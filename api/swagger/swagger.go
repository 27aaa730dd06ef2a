package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Classroom Sync API",
        "description": "Classroom entity store with cross-context device synchronization",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Classrooms", "description": "Teacher classrooms, materials, tasks and discussion"},
        {"name": "Enrollments", "description": "Classrooms joined in this session"},
        {"name": "Threads", "description": "Doubt forum"},
        {"name": "Challenges", "description": "Challenge catalog and tickets"},
        {"name": "Students", "description": "Student roster"},
        {"name": "System", "description": "Storage and sync status"}
    ],
    "paths": {
        "/classrooms": {
            "get": {
                "tags": ["Classrooms"],
                "summary": "List classrooms, seeds first",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Classrooms"],
                "summary": "Create classroom",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ClassroomDraft"}}
                ],
                "responses": {
                    "201": {"description": "Created; meta.storage_warning is set when it was not persisted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classrooms/{id}": {
            "get": {
                "tags": ["Classrooms"],
                "summary": "Classroom detail",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Classrooms"],
                "summary": "Edit classroom name and/or subject",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "integer"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ClassroomPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Classrooms"],
                "summary": "Delete classroom (idempotent)",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}],
                "responses": {"204": {"description": "Deleted or absent"}}
            }
        },
        "/classrooms/{id}/materials": {
            "post": {
                "tags": ["Classrooms"],
                "summary": "Upload material",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "integer"},
                    {"in": "formData", "name": "file", "required": true, "type": "file"},
                    {"in": "formData", "name": "name", "type": "string"}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/classrooms/{id}/tasks": {
            "post": {
                "tags": ["Classrooms"],
                "summary": "Assign task",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "integer"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"type": "object", "properties": {"name": {"type": "string"}}}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/classrooms/{id}/messages": {
            "post": {
                "tags": ["Classrooms"],
                "summary": "Post to classroom discussion",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "integer"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/TextRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/materials/{token}": {
            "get": {
                "tags": ["Classrooms"],
                "summary": "Download material content",
                "produces": ["application/octet-stream"],
                "parameters": [{"in": "path", "name": "token", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "File"},
                    "404": {"description": "Unknown, expired or released reference"}
                }
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List joined classrooms",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Join classroom by code",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"type": "object", "properties": {"code": {"type": "string"}}}}
                ],
                "responses": {
                    "201": {"description": "Joined", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Empty code", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/threads": {
            "get": {
                "tags": ["Threads"],
                "summary": "List threads",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Threads"],
                "summary": "Post a question",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"type": "object", "properties": {"title": {"type": "string"}, "author": {"type": "string"}}}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/threads/{id}/replies": {
            "post": {
                "tags": ["Threads"],
                "summary": "Reply to a thread",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "integer"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/TextRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/challenges": {
            "get": {
                "tags": ["Challenges"],
                "summary": "List challenges",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/challenges/{id}/tickets": {
            "post": {
                "tags": ["Challenges"],
                "summary": "Apply and receive a ticket",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "integer"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ApplicantForm"}}
                ],
                "responses": {"201": {"description": "Ticket issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/tickets/{id}/pdf": {
            "get": {
                "tags": ["Challenges"],
                "summary": "Ticket PDF",
                "produces": ["application/pdf"],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "PDF"}, "404": {"description": "Unknown ticket"}}
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "Search students",
                "parameters": [{"in": "query", "name": "search", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Add student",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"type": "object", "properties": {"name": {"type": "string"}, "email": {"type": "string"}}}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/export": {
            "get": {
                "tags": ["Students"],
                "summary": "Export roster as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "query", "name": "search", "type": "string"},
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/leaderboard": {
            "get": {
                "tags": ["Leaderboard"],
                "summary": "Top scores",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/leaderboard/scores": {
            "post": {
                "tags": ["Leaderboard"],
                "summary": "Add points to a user's score",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ScoreDelta"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaderboard/backup": {
            "post": {
                "tags": ["Leaderboard"],
                "summary": "Snapshot the leaderboard into the backup store now",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/status": {
            "get": {
                "tags": ["System"],
                "summary": "Storage and sync counters for this context",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "ScoreDelta": {
            "type": "object",
            "required": ["user"],
            "properties": {
                "user": {"type": "string"},
                "score": {"type": "integer"}
            }
        },
        "ClassroomDraft": {
            "type": "object",
            "required": ["name", "subject"],
            "properties": {
                "name": {"type": "string"},
                "subject": {"type": "string"},
                "grade": {"type": "string"},
                "section": {"type": "string"}
            }
        },
        "ClassroomPatch": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "subject": {"type": "string"}
            }
        },
        "TextRequest": {
            "type": "object",
            "properties": {"text": {"type": "string"}}
        },
        "ApplicantForm": {
            "type": "object",
            "required": ["full_name", "email"],
            "properties": {
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "contact": {"type": "string"},
                "year": {"type": "string"}
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
