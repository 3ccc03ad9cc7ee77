package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Test Generator API",
        "description": "Question bank, test assembly, PDF export and student assignment for teachers",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "SessionCookie": {"type": "apiKey", "in": "header", "name": "Cookie"}
    },
    "tags": [
        {"name": "Auth", "description": "Registration and cookie sessions"},
        {"name": "Questions", "description": "Question bank"},
        {"name": "Tests", "description": "Test papers, PDF export and assignments"},
        {"name": "Students", "description": "Student approval workflow"},
        {"name": "Dashboard", "description": "Teacher dashboard counters"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a teacher or student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in and receive a session cookie",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke the current session",
                "security": [{"SessionCookie": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user",
                "security": [{"SessionCookie": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/stats": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Dashboard counters for the caller",
                "security": [{"SessionCookie": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "Approved students",
                "security": [{"SessionCookie": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/pending": {
            "get": {
                "tags": ["Students"],
                "summary": "Pending link requests",
                "security": [{"SessionCookie": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{linkId}/status": {
            "post": {
                "tags": ["Students"],
                "summary": "Approve or reject a link request",
                "security": [{"SessionCookie": []}],
                "parameters": [
                    {"name": "linkId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecideLinkRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already decided", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/questions": {
            "get": {
                "tags": ["Questions"],
                "summary": "List questions",
                "security": [{"SessionCookie": []}],
                "parameters": [
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "chapter", "in": "query", "type": "string"},
                    {"name": "topic", "in": "query", "type": "string"},
                    {"name": "difficulty", "in": "query", "type": "string", "enum": ["easy", "medium", "hard"]},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "owner", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown filter", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Questions"],
                "summary": "Create question",
                "security": [{"SessionCookie": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Question"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tests": {
            "get": {
                "tags": ["Tests"],
                "summary": "List the caller's tests",
                "security": [{"SessionCookie": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Tests"],
                "summary": "Assemble a test",
                "security": [{"SessionCookie": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTestRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tests/{id}": {
            "get": {
                "tags": ["Tests"],
                "summary": "Get test",
                "security": [{"SessionCookie": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Tests"],
                "summary": "Update test",
                "security": [{"SessionCookie": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTestRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Tests"],
                "summary": "Delete test and its assignments",
                "security": [{"SessionCookie": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tests/{id}/pdf": {
            "post": {
                "tags": ["Tests"],
                "summary": "Render the test paper as PDF",
                "produces": ["application/pdf"],
                "security": [{"SessionCookie": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/PDFOptions"}}
                ],
                "responses": {
                    "200": {"description": "PDF document", "schema": {"type": "file"}},
                    "500": {"description": "Rendering error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tests/{id}/assign": {
            "post": {
                "tags": ["Tests"],
                "summary": "Assign the test to approved students",
                "security": [{"SessionCookie": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignTestRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Student not approved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tests/{id}/assignments": {
            "get": {
                "tags": ["Tests"],
                "summary": "List assignments of a test",
                "security": [{"SessionCookie": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tests/{id}/assignments/export": {
            "get": {
                "tags": ["Tests"],
                "summary": "Export assignments as CSV",
                "produces": ["text/csv"],
                "security": [{"SessionCookie": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "CSV document", "schema": {"type": "file"}}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["teacher", "student"]},
                "institutionName": {"type": "string"},
                "institutionAddress": {"type": "string"},
                "teacherId": {"type": "string"},
                "rollNumber": {"type": "string"}
            },
            "required": ["name", "email", "password", "role"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "DecideLinkRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["approved", "rejected"]}
            },
            "required": ["status"]
        },
        "Question": {
            "type": "object",
            "properties": {
                "subject": {"type": "string"},
                "chapter": {"type": "string"},
                "topic": {"type": "string"},
                "difficulty": {"type": "string", "enum": ["easy", "medium", "hard"]},
                "type": {"type": "string", "enum": ["mcq", "short_answer", "long_answer"]},
                "questionText": {"type": "string"},
                "options": {"type": "array", "items": {"type": "string"}},
                "answer": {"type": "string"},
                "explanation": {"type": "string"},
                "marks": {"type": "integer"}
            },
            "required": ["subject", "chapter", "difficulty", "type", "questionText"]
        },
        "QuestionSnapshot": {
            "type": "object",
            "properties": {
                "difficulty": {"type": "string"},
                "type": {"type": "string"},
                "questionText": {"type": "string"},
                "options": {"type": "array", "items": {"type": "string"}},
                "answer": {"type": "string"},
                "explanation": {"type": "string"},
                "marks": {"type": "integer"}
            },
            "required": ["difficulty", "type", "questionText"]
        },
        "CreateTestRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "subject": {"type": "string"},
                "chapter": {"type": "string"},
                "topic": {"type": "string"},
                "type": {"type": "string", "enum": ["topic_test", "chapter_test", "mock_test", "board_pattern"]},
                "difficulty": {"type": "string", "enum": ["easy", "medium", "hard", "mixed"]},
                "duration": {"type": "integer"},
                "questions": {"type": "array", "items": {"$ref": "#/definitions/QuestionSnapshot"}},
                "questionIds": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["title", "subject", "type", "difficulty"]
        },
        "PDFOptions": {
            "type": "object",
            "properties": {
                "includeHeader": {"type": "boolean"},
                "includeInstructions": {"type": "boolean"},
                "showMarks": {"type": "boolean"},
                "includeAnswers": {"type": "boolean"}
            }
        },
        "AssignTestRequest": {
            "type": "object",
            "properties": {
                "studentIds": {"type": "array", "items": {"type": "string"}},
                "dueDate": {"type": "string", "format": "date-time"},
                "notes": {"type": "string"}
            },
            "required": ["studentIds"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "array", "items": {"type": "object"}}
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
