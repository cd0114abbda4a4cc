// Package docs registers the OpenAPI description of the admin API with swag,
// which serves it under /swagger/*any.
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
            "get": {"produces": ["application/json"], "tags": ["system"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/sign-in": {
            "post": {
                "consumes": ["application/json"], "produces": ["application/json"], "tags": ["auth"],
                "summary": "Sign in",
                "description": "Exchanges registry admin credentials for a bearer token",
                "parameters": [{"description": "Admin credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {"200": {"description": "token"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/api/v1/users": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["users"], "summary": "List users", "responses": {"200": {"description": "count, users"}, "401": {"description": "Unauthorized"}}},
            "post": {
                "security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["users"],
                "summary": "Add user",
                "parameters": [{"description": "User payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.AddUserRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "409": {"description": "Conflict"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/api/v1/users/{login}": {
            "delete": {
                "security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["users"],
                "summary": "Remove user",
                "description": "Deletes the login and ends its session, if any",
                "parameters": [{"type": "string", "description": "Login", "name": "login", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not Found"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/api/v1/plant/state": {
            "get": {
                "security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["plant"],
                "summary": "Get plant state",
                "description": "Live sensors while the tanks are on, the last stored snapshot otherwise",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.PlantSnapshot"}}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/api/v1/plant/pump": {
            "post": {
                "security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["plant"],
                "summary": "Set pump input",
                "parameters": [{"description": "Pump payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.PumpRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "409": {"description": "Conflict"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/api/v1/plant/valve": {
            "post": {
                "security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["plant"],
                "summary": "Open or close a valve",
                "parameters": [{"description": "Valve payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ValveRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "409": {"description": "Conflict"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/api/v1/server/status": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["server"], "summary": "Session server status", "responses": {"200": {"description": "running"}, "401": {"description": "Unauthorized"}}}
        },
        "/api/v1/server/start": {
            "post": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["server"], "summary": "Start session server", "description": "Listens for operator clients and powers the tanks on. No-op when running.", "responses": {"200": {"description": "status, state"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/server/stop": {
            "post": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["server"], "summary": "Stop session server", "description": "Ends every session and powers the tanks off", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/logs": {
            "get": {
                "security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["logs"],
                "summary": "Event history",
                "description": "Session, actuation and plant events, oldest first. A date-only 'to' includes the whole day.",
                "parameters": [
                    {"type": "string", "example": "2025-08-01", "name": "from", "in": "query"},
                    {"type": "string", "example": "2025-08-31", "name": "to", "in": "query"},
                    {"enum": ["LOGIN", "LOGIN_REJECTED", "LOGOUT", "ACTUATION", "ACTUATION_DENIED", "CLIENT_ERROR", "SERVER_START", "OVERFLOW", "SHUTDOWN"], "type": "string", "name": "type", "in": "query"},
                    {"type": "string", "example": "admin001", "name": "login", "in": "query"}
                ],
                "responses": {"200": {"description": "count, events"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/ws": {
            "get": {
                "tags": ["plant"],
                "summary": "Plant state stream",
                "parameters": [
                    {"type": "string", "example": "500ms", "name": "interval", "in": "query"},
                    {"type": "integer", "name": "interval_ms", "in": "query"}
                ],
                "responses": {}
            }
        }
    },
    "definitions": {
        "handlers.authCredentials": {
            "type": "object",
            "required": ["login", "password"],
            "properties": {"login": {"type": "string"}, "password": {"type": "string"}}
        },
        "handlers.AddUserRequest": {
            "type": "object",
            "required": ["login", "password"],
            "properties": {
                "login": {"type": "string", "example": "viewer01"},
                "password": {"type": "string", "example": "secret12"},
                "is_admin": {"type": "boolean", "example": false}
            }
        },
        "handlers.PumpRequest": {
            "type": "object",
            "required": ["value"],
            "properties": {"value": {"type": "integer", "example": 12000}}
        },
        "handlers.ValveRequest": {
            "type": "object",
            "required": ["open", "valve"],
            "properties": {"valve": {"type": "integer", "enum": [1, 2], "example": 1}, "open": {"type": "boolean", "example": true}}
        },
        "models.PlantState": {
            "type": "object",
            "properties": {
                "valve1_open": {"type": "boolean"},
                "valve2_open": {"type": "boolean"},
                "tank1_level": {"type": "integer"},
                "tank2_level": {"type": "integer"},
                "pump_input": {"type": "integer"},
                "pump_flow": {"type": "integer"},
                "overflowing": {"type": "boolean"}
            }
        },
        "models.PlantSnapshot": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "state": {"$ref": "#/definitions/models.PlantState"},
                "tanks_on": {"type": "boolean"},
                "updated_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tank Supervisor Admin API",
	Description:      "Registry, plant and session-server administration for the two-tank supervisor.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
