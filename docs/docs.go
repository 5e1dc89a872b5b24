// Package docs registers the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/auth/sign-up": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign up",
                "description": "Open while no operator exists; afterwards requires a bearer token.",
                "parameters": [{"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "integer"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/auth/sign-in": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in",
                "parameters": [{"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {
                    "200": {"description": "token", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/cover/open": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["cover"],
                "summary": "Open cover",
                "responses": {"200": {"description": "status, command, state"}, "401": {"description": "Unauthorized"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/api/v1/cover/close": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["cover"],
                "summary": "Close cover",
                "responses": {"200": {"description": "status, command, state"}, "401": {"description": "Unauthorized"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/api/v1/cover/stop": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["cover"],
                "summary": "Stop cover",
                "responses": {"200": {"description": "status, command, state"}, "401": {"description": "Unauthorized"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/api/v1/cover/toggle": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["cover"],
                "summary": "Toggle cover",
                "responses": {"200": {"description": "status, command, state"}, "401": {"description": "Unauthorized"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/api/v1/cover/position": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["cover"],
                "summary": "Move to position",
                "parameters": [{"description": "Target position and/or tilt in [0,1]", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.PositionRequest"}}],
                "responses": {"200": {"description": "status, command, state"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/api/v1/cover/state": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["cover"],
                "summary": "Get cover state",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.CoverState"}}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/api/v1/cover/traits": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["cover"],
                "summary": "Get cover traits",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/cover.Traits"}}, "401": {"description": "Unauthorized"}}
            }
        },
        "/api/v1/logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "List logs",
                "parameters": [
                    {"type": "string", "description": "Start of range", "name": "from", "in": "query"},
                    {"type": "string", "description": "End of range", "name": "to", "in": "query"},
                    {"enum": ["OPEN", "CLOSE", "STOP", "TOGGLE", "MOVE", "SETTLED", "ERROR"], "type": "string", "description": "Event type", "name": "type", "in": "query"},
                    {"type": "integer", "description": "Newest N events (default 500, max 5000)", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "count, events"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}
            }
        }
    },
    "definitions": {
        "handlers.authCredentials": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "handlers.PositionRequest": {
            "type": "object",
            "properties": {"position": {"type": "number"}, "tilt": {"type": "number"}}
        },
        "models.CoverState": {
            "type": "object",
            "properties": {
                "position": {"type": "number"},
                "tilt": {"type": "number"},
                "operation": {"type": "string"},
                "state": {"type": "string"},
                "final": {"type": "boolean"},
                "updated_at": {"type": "string"}
            }
        },
        "cover.Traits": {
            "type": "object",
            "properties": {
                "supports_position": {"type": "boolean"},
                "supports_tilt": {"type": "boolean"},
                "supports_toggle": {"type": "boolean"},
                "supports_stop": {"type": "boolean"},
                "is_assumed_state": {"type": "boolean"}
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
	Title:            "Tilt Cover API",
	Description:      "Time-based position and tilt control for a motorized window covering.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
