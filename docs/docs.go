// Package docs registers the OpenAPI description served at /swagger/*.
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
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httputil.Response"}}
                }
            }
        },
        "/api/users/create": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "Registration data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.RegisterInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "400": {"description": "Missing fields or invalid profile", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "500": {"description": "Duplicate email or username", "schema": {"$ref": "#/definitions/httputil.Response"}}
                }
            }
        },
        "/api/users/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Login credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "400": {"description": "Wrong password or missing fields", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/httputil.Response"}}
                }
            }
        },
        "/api/users/{username}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get a profile",
                "parameters": [
                    {"type": "string", "description": "Username or user id", "name": "username", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/httputil.Response"}}
                }
            }
        },
        "/api/users/update": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Update own profile",
                "parameters": [
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.ProfileUpdate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "400": {"description": "Invalid profile data", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "401": {"description": "Session expired", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "403": {"description": "Access denied", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/httputil.Response"}}
                }
            }
        },
        "/api/users/changePassword": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Change own password",
                "parameters": [
                    {"description": "New password, twice", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.ChangePasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "400": {"description": "Passwords do not match or password too long", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "401": {"description": "Session expired", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "403": {"description": "Access denied", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/httputil.Response"}}
                }
            }
        },
        "/api/users/delete": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Delete own account",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "401": {"description": "Session expired", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "403": {"description": "Access denied", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/httputil.Response"}}
                }
            }
        },
        "/api/messages/send": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["messages"],
                "summary": "Send to a random stranger",
                "parameters": [
                    {"description": "Message", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/message.SendRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "400": {"description": "Missing fields", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "401": {"description": "Session expired", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "403": {"description": "Access denied", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "404": {"description": "No recipient available or sender deleted", "schema": {"$ref": "#/definitions/httputil.Response"}}
                }
            }
        },
        "/api/messages/send/{userId}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["messages"],
                "summary": "Send to a specific user",
                "parameters": [
                    {"type": "string", "description": "Recipient user id", "name": "userId", "in": "path", "required": true},
                    {"description": "Message", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/message.SendRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "400": {"description": "Missing fields", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "401": {"description": "Session expired", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "403": {"description": "Access denied", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "404": {"description": "Recipient or sender not found", "schema": {"$ref": "#/definitions/httputil.Response"}}
                }
            }
        },
        "/api/messages/received": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["messages"],
                "summary": "List received messages",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "401": {"description": "Session expired", "schema": {"$ref": "#/definitions/httputil.Response"}},
                    "403": {"description": "Access denied", "schema": {"$ref": "#/definitions/httputil.Response"}}
                }
            }
        }
    },
    "definitions": {
        "httputil.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "message": {"type": "string"},
                "error": {"type": "string"},
                "token": {"type": "string"}
            }
        },
        "user.RegisterInput": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "gender": {"type": "string", "enum": ["male", "female", "other", "prefer not to say"]},
                "location": {"type": "string"},
                "biography": {"type": "string", "maxLength": 500},
                "profilePicture": {"type": "string"},
                "dateOfBirth": {"type": "string", "example": "1990-04-01"}
            }
        },
        "user.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "user.ProfileUpdate": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "gender": {"type": "string", "enum": ["male", "female", "other", "prefer not to say"]},
                "location": {"type": "string"},
                "biography": {"type": "string", "maxLength": 500},
                "profilePicture": {"type": "string"},
                "dateOfBirth": {"type": "string"}
            }
        },
        "user.ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "newPassword": {"type": "string"},
                "newPasswordRepeat": {"type": "string"}
            }
        },
        "message.SendRequest": {
            "type": "object",
            "properties": {
                "messageBody": {"type": "string"},
                "isAnonymous": {"type": "boolean"},
                "toUserId": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the session token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Whisper API",
	Description:      "Anonymous and identified messaging between users.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
