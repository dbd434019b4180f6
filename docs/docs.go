// Package docs holds the OpenAPI description served under /swagger/.
// It follows the swag annotations on the handlers; regenerate with
// `swag init -g cmd/pludo/main.go` after changing them.
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
        "/agents": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the authenticated user's agents, newest first",
                "produces": ["application/json"],
                "tags": ["agents"],
                "summary": "List agents",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AgentsListResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Validates the configuration, stores the agent and renders its site files. The API key is never returned.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["agents"],
                "summary": "Generate an agent site",
                "parameters": [
                    {"description": "Agent configuration", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.AgentConfigRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}}
                }
            }
        },
        "/agents/deploy": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Runs all three phases for a new agent. Results of completed phases are kept when a later phase fails.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Generate, upload and deploy",
                "parameters": [
                    {"description": "Agent configuration", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.AgentConfigRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}}
                }
            }
        },
        "/agents/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["agents"],
                "summary": "Get an agent",
                "parameters": [
                    {"type": "string", "description": "Agent ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AgentResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Replaces the configuration and regenerates the site. The subdomain cannot change; an empty apiKey keeps the stored key.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["agents"],
                "summary": "Edit an agent",
                "parameters": [
                    {"type": "string", "description": "Agent ID", "name": "id", "in": "path", "required": true},
                    {"description": "Agent configuration", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.AgentConfigRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["agents"],
                "summary": "Delete an agent",
                "parameters": [
                    {"type": "string", "description": "Agent ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/agents/{id}/deploy": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Creates or reuses the Vercel project and waits for the build to become ready",
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Deploy an agent site",
                "parameters": [
                    {"type": "string", "description": "Agent ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}}
                }
            }
        },
        "/agents/{id}/files": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["agents"],
                "summary": "Get generated files",
                "parameters": [
                    {"type": "string", "description": "Agent ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.FilesResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/agents/{id}/redeploy": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Runs upload and deploy again for an existing agent, reusing its repository and project",
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Resume the pipeline",
                "parameters": [
                    {"type": "string", "description": "Agent ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}}
                }
            }
        },
        "/agents/{id}/steps": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Get deployment progress",
                "parameters": [
                    {"type": "string", "description": "Agent ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.StepsResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/agents/{id}/upload": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Creates or reuses the agent's GitHub repository and commits the generated files",
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Upload an agent site",
                "parameters": [
                    {"type": "string", "description": "Agent ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/dto.PhaseResponse"}}
                }
            }
        },
        "/chat/{subdomain}": {
            "post": {
                "description": "Public endpoint used by generated sites. Rate limited per agent.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Chat with a deployed agent",
                "parameters": [
                    {"type": "string", "description": "Agent subdomain", "name": "subdomain", "in": "path", "required": true},
                    {"description": "Conversation", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ChatResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/subdomains/{subdomain}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["agents"],
                "summary": "Check subdomain availability",
                "parameters": [
                    {"type": "string", "description": "Subdomain", "name": "subdomain", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SubdomainResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.DeploymentStep": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "loading", "success", "error"]},
                "message": {"type": "string"}
            }
        },
        "domain.GeneratedFile": {
            "type": "object",
            "properties": {
                "path": {"type": "string"},
                "content": {"type": "string"}
            }
        },
        "dto.FAQ": {
            "type": "object",
            "properties": {
                "question": {"type": "string"},
                "answer": {"type": "string"}
            }
        },
        "dto.AgentConfigRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "brandName": {"type": "string"},
                "websiteName": {"type": "string"},
                "agentType": {"type": "string"},
                "roleDescription": {"type": "string"},
                "services": {"type": "array", "items": {"type": "string"}},
                "faqs": {"type": "array", "items": {"$ref": "#/definitions/dto.FAQ"}},
                "primaryColor": {"type": "string"},
                "tone": {"type": "string", "enum": ["professional", "friendly", "witty", "minimal"]},
                "avatarUrl": {"type": "string"},
                "subdomain": {"type": "string"},
                "officeHours": {"type": "string"},
                "knowledge": {"type": "string"},
                "apiProvider": {"type": "string", "enum": ["openrouter", "openai", "deepseek"]},
                "model": {"type": "string"},
                "apiKey": {"type": "string"}
            }
        },
        "dto.AgentResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "brandName": {"type": "string"},
                "websiteName": {"type": "string"},
                "agentType": {"type": "string"},
                "roleDescription": {"type": "string"},
                "services": {"type": "array", "items": {"type": "string"}},
                "faqs": {"type": "array", "items": {"$ref": "#/definitions/dto.FAQ"}},
                "primaryColor": {"type": "string"},
                "tone": {"type": "string"},
                "avatarUrl": {"type": "string"},
                "subdomain": {"type": "string"},
                "officeHours": {"type": "string"},
                "knowledge": {"type": "string"},
                "apiProvider": {"type": "string"},
                "model": {"type": "string"},
                "hasApiKey": {"type": "boolean"},
                "phase": {"type": "string", "enum": ["generated", "uploaded", "deployed"]},
                "repositoryUrl": {"type": "string"},
                "liveUrl": {"type": "string"},
                "embedSnippet": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "dto.AgentsListResponse": {
            "type": "object",
            "properties": {
                "agents": {"type": "array", "items": {"$ref": "#/definitions/dto.AgentResponse"}},
                "total": {"type": "integer"}
            }
        },
        "dto.ChatMessage": {
            "type": "object",
            "properties": {
                "role": {"type": "string", "enum": ["user", "assistant"]},
                "content": {"type": "string"}
            }
        },
        "dto.ChatRequest": {
            "type": "object",
            "properties": {
                "model": {"type": "string"},
                "messages": {"type": "array", "items": {"$ref": "#/definitions/dto.ChatMessage"}}
            }
        },
        "dto.ChatResponse": {
            "type": "object",
            "properties": {
                "reply": {"type": "string"}
            }
        },
        "dto.ErrorDetail": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/dto.ErrorDetail"}
            }
        },
        "dto.FilesResponse": {
            "type": "object",
            "properties": {
                "files": {"type": "array", "items": {"$ref": "#/definitions/domain.GeneratedFile"}}
            }
        },
        "dto.PhaseResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "string"},
                "code": {"type": "string"},
                "phase": {"type": "string"},
                "agentId": {"type": "string"},
                "agent": {"$ref": "#/definitions/dto.AgentResponse"},
                "fileCount": {"type": "integer"},
                "repositoryUrl": {"type": "string"},
                "commitSha": {"type": "string"},
                "liveUrl": {"type": "string"},
                "deploymentUrl": {"type": "string"},
                "embedSnippet": {"type": "string"},
                "steps": {"type": "array", "items": {"$ref": "#/definitions/domain.DeploymentStep"}}
            }
        },
        "dto.StepsResponse": {
            "type": "object",
            "properties": {
                "steps": {"type": "array", "items": {"$ref": "#/definitions/domain.DeploymentStep"}}
            }
        },
        "dto.SubdomainResponse": {
            "type": "object",
            "properties": {
                "subdomain": {"type": "string"},
                "available": {"type": "boolean"},
                "reason": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT issued by the dashboard, sent as: Bearer {token}",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "PLUDO API",
	Description:      "Generate, publish and host customer support agents.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
