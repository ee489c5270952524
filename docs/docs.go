// Package docs registers the OpenAPI description served at /swagger.
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
        "/api/grouping-tasks": {
            "get": {
                "produces": ["application/json"],
                "tags": ["grouping-tasks"],
                "summary": "List grouping tasks",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {"$ref": "#/definitions/TaskIdentity"}
                        }
                    }
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["grouping-tasks"],
                "summary": "Create a grouping task",
                "description": "Validates the input names, queues a grouping task and returns its identity.",
                "parameters": [
                    {
                        "description": "Names to group",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateTaskRequest"}
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {"$ref": "#/definitions/TaskIdentity"}
                    },
                    "400": {
                        "description": "Validation errors keyed by field",
                        "schema": {"type": "object"}
                    }
                }
            }
        },
        "/api/grouping-tasks/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["grouping-tasks"],
                "summary": "Retrieve a grouping task",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/TaskDetail"}
                    },
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/grouping-tasks/{id}/move-name": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["grouping-tasks"],
                "summary": "Move a name between result groups",
                "description": "Edits a completed grouping result directly; the grouping is not re-run.",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Move description",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/MoveNameRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/TaskDetail"}
                    },
                    "400": {
                        "description": "Validation errors keyed by field",
                        "schema": {"type": "object"}
                    },
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/profiles": {
            "get": {
                "produces": ["application/json"],
                "tags": ["profiles"],
                "summary": "List delimiter profiles",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {"$ref": "#/definitions/Profile"}
                        }
                    }
                }
            }
        },
        "/api/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["service"],
                "summary": "Processing statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        },
        "/api/events": {
            "get": {
                "produces": ["text/event-stream"],
                "tags": ["service"],
                "summary": "Stream task lifecycle events",
                "responses": {
                    "200": {"description": "SSE stream"}
                }
            }
        },
        "/api/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["service"],
                "summary": "Service health and version",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        }
    },
    "definitions": {
        "CreateTaskRequest": {
            "type": "object",
            "required": ["names"],
            "properties": {
                "names": {"type": "array", "items": {"type": "string"}},
                "word_delimiter": {"type": "string"},
                "profile": {"type": "string"}
            }
        },
        "MoveNameRequest": {
            "type": "object",
            "required": ["name", "source_group", "target_group"],
            "properties": {
                "name": {"type": "string"},
                "source_group": {"type": "string"},
                "target_group": {"type": "string"}
            }
        },
        "TaskIdentity": {
            "type": "object",
            "properties": {
                "url": {"type": "string"},
                "id": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "TaskDetail": {
            "type": "object",
            "properties": {
                "url": {"type": "string"},
                "id": {"type": "string"},
                "status": {"type": "string"},
                "result": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "array",
                        "items": {"type": "string"}
                    }
                },
                "created_at": {"type": "string"},
                "created_at_epoch": {"type": "integer"},
                "completed_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "Profile": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "delimiter": {"type": "string"},
                "description": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "namegroup API",
	Description:      "Asynchronous word-prefix grouping of delimited names.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
