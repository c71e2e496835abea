// Package swagger registers the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/start.go -o docs/swagger
package swagger

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
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "in": "header", "name": "X-API-Key"}
    },
    "security": [{"ApiKeyAuth": []}],
    "paths": {
        "/ledger": {
            "get": {
                "description": "Returns the last reconciled view. With refresh=true a new pass runs first.",
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Get Ledger",
                "parameters": [
                    {"type": "boolean", "description": "Run a reconcile pass before answering", "name": "refresh", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Ledger View", "schema": {"$ref": "#/definitions/reconcile.LedgerView"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/ledger/pending": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "List Pending Writes",
                "responses": {
                    "200": {"description": "Pending Entries", "schema": {"type": "array", "items": {"$ref": "#/definitions/store.PendingEntry"}}}
                }
            }
        },
        "/ledger/pending/{id}": {
            "delete": {
                "tags": ["ledger"],
                "summary": "Discard Pending Write",
                "parameters": [
                    {"type": "string", "description": "Pending entry id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/ledger/events": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["ledger"],
                "summary": "Notify Data Change",
                "parameters": [
                    {"description": "Event", "name": "event", "in": "body", "schema": {"$ref": "#/definitions/ledger.eventRequest"}}
                ],
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/ledger/replay": {
            "post": {
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Replay Pending Writes",
                "responses": {
                    "200": {"description": "Replay Report", "schema": {"$ref": "#/definitions/gateway.ReplayReport"}}
                }
            }
        },
        "/ledger/games": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["games"],
                "summary": "Create Game",
                "parameters": [
                    {"description": "Game", "name": "game", "in": "body", "required": true, "schema": {"$ref": "#/definitions/gateway.CreateGameInput"}}
                ],
                "responses": {
                    "200": {"description": "Accepted by the remote store", "schema": {"$ref": "#/definitions/gateway.Result"}},
                    "202": {"description": "Queued locally", "schema": {"$ref": "#/definitions/gateway.Result"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/ledger/games/{id}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["games"],
                "summary": "Delete Game",
                "parameters": [
                    {"type": "string", "description": "Game id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/gateway.Result"}}
                }
            }
        },
        "/ledger/games/{id}/end": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["games"],
                "summary": "End Game",
                "parameters": [
                    {"type": "string", "description": "Game id", "name": "id", "in": "path", "required": true},
                    {"description": "Winner and method", "name": "end", "in": "body", "required": true, "schema": {"$ref": "#/definitions/gateway.EndGameInput"}}
                ],
                "responses": {
                    "200": {"description": "Accepted by the remote store", "schema": {"$ref": "#/definitions/gateway.Result"}},
                    "202": {"description": "Queued locally", "schema": {"$ref": "#/definitions/gateway.Result"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/ledger/games/{id}/winner": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["games"],
                "summary": "Change Winner",
                "parameters": [
                    {"type": "string", "description": "Game id", "name": "id", "in": "path", "required": true},
                    {"description": "New winner", "name": "winner", "in": "body", "required": true, "schema": {"$ref": "#/definitions/gateway.ChangeWinnerInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/gateway.Result"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/ledger/transactions": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Record Transaction",
                "parameters": [
                    {"description": "Transaction", "name": "transaction", "in": "body", "required": true, "schema": {"$ref": "#/definitions/gateway.TransactionInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/gateway.Result"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/ledger/players": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["players"],
                "summary": "Register Player",
                "parameters": [
                    {"description": "Player", "name": "player", "in": "body", "required": true, "schema": {"$ref": "#/definitions/gateway.PlayerInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/gateway.Result"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        }
    },
    "definitions": {
        "error": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "ledger.eventRequest": {
            "type": "object",
            "properties": {"source": {"type": "string"}, "entityId": {"type": "string"}}
        },
        "gateway.PlayerBet": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "bet": {"type": "string"}}
        },
        "gateway.CreateGameInput": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "type": {"type": "string"},
                "startTime": {"type": "integer"},
                "players": {"type": "array", "items": {"$ref": "#/definitions/gateway.PlayerBet"}}
            }
        },
        "gateway.EndGameInput": {
            "type": "object",
            "properties": {
                "winnerId": {"type": "string"},
                "method": {"type": "string", "enum": ["winner", "force", "cancel"]}
            }
        },
        "gateway.ChangeWinnerInput": {
            "type": "object",
            "properties": {"winnerId": {"type": "string"}}
        },
        "gateway.TransactionInput": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "playerId": {"type": "string"},
                "playerName": {"type": "string"},
                "gameId": {"type": "string"},
                "gameName": {"type": "string"},
                "amount": {"type": "string"},
                "type": {"type": "string", "enum": ["bet", "win", "refund", "adjustment"]},
                "timestamp": {"type": "integer"},
                "description": {"type": "string"}
            }
        },
        "gateway.PlayerInput": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "initialBalance": {"type": "string"}}
        },
        "gateway.Result": {
            "type": "object",
            "properties": {
                "entityId": {"type": "string"},
                "tier": {"type": "string", "enum": ["local", "remote"]},
                "path": {"type": "string", "enum": ["typed", "raw", "queued", "none"]},
                "alreadyProcessed": {"type": "boolean"},
                "pendingCount": {"type": "integer"}
            }
        },
        "gateway.ReplayReport": {
            "type": "object",
            "properties": {
                "attempted": {"type": "integer"},
                "applied": {"type": "integer"},
                "failed": {"type": "integer"},
                "skipped": {"type": "integer"},
                "remaining": {"type": "integer"},
                "duration": {"type": "integer"}
            }
        },
        "store.PendingEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "entity": {"type": "string"},
                "op": {"type": "string"},
                "entityId": {"type": "string"},
                "fields": {"type": "array", "items": {"type": "string"}},
                "state": {"type": "string"},
                "attempts": {"type": "integer"},
                "lastError": {"type": "string"},
                "createdAt": {"type": "integer"},
                "updatedAt": {"type": "integer"}
            }
        },
        "reconcile.LedgerView": {
            "type": "object",
            "properties": {
                "games": {"type": "array", "items": {"type": "object"}},
                "transactions": {"type": "array", "items": {"type": "object"}},
                "players": {"type": "array", "items": {"type": "object"}},
                "degraded": {"type": "boolean"},
                "pendingWrites": {"type": "integer"},
                "issues": {"type": "array", "items": {"type": "object"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Party Ledger API",
	Description:      "Offline-first ledger for party games.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
