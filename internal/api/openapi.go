package api

// Spec OpenAPI minimal en JSON para Swagger.
const openAPISpec = `{
  "openapi": "3.0.0",
  "info": {
    "title": "POS Sync API",
    "version": "1.0.0"
  },
  "paths": {
    "/health": {
      "get": {
        "summary": "Health check",
        "responses": {
          "200": {
            "description": "Service is healthy",
            "content": {
              "application/json": {
                "schema": { "$ref": "#/components/schemas/HealthResponse" }
              }
            }
          }
        }
      }
    },
    "/api/sync/status": {
      "get": {
        "summary": "Connectivity, pass state and pending counts",
        "responses": {
          "200": {
            "description": "Current status",
            "content": {
              "application/json": {
                "schema": { "$ref": "#/components/schemas/StatusResponse" }
              }
            }
          },
          "503": { "description": "Local storage unavailable" }
        }
      }
    },
    "/api/sync/run": {
      "post": {
        "summary": "Run a replay pass, joining one already in flight",
        "responses": {
          "200": {
            "description": "Pass result",
            "content": {
              "application/json": {
                "schema": { "$ref": "#/components/schemas/PassResult" }
              }
            }
          },
          "409": { "description": "Device is offline" }
        }
      }
    },
    "/api/connectivity": {
      "post": {
        "summary": "Push a connectivity observation",
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["online"],
                "properties": { "online": { "type": "boolean" } }
              }
            }
          }
        },
        "responses": {
          "200": { "description": "Connectivity stored" },
          "400": { "description": "Invalid body" }
        }
      }
    },
    "/api/writes/{kind}": {
      "post": {
        "summary": "Write a record, queuing it when the remote store is unreachable",
        "parameters": [ { "$ref": "#/components/parameters/Kind" } ],
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["data"],
                "properties": {
                  "id": { "type": "string" },
                  "data": { "type": "object" }
                }
              }
            }
          }
        },
        "responses": {
          "201": { "description": "Delivered to the remote store" },
          "202": { "description": "Queued for replay" },
          "400": { "description": "Unknown kind or invalid payload" },
          "503": { "description": "Local storage unavailable" }
        }
      }
    },
    "/api/queues/{kind}": {
      "get": {
        "summary": "List pending records of a kind",
        "parameters": [ { "$ref": "#/components/parameters/Kind" } ],
        "responses": {
          "200": { "description": "Pending records" },
          "400": { "description": "Unknown kind" }
        }
      },
      "delete": {
        "summary": "Drop every pending record of a kind",
        "parameters": [ { "$ref": "#/components/parameters/Kind" } ],
        "responses": { "204": { "description": "Queue cleared" } }
      }
    },
    "/api/queues/{kind}/{id}": {
      "delete": {
        "summary": "Drop one pending record",
        "parameters": [
          { "$ref": "#/components/parameters/Kind" },
          { "name": "id", "in": "path", "required": true, "schema": { "type": "string" } }
        ],
        "responses": { "204": { "description": "Record removed or already absent" } }
      }
    },
    "/api/conflicts": {
      "get": {
        "summary": "List unresolved stock conflicts",
        "responses": {
          "200": {
            "description": "Conflicts",
            "content": {
              "application/json": {
                "schema": { "type": "array", "items": { "$ref": "#/components/schemas/ConflictRecord" } }
              }
            }
          }
        }
      },
      "delete": {
        "summary": "Drop every conflict",
        "responses": { "204": { "description": "Conflict log cleared" } }
      }
    },
    "/api/conflicts/{id}/resolve": {
      "post": {
        "summary": "Resolve a conflict",
        "parameters": [
          { "name": "id", "in": "path", "required": true, "schema": { "type": "string" } }
        ],
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["action"],
                "properties": {
                  "action": { "type": "string", "enum": ["discard", "reapply", "force"] }
                }
              }
            }
          }
        },
        "responses": {
          "200": { "description": "Conflict resolved" },
          "400": { "description": "Unknown action" },
          "404": { "description": "Conflict not found" },
          "409": { "description": "Queued update no longer exists" }
        }
      }
    },
    "/ws/notifications": {
      "get": {
        "summary": "WebSocket stream of sync notifications",
        "responses": { "101": { "description": "Switching protocols" } }
      }
    }
  },
  "components": {
    "parameters": {
      "Kind": {
        "name": "kind",
        "in": "path",
        "required": true,
        "schema": {
          "type": "string",
          "enum": ["customer", "sale", "bill", "payment", "product_stock_update"]
        }
      }
    },
    "schemas": {
      "HealthResponse": {
        "type": "object",
        "properties": { "status": { "type": "string" } }
      },
      "StatusResponse": {
        "type": "object",
        "properties": {
          "isOffline": { "type": "boolean" },
          "isSyncing": { "type": "boolean" },
          "lastPassAt": { "type": "integer", "format": "int64" },
          "pending": { "type": "object", "additionalProperties": { "type": "integer" } },
          "conflicts": { "type": "integer" }
        }
      },
      "PassResult": {
        "type": "object",
        "properties": {
          "startedAt": { "type": "integer", "format": "int64" },
          "finishedAt": { "type": "integer", "format": "int64" },
          "shared": { "type": "boolean" },
          "detached": { "type": "boolean" },
          "outcomes": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "kind": { "type": "string" },
                "recordId": { "type": "string" },
                "status": { "type": "string", "enum": ["synced", "failed", "conflict"] },
                "reason": { "type": "string" }
              }
            }
          },
          "summaries": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "kind": { "type": "string" },
                "attempted": { "type": "integer" },
                "synced": { "type": "integer" },
                "failed": { "type": "integer" },
                "conflicts": { "type": "integer" },
                "listFailed": { "type": "boolean" },
                "allSucceeded": { "type": "boolean" }
              }
            }
          }
        }
      },
      "ConflictRecord": {
        "type": "object",
        "properties": {
          "id": { "type": "string" },
          "type": { "type": "string", "enum": ["stock_mismatch"] },
          "createdAt": { "type": "integer", "format": "int64" },
          "data": {
            "type": "object",
            "properties": {
              "productId": { "type": "string" },
              "expected": { "type": "integer" },
              "actual": { "type": "integer" },
              "update": { "type": "object" },
              "timestamp": { "type": "integer", "format": "int64" },
              "recordId": { "type": "string" }
            }
          }
        }
      }
    }
  }
}`
