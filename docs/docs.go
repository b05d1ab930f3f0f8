// Package docs registers the API description served at /swagger/doc.json.
// Regenerate with `swag init -g main.go` after changing handler annotations.
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
        "/auth/v1/token": {
            "post": {
                "tags": ["auth"],
                "summary": "Sign in with email or phone and password",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {"200": {"description": "token pair and user"}, "401": {"description": "invalid credentials"}}
            }
        },
        "/auth/v1/refresh": {
            "post": {
                "tags": ["auth"],
                "summary": "Rotate a refresh token",
                "responses": {"200": {"description": "new token pair"}, "401": {"description": "invalid or used token"}}
            }
        },
        "/auth/v1/logout": {
            "post": {
                "tags": ["auth"],
                "summary": "Revoke a refresh token",
                "responses": {"204": {"description": "revoked"}}
            }
        },
        "/api/v1/me": {
            "get": {
                "tags": ["directory"],
                "summary": "Current employee, organization and active projects",
                "responses": {"200": {"description": "employee"}, "404": {"description": "no employee row"}}
            }
        },
        "/api/v1/ptps": {
            "post": {
                "tags": ["ptp"],
                "summary": "Submit a pre-task plan draft",
                "responses": {"201": {"description": "stored plan"}, "400": {"description": "validation error"}}
            }
        },
        "/api/v1/timecards": {
            "post": {
                "tags": ["timecards"],
                "summary": "Submit a time card draft",
                "responses": {"201": {"description": "stored card"}, "400": {"description": "validation error"}}
            }
        },
        "/api/v1/projects/{id}/timecards/export": {
            "get": {
                "tags": ["timecards"],
                "summary": "Download a project's time cards as xlsx",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"}
                ],
                "responses": {"200": {"description": "workbook"}}
            }
        },
        "/api/v1/drafts/{kind}/step": {
            "post": {
                "tags": ["drafts"],
                "summary": "Apply one wizard step to a draft",
                "responses": {"200": {"description": "next draft"}}
            }
        },
        "/api/v1/storage/{bucket}": {
            "post": {
                "tags": ["storage"],
                "summary": "Upload an attachment",
                "consumes": ["multipart/form-data"],
                "responses": {"201": {"description": "object path"}}
            }
        },
        "/api/v1/storage/{bucket}/sign": {
            "post": {
                "tags": ["storage"],
                "summary": "Create a signed read URL",
                "responses": {"200": {"description": "signed url"}, "403": {"description": "path outside organization"}}
            }
        },
        "/functions/v1/submit-hauling-request": {
            "post": {
                "tags": ["functions"],
                "summary": "Submit a hauling request",
                "responses": {"200": {"description": "success, hauling_request_id, status"}, "400": {"description": "error"}}
            }
        },
        "/functions/v1/submit-injury-report": {
            "post": {
                "tags": ["functions"],
                "summary": "Submit an injury report",
                "responses": {"200": {"description": "injury_report_id"}, "400": {"description": "error"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "ApiKey": {"type": "apiKey", "name": "x-api-key", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Field Reporting API",
	Description:      "Crew submissions for construction field reporting: pre-task plans, time cards, activity logs, inspections, extra work, hauling and injury reports.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
