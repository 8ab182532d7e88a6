// Package docs Swagger 文档；修改接口注释后执行 swag init -g cmd/server/main.go -o docs 重新生成
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
        "/auth/register": {
            "post": {
                "tags": ["认证"],
                "summary": "注册",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["认证"],
                "summary": "登录",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"AuthToken": []}],
                "tags": ["认证"],
                "summary": "获取当前用户信息",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/upload-chunked": {
            "post": {
                "security": [{"AuthToken": []}],
                "description": "action=start_upload 创建会话；action=upload_chunk 写入一个 base64 分片，全部到齐后合并为线索",
                "tags": ["Upload"],
                "summary": "分片上传",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/upload-chunked/{upload_id}": {
            "get": {
                "security": [{"AuthToken": []}],
                "tags": ["Upload"],
                "summary": "查询上传进度",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "upload_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/leads": {
            "get": {
                "security": [{"AuthToken": []}],
                "tags": ["Lead"],
                "summary": "获取我的线索",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            },
            "post": {
                "security": [{"AuthToken": []}],
                "tags": ["Lead"],
                "summary": "创建线索",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/leads/{id}": {
            "delete": {
                "security": [{"AuthToken": []}, {"AdminToken": []}],
                "tags": ["Lead"],
                "summary": "删除线索（管理员）",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/leads/{id}/video": {
            "get": {
                "security": [{"AuthToken": []}],
                "tags": ["Lead"],
                "summary": "获取线索视频（data URL）",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/admin/leads/{id}/video": {
            "get": {
                "security": [{"AuthToken": []}, {"AdminToken": []}],
                "tags": ["Admin"],
                "summary": "管理员获取线索视频",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/admin/users": {
            "get": {
                "security": [{"AuthToken": []}, {"AdminToken": []}],
                "tags": ["Admin"],
                "summary": "用户及线索列表（管理员）",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/admin/users/{id}": {
            "delete": {
                "security": [{"AuthToken": []}, {"AdminToken": []}],
                "tags": ["Admin"],
                "summary": "删除用户及其全部数据（管理员）",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        }
    },
    "definitions": {
        "response.ErrorBody": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "error": {"type": "string"},
                "success": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "AdminToken": {"type": "apiKey", "name": "X-Admin-Token", "in": "header"},
        "AuthToken": {"type": "apiKey", "name": "X-Auth-Token", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Video Lead API",
	Description:      "视频线索收集服务：分片上传、线索管理与管理员接口",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
