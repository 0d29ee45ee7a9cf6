// Package docs 注册 swagger 文档，内容需与 controller 上的 @Router 注解保持一致
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API支持",
            "url": "http://www.swagger.io/support",
            "email": "support@swagger.io"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "description": "检查数据库与 redis 状态",
                "produces": ["application/json"],
                "tags": ["系统"],
                "summary": "健康检查",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/student/tests/{testId}/start": {
            "post": {
                "description": "首次调用创建 session，重复调用返回同一 session；已完成的考试不可重考",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["考试"],
                "summary": "开始考试",
                "parameters": [
                    {"type": "string", "description": "试卷ID", "name": "testId", "in": "path", "required": true},
                    {"description": "模块类型", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controller.StartSessionReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/student/tests/{testId}/progress": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["考试"],
                "summary": "保存作答进度",
                "parameters": [
                    {"type": "string", "description": "试卷ID", "name": "testId", "in": "path", "required": true},
                    {"description": "作答", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controller.SaveProgressReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/student/tests/{testId}/submit": {
            "post": {
                "description": "听力/阅读立即评分；写作/口语等待教师评分。结果汇总失败时仍返回成功并附带 warning",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["考试"],
                "summary": "提交考试",
                "parameters": [
                    {"type": "string", "description": "试卷ID", "name": "testId", "in": "path", "required": true},
                    {"description": "最终作答", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controller.SubmitReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/student/tests/{testId}/session": {
            "get": {
                "produces": ["application/json"],
                "tags": ["考试"],
                "summary": "查询考试状态",
                "parameters": [
                    {"type": "string", "description": "试卷ID", "name": "testId", "in": "path", "required": true},
                    {"type": "string", "description": "模块类型", "name": "testType", "in": "query", "required": true},
                    {"type": "string", "description": "分项测试ID", "name": "itemWiseTestId", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/instructor/sessions/{id}/grade": {
            "post": {
                "description": "四项评分标准取平均，或 Task1/Task2 按 1:2 加权",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["评分"],
                "summary": "教师评分（写作/口语）",
                "parameters": [
                    {"type": "string", "description": "SessionID", "name": "id", "in": "path", "required": true},
                    {"description": "criteria 或 task1/task2", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.GradeInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/results/{refType}/{refId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["成绩"],
                "summary": "查询总成绩",
                "parameters": [
                    {"type": "string", "description": "assignment 或 session", "name": "refType", "in": "path", "required": true},
                    {"type": "string", "description": "作业ID或SessionID", "name": "refId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/results/{refType}/{refId}/status": {
            "get": {
                "description": "写作/口语在教师评分前 graded=false",
                "produces": ["application/json"],
                "tags": ["成绩"],
                "summary": "查询评分进度",
                "parameters": [
                    {"type": "string", "description": "assignment 或 session", "name": "refType", "in": "path", "required": true},
                    {"type": "string", "description": "作业ID或SessionID", "name": "refId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/admin/results/{refType}/{refId}/materialize": {
            "post": {
                "produces": ["application/json"],
                "tags": ["管理"],
                "summary": "重新计算单个结果",
                "parameters": [
                    {"type": "string", "description": "assignment 或 session", "name": "refType", "in": "path", "required": true},
                    {"type": "string", "description": "作业ID或SessionID", "name": "refId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/admin/results/rematerialize": {
            "post": {
                "produces": ["application/json"],
                "tags": ["管理"],
                "summary": "重新计算全部结果",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/admin/sessions/{id}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["管理"],
                "summary": "重置考试（允许重考）",
                "parameters": [
                    {"type": "string", "description": "SessionID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        }
    },
    "definitions": {
        "controller.StartSessionReq": {
            "type": "object",
            "required": ["testType"],
            "properties": {
                "assignmentId": {"type": "string"},
                "itemWiseTestId": {"type": "string"},
                "testType": {"type": "string", "enum": ["LISTENING", "READING", "WRITING", "SPEAKING"]}
            }
        },
        "controller.SaveProgressReq": {
            "type": "object",
            "required": ["testType"],
            "properties": {
                "answers": {"type": "object"},
                "itemWiseTestId": {"type": "string"},
                "testType": {"type": "string", "enum": ["LISTENING", "READING", "WRITING", "SPEAKING"]}
            }
        },
        "controller.SubmitReq": {
            "type": "object",
            "required": ["testType"],
            "properties": {
                "answers": {"type": "object"},
                "assignmentId": {"type": "string"},
                "itemWiseTestId": {"type": "string"},
                "testType": {"type": "string", "enum": ["LISTENING", "READING", "WRITING", "SPEAKING"]}
            }
        },
        "service.GradeInput": {
            "type": "object",
            "properties": {
                "criteria": {"type": "array", "items": {"type": "number"}},
                "task1": {"type": "number"},
                "task2": {"type": "number"}
            }
        },
        "util.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "IELTS 考试评分 API",
	Description:      "IELTS 模考评分与成绩汇总服务。身份由上游网关通过 X-User-ID / X-User-Role 请求头传入。",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
