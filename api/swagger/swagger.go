package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "NOW LMS API",
        "description": "Learning management backend: catalog, enrollment, progress and certificates",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Authentication", "description": "Signup, login and token lifecycle"},
        {"name": "Users", "description": "User administration"},
        {"name": "Courses", "description": "Catalog and course management"},
        {"name": "Coupons", "description": "Course discount coupons"},
        {"name": "Enrollments", "description": "Enrollment and payment flows"},
        {"name": "Progress", "description": "Resource completion and evaluations"},
        {"name": "Certificates", "description": "Issued certificate validation and download"},
        {"name": "Programs", "description": "Course bundles"},
        {"name": "MasterClasses", "description": "Scheduled live sessions"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register account",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/verify-email": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Verify email address",
                "parameters": [
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Verified"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Tokens issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "Tokens rotated"},
                    "401": {"description": "Invalid refresh token"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Logout current session",
                "responses": {
                    "204": {"description": "Session revoked"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "Authenticated user info"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "Paginated users", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get user",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "User detail"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Users"],
                "summary": "Update user",
                "responses": {
                    "200": {"description": "Updated"}
                }
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Deactivate user",
                "responses": {
                    "204": {"description": "Deactivated"}
                }
            }
        },
        "/catalog/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "Public course catalog",
                "responses": {
                    "200": {"description": "Open public courses", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses",
                "responses": {
                    "200": {"description": "Paginated courses"}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Create course",
                "responses": {
                    "201": {"description": "Draft course created"}
                }
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Get course",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Course detail"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Courses"],
                "summary": "Update course",
                "responses": {
                    "200": {"description": "Updated"}
                }
            }
        },
        "/courses/{id}/sections": {
            "get": {
                "tags": ["Courses"],
                "summary": "List course sections",
                "responses": {
                    "200": {"description": "Sections ordered by position"}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Add course section",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/courses/{id}/resources": {
            "get": {
                "tags": ["Courses"],
                "summary": "List course resources",
                "responses": {
                    "200": {"description": "Resources ordered by section and position"}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Add course resource",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/courses/{id}/coupons": {
            "get": {
                "tags": ["Coupons"],
                "summary": "List course coupons",
                "responses": {
                    "200": {"description": "Coupons for the course"}
                }
            },
            "post": {
                "tags": ["Coupons"],
                "summary": "Create coupon",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Free course or invalid discount"}
                }
            }
        },
        "/courses/{id}/enrollment/preview": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Preview enrollment pricing",
                "parameters": [
                    {"name": "coupon", "in": "query", "type": "string", "required": false}
                ],
                "responses": {
                    "200": {"description": "Pricing quote"},
                    "400": {"description": "Invalid, expired or exhausted coupon"}
                }
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "responses": {
                    "200": {"description": "Paginated enrollments with student and course detail"}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll in a course",
                "responses": {
                    "201": {"description": "Active enrollment or pending payment"},
                    "409": {"description": "Already enrolled"}
                }
            }
        },
        "/enrollments/export": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Export enrollments as CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV attachment with enrollment rows"}
                }
            }
        },
        "/enrollments/{id}/confirm": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Confirm pending payment",
                "parameters": [
                    {"name": "X-Payment-Signature", "in": "header", "type": "string", "required": false}
                ],
                "responses": {
                    "200": {"description": "Enrollment activated"},
                    "401": {"description": "Missing gateway signature or admin token"},
                    "403": {"description": "Invalid signature or insufficient role"},
                    "404": {"description": "Unknown enrollment"}
                }
            }
        },
        "/enrollments/{id}/cancel": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Cancel pending payment",
                "responses": {
                    "204": {"description": "Payment abandoned"}
                }
            }
        },
        "/courses/{id}/resources/{resourceId}/complete": {
            "post": {
                "tags": ["Progress"],
                "summary": "Mark resource completed",
                "responses": {
                    "200": {"description": "Recomputed course progress"}
                }
            }
        },
        "/evaluations/attempts": {
            "post": {
                "tags": ["Progress"],
                "summary": "Submit evaluation attempt",
                "responses": {
                    "201": {"description": "Graded attempt and recomputed progress"},
                    "409": {"description": "Attempt limit reached"}
                }
            }
        },
        "/courses/{id}/progress": {
            "get": {
                "tags": ["Progress"],
                "summary": "Course progress summary",
                "responses": {
                    "200": {"description": "Course progress and per-resource completion"}
                }
            }
        },
        "/certificates/{serial}/validate": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Validate certificate",
                "parameters": [
                    {"name": "serial", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Certificate detail"},
                    "404": {"description": "Unknown serial"}
                }
            }
        },
        "/certificates/{serial}/download-token": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Issue download token",
                "responses": {
                    "200": {"description": "Signed short-lived token"},
                    "404": {"description": "Not rendered yet"}
                }
            }
        },
        "/certificates/download": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Download certificate PDF",
                "parameters": [
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF stream"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/programs": {
            "get": {
                "tags": ["Programs"],
                "summary": "List programs",
                "responses": {
                    "200": {"description": "Programs visible to the caller"}
                }
            },
            "post": {
                "tags": ["Programs"],
                "summary": "Create program",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/programs/{id}/enroll": {
            "post": {
                "tags": ["Programs"],
                "summary": "Enroll in program",
                "responses": {
                    "201": {"description": "Program enrollment"},
                    "402": {"description": "Paid programs enroll course by course"}
                }
            }
        },
        "/masterclasses": {
            "get": {
                "tags": ["MasterClasses"],
                "summary": "List upcoming master classes",
                "responses": {
                    "200": {"description": "Sessions that have not ended"}
                }
            },
            "post": {
                "tags": ["MasterClasses"],
                "summary": "Create master class",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/masterclasses/{slug}/enroll": {
            "post": {
                "tags": ["MasterClasses"],
                "summary": "Enroll in master class",
                "responses": {
                    "201": {"description": "Enrollment, with pending payment for paid sessions"}
                }
            }
        },
        "/masterclass-enrollments/{id}/confirm": {
            "post": {
                "tags": ["MasterClasses"],
                "summary": "Confirm master class payment",
                "parameters": [
                    {"name": "X-Payment-Signature", "in": "header", "type": "string", "required": false}
                ],
                "responses": {
                    "200": {"description": "Seat activated"},
                    "401": {"description": "Missing gateway signature or admin token"},
                    "403": {"description": "Invalid signature or insufficient role"},
                    "404": {"description": "Unknown enrollment"}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
