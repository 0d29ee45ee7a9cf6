package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ielts_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(roles ...util.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", IdentityMiddleware(), RoleMiddleware(roles...), func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		c.JSON(http.StatusOK, user)
	})
	return r
}

func get(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestIdentityMiddleware(t *testing.T) {
	r := newRouter(util.RoleStudent)

	rec := get(r, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = get(r, map[string]string{util.HeaderUserID: "   "})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// 未传角色时视为学生
	rec = get(r, map[string]string{util.HeaderUserID: "stu-1"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"userId":"stu-1","role":"student"}`, rec.Body.String())

	rec = get(r, map[string]string{util.HeaderUserID: "stu-1", util.HeaderUserRole: " Student "})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoleMiddleware(t *testing.T) {
	r := newRouter(util.RoleInstructor)

	cases := []struct {
		role util.Role
		want int
	}{
		{util.RoleStudent, http.StatusForbidden},
		{util.RoleInstructor, http.StatusOK},
		{util.RoleAdmin, http.StatusOK},
		{"guest", http.StatusForbidden},
	}
	for _, tc := range cases {
		rec := get(r, map[string]string{util.HeaderUserID: "u-1", util.HeaderUserRole: string(tc.role)})
		assert.Equal(t, tc.want, rec.Code, "role %s", tc.role)
	}
}

func TestRoleMiddleware_WithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RoleMiddleware(util.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
