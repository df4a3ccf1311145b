package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// gin context 中保存租户身份的键
const (
	tenantIDKey = "jrds-tenant-id"
	userIDKey   = "jrds-user-id"
)

// TenantRequired 从请求头解析租户身份
// X-Tenant-ID 必填，缺失直接拒绝；X-User-ID 可选，默认与租户相同
func TenantRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tenantID := ctx.GetHeader("X-Tenant-ID")
		if tenantID == "" {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "X-Tenant-ID header is required",
			})
			return
		}
		userID := ctx.GetHeader("X-User-ID")
		if userID == "" {
			userID = tenantID
		}
		ctx.Set(tenantIDKey, tenantID)
		ctx.Set(userIDKey, userID)
		ctx.Next()
	}
}

// AdminRequired 只放行管理员请求
// 角色由外部认证组件写入 X-Roles 头，逗号分隔
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		for _, role := range strings.Split(ctx.GetHeader("X-Roles"), ",") {
			if strings.TrimSpace(role) == "admin" {
				ctx.Next()
				return
			}
		}
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "admin role is required",
		})
	}
}

// tenantID 取当前请求的租户 ID
func tenantID(ctx *gin.Context) string {
	return ctx.GetString(tenantIDKey)
}

// userID 取当前请求的用户 ID
func userID(ctx *gin.Context) string {
	return ctx.GetString(userIDKey)
}
