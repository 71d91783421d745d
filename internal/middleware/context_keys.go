package middleware

import "github.com/gin-gonic/gin"

// userIDKey and tenantIDKey store the authenticated actor and tenant in the
// request context. Using a custom type prevents collisions.
const (
	userIDKey   = contextKey("userID")
	tenantIDKey = contextKey("tenantID")
)

// GetUserIDFromContext retrieves the authenticated actor's user ID from the
// request context. It returns the user ID and a boolean indicating if it was
// found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := c.Request.Context().Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// GetTenantIDFromContext retrieves the authenticated tenant ID from the
// request context. The ledger core trusts this was authenticated upstream.
func GetTenantIDFromContext(c *gin.Context) (string, bool) {
	tenantID, ok := c.Request.Context().Value(tenantIDKey).(string)
	if !ok || tenantID == "" {
		return "", false
	}
	return tenantID, true
}
