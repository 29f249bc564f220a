package auth

import "github.com/gin-gonic/gin"

const (
	subjectKey = "authSubject"
	roleKey    = "authRole"
)

// GetSubject returns the authenticated subject or empty string.
func GetSubject(c *gin.Context) string {
	return c.GetString(subjectKey)
}

// GetRole returns the role of the authenticated caller or empty string.
func GetRole(c *gin.Context) string {
	return c.GetString(roleKey)
}
