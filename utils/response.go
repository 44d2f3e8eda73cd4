package utils

import "github.com/gin-gonic/gin"

// JSONError aborts with the error envelope. Successful responses are plain
// c.JSON with no envelope.
func JSONError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"success": false, "error": message})
}
