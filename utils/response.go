package utils

import (
	"github.com/gin-gonic/gin"
)

// JSONSuccess sends a success response with the payload merged at the top
// level, e.g. {"success": true, "bid": {...}}.
func JSONSuccess(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// JSONError sends an error response in the {"error": message} shape. Extra
// fields (such as the computed minimum bid) are merged at the top level.
func JSONError(c *gin.Context, status int, message string, extra gin.H) {
	body := gin.H{"error": message}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}
