package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Context keys for path ids
const (
	ContextChildID = "child_id"
	ContextGenreID = "genre_id"
)

// ExtractUintParam parses a positive numeric URL parameter and stores it under contextKey as uint
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", paramName), "error_type": "validation_error"})
			return
		}
		c.Set(contextKey, uint(id))
		c.Next()
	}
}
