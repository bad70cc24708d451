// Package middleware holds the gin middleware the report server runs.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic inside a later handler into a 500 instead of
// taking down the whole report server.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recover() != nil {
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}
