package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorHandler recovers panics and turns errors attached with c.Error into a
// JSON error response. Public errors are shown to the caller verbatim, all
// others are logged and replaced with a generic message.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[ErrorHandler] panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		last := c.Errors.Last()
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}

		message := last.Error()
		if !last.IsType(gin.ErrorTypePublic) {
			log.Printf("[ErrorHandler] %s %s: %v", c.Request.Method, c.Request.URL.Path, last.Err)
			message = http.StatusText(status)
		}

		c.JSON(status, ErrorResponse{Error: message})
	}
}
