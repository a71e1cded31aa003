package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pageza/pantrypal/backend/internal/models"
)

// Recovery turns a panic into a logged 500 JSON response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered interface{}) {
		zerolog.Ctx(c.Request.Context()).Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Msg("recovered from panic")
		abort(c, http.StatusInternalServerError, "Internal server error")
	})
}

// NotFound answers unknown routes with the JSON error shape.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		abort(c, http.StatusNotFound, "Route not found")
	}
}

// WriteError writes err as {"message": ...} with the status of its kind.
// Internal errors are logged with their cause and reported generically.
func WriteError(c *gin.Context, err error) {
	appErr := models.AsAppError(err)
	if appErr.Kind == models.KindInternal {
		zerolog.Ctx(c.Request.Context()).Error().
			Err(appErr.Err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(appErr.Status(), models.ErrorResponse{Message: appErr.Message})
}
