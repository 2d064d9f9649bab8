package api

import (
	"net/http"
	"strconv"
	"time"

	"bookstore-service/internal/apperr"
	"bookstore-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CustomError is the body of every error response
type CustomError struct {
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// respondError writes err with the status of its kind. Untyped errors are
// logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	typed := apperr.As(err)
	if typed == nil || typed.Kind() == apperr.KindInternal {
		util.GetLogger().Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		abortWith(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	abortWith(c, apperr.HTTPStatus(typed.Kind()), typed.Message())
}

func abortWith(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, CustomError{Message: message, Time: time.Now().UTC()})
}

func badRequest(c *gin.Context, message string) {
	abortWith(c, http.StatusBadRequest, message)
}

// pathID parses a positive integer path parameter
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid id supplied: "+c.Param(name))
		return 0, false
	}
	return id, true
}
