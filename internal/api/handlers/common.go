package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hirelane/aicore/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

// requireUserID reads the caller identity the gateway injects. Identity is
// trusted infrastructure input here; token verification happens upstream.
func requireUserID(c *gin.Context) (string, bool) {
	if id := c.GetHeader("X-User-Id"); id != "" {
		c.Set("user_id", id)
		return id, true
	}
	writeError(c, utils.E(utils.CodeInvalidArgument, "Auth", "X-User-Id header is required", nil))
	return "", false
}

func queryInt(c *gin.Context, key string, def, max int) int {
	out := def
	if s := c.Query(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= max {
			out = n
		}
	}
	return out
}
