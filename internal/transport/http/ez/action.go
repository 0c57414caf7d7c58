// Package ez wraps gin route registration so handlers return
// (data, error) and the response envelope is applied in one place.
package ez

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"elevate-rewards/internal/domain"
	resp "elevate-rewards/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// AErr carries a business code alongside the message.
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func BadRequest(msg string) error { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }

// Fail maps an error onto the envelope. Domain sentinels get their
// natural codes; everything else is a 500.
func Fail(c *gin.Context, err error) {
	var ae *AErr
	if errors.As(err, &ae) {
		c.JSON(http.StatusOK, resp.Error(ae.Code, ae.Error()))
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, err.Error()))
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusOK, resp.Error(resp.CodeForbidden, err.Error()))
	case errors.Is(err, domain.ErrDuplicateEmail):
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, err.Error()))
	default:
		c.JSON(http.StatusOK, resp.Error(resp.CodeServerError, err.Error()))
	}
}

func (e EZ) GET(path string, h func(c *gin.Context) (any, error)) {
	e.g.GET(path, func(c *gin.Context) {
		data, err := h(c)
		if err != nil {
			Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(data))
	})
}

func POST[T any](e EZ, path string, h func(c *gin.Context, in T) (any, error)) {
	e.g.POST(path, func(c *gin.Context) {
		var in T
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
			return
		}
		data, err := h(c, in)
		if err != nil {
			Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(data))
	})
}
