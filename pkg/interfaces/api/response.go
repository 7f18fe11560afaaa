package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/production/pkg/domain/entities"
)

// Response is the envelope of every JSON reply. Code is 0 on success,
// otherwise the HTTP status times 100 plus a reason digit.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	CodeBadRequest        = 40000
	CodeNotFound          = 40400
	CodeInsufficientStock = 40901
	CodeOrderClosed       = 40902
	CodeInvalidTransition = 40903
	CodePrecondition      = 42200
	CodeNotStorable       = 42201
	CodeOverConsumption   = 42202
	CodeOverLoss          = 42203
	CodeInternal          = 50000
)

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, CodeBadRequest, message)
}

// Fail reports a service error, choosing the code from the error it wraps.
// The more specific precondition errors are checked first since they all
// wrap ErrPrecondition.
func Fail(c *gin.Context, err error) {
	Error(c, ErrorCode(err), err.Error())
}

func ErrorCode(err error) int {
	switch {
	case errors.Is(err, entities.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, entities.ErrInsufficientStock):
		return CodeInsufficientStock
	case errors.Is(err, entities.ErrOrderClosed):
		return CodeOrderClosed
	case errors.Is(err, entities.ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, entities.ErrNotStorable):
		return CodeNotStorable
	case errors.Is(err, entities.ErrOverConsumption):
		return CodeOverConsumption
	case errors.Is(err, entities.ErrOverLoss):
		return CodeOverLoss
	case errors.Is(err, entities.ErrPrecondition):
		return CodePrecondition
	default:
		return CodeInternal
	}
}
