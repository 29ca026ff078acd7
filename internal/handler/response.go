package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/validator"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError writes err as an error envelope. Application errors keep their
// status and details; anything else is reported as a 500 without leaking the
// underlying message.
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)

	appErr, ok := apperrors.As(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
		return
	}

	resp := NewErrorResponse(appErr.Message)
	resp.Data = appErr.Details
	c.JSON(appErr.StatusCode(), resp)
}

// ParseID reads a UUID path parameter, writing a 400 when it is malformed.
func ParseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON decodes the request body, writing a 400 on malformed input.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondError(c, apperrors.BadRequest("invalid request body: "+err.Error(), err))
		return false
	}
	return true
}

// Validate runs v over obj, writing a 400 with per-field messages on failure.
func Validate(c *gin.Context, v validator.Validator, obj interface{}) bool {
	err := v.Validate(obj)
	if err == nil {
		return true
	}
	appErr := apperrors.BadRequest("invalid request", err)
	var fields validator.Errors
	if errors.As(err, &fields) {
		appErr = appErr.WithDetails(fields)
	}
	RespondError(c, appErr)
	return false
}
