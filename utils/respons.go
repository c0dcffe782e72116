package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/shagomeals/apperrors"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody carries the taxonomy of a failed request.
type ErrorBody struct {
	Kind apperrors.Kind `json:"kind"`
	Code string         `json:"code"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
	})
}

// RespondAppError writes err with the HTTP status of its kind. Internal
// errors are logged and their message hidden from the client.
func RespondAppError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	status := StatusForKind(kind)
	message := err.Error()

	var appErr *apperrors.Error
	if kind == apperrors.KindInternal || !errors.As(err, &appErr) {
		ErrorLogger.WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("request_id"),
		}).Errorf("request failed: %v", err)
		message = "internal server error"
	}

	c.AbortWithStatusJSON(status, JSONResponse{
		Status:  false,
		Message: message,
		Error:   &ErrorBody{Kind: kind, Code: apperrors.CodeOf(err)},
	})
}

// StatusForKind maps the error taxonomy onto HTTP.
func StatusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindValidation:
		return http.StatusUnprocessableEntity
	case apperrors.KindIllegalStateTransition, apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
