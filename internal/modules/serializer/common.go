package serializer

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/auditflow-io/auditflow/internal/pkg/apperr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var log *zap.Logger

// SetLogger wires the package logger; called once by the router.
func SetLogger(l *zap.Logger) { log = l }

// Response
type Response struct {
	Code  int         `json:"code"`
	Data  interface{} `json:"data,omitempty"`
	Msg   string      `json:"msg"`
	Error string      `json:"error,omitempty"`
}

// Err
func Err(errCode int, msg string, err error) Response {
	res := Response{
		Code: errCode,
		Msg:  msg,
	}
	// development mode, show error detail
	if err != nil && gin.Mode() != gin.ReleaseMode {
		res.Error = fmt.Sprintf("%+v", err)
	}
	return res
}

// DBErr
func DBErr(msg string, err error) Response {
	if msg == "" {
		msg = "database error"
	}
	return Err(http.StatusInternalServerError, msg, err)
}

// ParamErr
func ParamErr(msg string, err error) Response {
	if msg == "" {
		msg = "parameter error"
	}
	return Err(http.StatusBadRequest, msg, err)
}

// AuthErr
func AuthErr(msg string) Response {
	if msg == "" {
		msg = "authentication error"
	}
	return Err(http.StatusUnauthorized, msg, nil)
}

// WorkflowErr maps the workflow error taxonomy onto HTTP statuses with
// user-actionable messages. Concurrency and role errors are expected
// conditions, never swallowed.
func WorkflowErr(err error) (int, Response) {
	switch {
	case errors.Is(err, apperr.ErrVersionConflict):
		return http.StatusConflict, Err(http.StatusConflict,
			"someone else modified this, reload and try again", err)
	case errors.Is(err, apperr.ErrRoleMismatch):
		return http.StatusForbidden, Err(http.StatusForbidden,
			"not your turn to approve", err)
	case errors.Is(err, apperr.ErrInvalidTransition):
		if log != nil {
			log.Sugar().Errorw("invalid workflow transition", "err", err)
		}
		return http.StatusUnprocessableEntity, Err(http.StatusUnprocessableEntity,
			"the requested action is not possible in the current state", err)
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, Err(http.StatusNotFound, "not found", err)
	default:
		return http.StatusInternalServerError, DBErr("", err)
	}
}
