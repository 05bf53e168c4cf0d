package handler

import (
	"errors"
	"net/http"

	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/modules/serializer"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentMember pulls the authenticated actor set by the auth middleware.
func currentMember(c *gin.Context) (*model.Member, bool) {
	member, ok := c.MustGet("member").(*model.Member)
	if !ok {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", errors.New("member not found")))
		return nil, false
	}
	return member, true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}
