package handler

import (
	"net/http"

	"github.com/auditflow-io/auditflow/internal/modules/serializer"
	"github.com/auditflow-io/auditflow/internal/modules/service"
	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	svc service.MemberService
}

func NewMemberHandler(svc service.MemberService) *MemberHandler {
	return &MemberHandler{svc: svc}
}

type CreateMemberReq struct {
	Name string `json:"name" binding:"required"`
	Role string `json:"role" binding:"required,oneof=worker 'team leader' supervisor manager partner client"`
}

type CreateMemberResp struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	ApiKey string `json:"api_key"`
}

// CreateMember godoc
//
//	@Summary		Create member
//	@Description	Create a member; the API key is returned once and never stored in clear
//	@Tags			member
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CreateMemberReq	true	"Member payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=handler.CreateMemberResp}
//	@Router			/member [post]
func (h *MemberHandler) CreateMember(c *gin.Context) {
	req := CreateMemberReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	member, rawKey, err := h.svc.Create(c.Request.Context(), req.Name, req.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}

	c.JSON(http.StatusCreated, serializer.Response{Data: CreateMemberResp{
		ID:     member.ID.String(),
		Name:   member.Name,
		Role:   member.Role,
		ApiKey: rawKey,
	}})
}
