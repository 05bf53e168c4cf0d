package handler

import (
	"net/http"

	"github.com/auditflow-io/auditflow/internal/modules/serializer"
	"github.com/auditflow-io/auditflow/internal/modules/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProjectHandler struct {
	svc service.ProjectService
}

func NewProjectHandler(svc service.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

type CreateProjectReq struct {
	ClientID   string `json:"client_id" binding:"required" format:"uuid"`
	TemplateID string `json:"template_id" binding:"required" format:"uuid"`
	Name       string `json:"name" binding:"required"`
	Year       int    `json:"year" binding:"required"`
}

// CreateProject godoc
//
//	@Summary		Create project
//	@Description	Instantiate a template into a new engagement for a client
//	@Tags			project
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CreateProjectReq	true	"CreateProject payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.Project}
//	@Router			/project [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	req := CreateProjectReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid client_id", err))
		return
	}
	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid template_id", err))
		return
	}
	member, ok := currentMember(c)
	if !ok {
		return
	}

	project, err := h.svc.CreateFromTemplate(c.Request.Context(), service.CreateProjectInput{
		ClientID:   clientID,
		TemplateID: templateID,
		Actor:      member.ID,
		Name:       req.Name,
		Year:       req.Year,
	})
	if err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: project})
}

// GetProject godoc
//
//	@Summary	Get project
//	@Tags		project
//	@Produce	json
//	@Param		project_id	path	string	true	"Project ID"	format(uuid)
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=model.Project}
//	@Router		/project/{project_id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, ok := parseIDParam(c, "project_id")
	if !ok {
		return
	}

	project, err := h.svc.Get(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: project})
}

type ListProjectsReq struct {
	ClientID string `form:"client_id" format:"uuid"`
	Limit    int    `form:"limit,default=20" binding:"required,min=1,max=200"`
	Cursor   string `form:"cursor"`
	TimeDesc bool   `form:"time_desc,default=false"`
}

// ListProjects godoc
//
//	@Summary	List projects
//	@Tags		project
//	@Produce	json
//	@Param		client_id	query	string	false	"Filter by client"	format(uuid)
//	@Param		limit		query	integer	false	"Limit, default 20, max 200"
//	@Param		cursor		query	string	false	"Cursor from the previous page"
//	@Param		time_desc	query	boolean	false	"Newest first"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=service.ListProjectsOutput}
//	@Router		/project [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	req := ListProjectsReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	var clientID *uuid.UUID
	if req.ClientID != "" {
		parsed, err := uuid.Parse(req.ClientID)
		if err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid client_id", err))
			return
		}
		clientID = &parsed
	}

	out, err := h.svc.List(c.Request.Context(), service.ListProjectsInput{
		ClientID: clientID,
		Limit:    req.Limit,
		Cursor:   req.Cursor,
		TimeDesc: req.TimeDesc,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

// Dashboard godoc
//
//	@Summary		Project dashboard
//	@Description	Task completion counts and step lock states; cached briefly in redis
//	@Tags			project
//	@Produce		json
//	@Param			project_id	path	string	true	"Project ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.DashboardOutput}
//	@Router			/project/{project_id}/dashboard [get]
func (h *ProjectHandler) Dashboard(c *gin.Context) {
	projectID, ok := parseIDParam(c, "project_id")
	if !ok {
		return
	}

	out, err := h.svc.Dashboard(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}
