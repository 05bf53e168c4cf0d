package handler

import (
	"net/http"

	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/modules/serializer"
	"github.com/auditflow-io/auditflow/internal/modules/service"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type TemplateHandler struct {
	svc service.TemplateService
}

func NewTemplateHandler(svc service.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

type TemplateTaskReq struct {
	TaskOrder      int                           `json:"task_order" binding:"required"`
	Name           string                        `json:"name" binding:"required"`
	IsRequired     bool                          `json:"is_required"`
	ClientInteract string                        `json:"client_interact" binding:"omitempty,oneof='read only' restricted upload approval"`
	ApprovalChain  []model.TemplateApprovalLevel `json:"approval_chain"`
}

type TemplateStepReq struct {
	StepOrder int               `json:"step_order" binding:"required"`
	Name      string            `json:"name" binding:"required"`
	Tasks     []TemplateTaskReq `json:"tasks"`
}

type CreateTemplateReq struct {
	Name  string            `json:"name" binding:"required"`
	Steps []TemplateStepReq `json:"steps" binding:"required,min=1"`
}

// CreateTemplate godoc
//
//	@Summary	Create project template
//	@Tags		template
//	@Accept		json
//	@Produce	json
//	@Param		payload	body	handler.CreateTemplateReq	true	"Template payload"
//	@Security	BearerAuth
//	@Success	201	{object}	serializer.Response{data=model.ProjectTemplate}
//	@Router		/template [post]
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	req := CreateTemplateReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	tpl := &model.ProjectTemplate{Name: req.Name}
	for _, st := range req.Steps {
		step := model.TemplateStep{
			StepOrder: st.StepOrder,
			Name:      st.Name,
		}
		for _, tt := range st.Tasks {
			interact := tt.ClientInteract
			if interact == "" {
				interact = model.InteractReadOnly
			}
			step.Tasks = append(step.Tasks, model.TemplateTask{
				TaskOrder:      tt.TaskOrder,
				Name:           tt.Name,
				IsRequired:     tt.IsRequired,
				ClientInteract: interact,
				ApprovalChain:  datatypes.NewJSONSlice(tt.ApprovalChain),
			})
		}
		tpl.Steps = append(tpl.Steps, step)
	}

	if err := h.svc.Create(c.Request.Context(), tpl); err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: tpl})
}

// GetTemplate godoc
//
//	@Summary	Get template
//	@Tags		template
//	@Produce	json
//	@Param		template_id	path	string	true	"Template ID"	format(uuid)
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=model.ProjectTemplate}
//	@Router		/template/{template_id} [get]
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	templateID, ok := parseIDParam(c, "template_id")
	if !ok {
		return
	}

	tpl, err := h.svc.Get(c.Request.Context(), templateID)
	if err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: tpl})
}

// ListTemplates godoc
//
//	@Summary	List templates
//	@Tags		template
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=[]model.ProjectTemplate}
//	@Router		/template [get]
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: templates})
}

type RenameTemplateReq struct {
	Name string `json:"name" binding:"required"`
}

// RenameTemplate godoc
//
//	@Summary		Rename template
//	@Description	Rename a template; the slug is re-derived with collision suffixing
//	@Tags			template
//	@Accept			json
//	@Produce		json
//	@Param			template_id	path	string						true	"Template ID"	format(uuid)
//	@Param			payload		body	handler.RenameTemplateReq	true	"Rename payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.ProjectTemplate}
//	@Router			/template/{template_id} [put]
func (h *TemplateHandler) RenameTemplate(c *gin.Context) {
	templateID, ok := parseIDParam(c, "template_id")
	if !ok {
		return
	}
	req := RenameTemplateReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	tpl, err := h.svc.Rename(c.Request.Context(), templateID, req.Name)
	if err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: tpl})
}
