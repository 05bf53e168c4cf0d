package handler

import (
	"net/http"

	"github.com/auditflow-io/auditflow/internal/modules/serializer"
	"github.com/auditflow-io/auditflow/internal/modules/service"
	"github.com/gin-gonic/gin"
)

type WorkingStepHandler struct {
	gate service.StepGateService
}

func NewWorkingStepHandler(gate service.StepGateService) *WorkingStepHandler {
	return &WorkingStepHandler{gate: gate}
}

// ListProjectSteps godoc
//
//	@Summary		List project steps
//	@Description	List the project's working steps in order; stale lock flags are repaired during the read
//	@Tags			working-step
//	@Produce		json
//	@Param			project_id	path	string	true	"Project ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.WorkingStep}
//	@Router			/project/{project_id}/step [get]
func (h *WorkingStepHandler) ListProjectSteps(c *gin.Context) {
	projectID, ok := parseIDParam(c, "project_id")
	if !ok {
		return
	}
	member, ok := currentMember(c)
	if !ok {
		return
	}

	steps, err := h.gate.ListProjectSteps(c.Request.Context(), projectID, member.ID)
	if err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: steps})
}

// GetStep godoc
//
//	@Summary		Get working step
//	@Description	Get a working step; its lock state is re-derived from the predecessor's task completion and repaired if stale
//	@Tags			working-step
//	@Produce		json
//	@Param			step_id	path	string	true	"Working step ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.WorkingStep}
//	@Router			/step/{step_id} [get]
func (h *WorkingStepHandler) GetStep(c *gin.Context) {
	stepID, ok := parseIDParam(c, "step_id")
	if !ok {
		return
	}
	member, ok := currentMember(c)
	if !ok {
		return
	}

	step, err := h.gate.EvaluateLock(c.Request.Context(), stepID, member.ID)
	if err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: step})
}

// UnlockCheck godoc
//
//	@Summary		Run unlock check
//	@Description	Re-evaluate whether the step after this one should unlock. Idempotent.
//	@Tags			working-step
//	@Produce		json
//	@Param			step_id	path	string	true	"Working step ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response
//	@Router			/step/{step_id}/unlock-check [post]
func (h *WorkingStepHandler) UnlockCheck(c *gin.Context) {
	stepID, ok := parseIDParam(c, "step_id")
	if !ok {
		return
	}
	member, ok := currentMember(c)
	if !ok {
		return
	}

	if err := h.gate.CheckAndUnlockNextStep(c.Request.Context(), stepID, member.ID); err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "ok"})
}
