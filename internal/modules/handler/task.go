package handler

import (
	"net/http"

	"github.com/auditflow-io/auditflow/internal/infra/blob"
	"github.com/auditflow-io/auditflow/internal/modules/serializer"
	"github.com/auditflow-io/auditflow/internal/modules/service"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type TaskHandler struct {
	svc  service.WorkflowService
	blob *blob.S3Deps
}

func NewTaskHandler(svc service.WorkflowService, b *blob.S3Deps) *TaskHandler {
	return &TaskHandler{svc: svc, blob: b}
}

// GetTask godoc
//
//	@Summary		Get task
//	@Description	Get a task with its ordered approval chain
//	@Tags			task
//	@Produce		json
//	@Param			task_id	path	string	true	"Task ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Task}
//	@Router			/task/{task_id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}

	task, err := h.svc.GetTask(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: task})
}

type SubmitTaskReq struct {
	ExpectedVersion int    `json:"expected_version" binding:"min=0"`
	Comments        string `json:"comments"`
	Notes           string `json:"notes"`
}

// SubmitTask godoc
//
//	@Summary		Submit task
//	@Description	Submit a task into its approval chain's first (or rejected) level
//	@Tags			task
//	@Accept			json
//	@Produce		json
//	@Param			task_id	path	string					true	"Task ID"	format(uuid)
//	@Param			payload	body	handler.SubmitTaskReq	true	"Submit payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Task}
//	@Router			/task/{task_id}/submit [post]
func (h *TaskHandler) SubmitTask(c *gin.Context) {
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}
	req := SubmitTaskReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	member, ok := currentMember(c)
	if !ok {
		return
	}

	task, err := h.svc.Submit(c.Request.Context(), service.SubmitInput{
		TaskID:          taskID,
		Actor:           member.ID,
		ActorRole:       member.Role,
		ExpectedVersion: req.ExpectedVersion,
		Comments:        req.Comments,
		Notes:           req.Notes,
	})
	if err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: task})
}

type ApproveTaskReq struct {
	ExpectedVersion int `json:"expected_version" binding:"min=0"`
}

// ApproveTask godoc
//
//	@Summary		Approve task
//	@Description	Approve the task's active level as the acting member's role
//	@Tags			task
//	@Accept			json
//	@Produce		json
//	@Param			task_id	path	string					true	"Task ID"	format(uuid)
//	@Param			payload	body	handler.ApproveTaskReq	true	"Approve payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Task}
//	@Router			/task/{task_id}/approve [post]
func (h *TaskHandler) ApproveTask(c *gin.Context) {
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}
	req := ApproveTaskReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	member, ok := currentMember(c)
	if !ok {
		return
	}

	task, err := h.svc.Approve(c.Request.Context(), service.ApproveInput{
		TaskID:          taskID,
		Actor:           member.ID,
		ActorRole:       member.Role,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: task})
}

type RejectTaskReq struct {
	ExpectedVersion int    `json:"expected_version" binding:"min=0"`
	Reason          string `json:"reason" binding:"required"`
}

// RejectTask godoc
//
//	@Summary		Reject task
//	@Description	Return the task to its submitter with a reason
//	@Tags			task
//	@Accept			json
//	@Produce		json
//	@Param			task_id	path	string					true	"Task ID"	format(uuid)
//	@Param			payload	body	handler.RejectTaskReq	true	"Reject payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Task}
//	@Router			/task/{task_id}/reject [post]
func (h *TaskHandler) RejectTask(c *gin.Context) {
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}
	req := RejectTaskReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	member, ok := currentMember(c)
	if !ok {
		return
	}

	task, err := h.svc.Reject(c.Request.Context(), service.RejectInput{
		TaskID:          taskID,
		Actor:           member.ID,
		ActorRole:       member.Role,
		ExpectedVersion: req.ExpectedVersion,
		Reason:          req.Reason,
	})
	if err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: task})
}

type ClientCompleteReq struct {
	ExpectedVersion int `json:"expected_version" binding:"min=0"`
}

// ClientComplete godoc
//
//	@Summary		Complete client action
//	@Description	Close a task that was submitted to the client
//	@Tags			task
//	@Accept			json
//	@Produce		json
//	@Param			task_id	path	string						true	"Task ID"	format(uuid)
//	@Param			payload	body	handler.ClientCompleteReq	true	"Complete payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Task}
//	@Router			/task/{task_id}/client-complete [post]
func (h *TaskHandler) ClientComplete(c *gin.Context) {
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}
	req := ClientCompleteReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	member, ok := currentMember(c)
	if !ok {
		return
	}

	task, err := h.svc.CompleteClientAction(c.Request.Context(), service.ClientActionInput{
		TaskID:          taskID,
		Actor:           member.ID,
		ActorRole:       member.Role,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: task})
}

// UploadDocument godoc
//
//	@Summary		Upload document
//	@Description	Attach a file to a task; the file is stored in S3
//	@Tags			task
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			task_id	path		string	true	"Task ID"	format(uuid)
//	@Param			file	formData	file	true	"Document file"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.Document}
//	@Router			/task/{task_id}/document [post]
func (h *TaskHandler) UploadDocument(c *gin.Context) {
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}
	member, ok := currentMember(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("file is required", err))
		return
	}

	meta, err := h.blob.UploadFormFile(c.Request.Context(), "task-documents", fh)
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.Err(http.StatusInternalServerError, "upload failed", err))
		return
	}

	doc, err := h.svc.AttachDocument(c.Request.Context(), service.AttachDocumentInput{
		TaskID:   taskID,
		Actor:    member.ID,
		Filename: fh.Filename,
		Meta: datatypes.JSONMap{
			"bucket": meta.Bucket,
			"key":    meta.Key,
			"etag":   meta.ETag,
			"sha256": meta.SHA256,
			"mime":   meta.MIME,
			"size_b": meta.SizeB,
		},
	})
	if err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: doc})
}
