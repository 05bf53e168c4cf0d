package handler

import (
	"net/http"
	"strconv"

	"github.com/auditflow-io/auditflow/internal/modules/serializer"
	"github.com/auditflow-io/auditflow/internal/modules/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DocumentRequestHandler struct {
	svc service.DocumentRequestService
}

func NewDocumentRequestHandler(svc service.DocumentRequestService) *DocumentRequestHandler {
	return &DocumentRequestHandler{svc: svc}
}

type CreateDocumentRequestReq struct {
	ProjectID   string `json:"project_id" binding:"required" format:"uuid"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// CreateDocumentRequest godoc
//
//	@Summary	Create document request
//	@Tags		document-request
//	@Accept		json
//	@Produce	json
//	@Param		payload	body	handler.CreateDocumentRequestReq	true	"Create payload"
//	@Security	BearerAuth
//	@Success	201	{object}	serializer.Response{data=model.ProjectDocumentRequest}
//	@Router		/document-request [post]
func (h *DocumentRequestHandler) CreateDocumentRequest(c *gin.Context) {
	req := CreateDocumentRequestReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid project_id", err))
		return
	}
	member, ok := currentMember(c)
	if !ok {
		return
	}

	dr, err := h.svc.Create(c.Request.Context(), service.CreateDocumentRequestInput{
		ProjectID:   projectID,
		Actor:       member.ID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: dr})
}

type ListDocumentRequestsReq struct {
	ProjectID string `form:"project_id" binding:"required" format:"uuid"`
	Limit     int    `form:"limit,default=20" binding:"required,min=1,max=200"`
	Cursor    string `form:"cursor"`
	TimeDesc  bool   `form:"time_desc,default=false"`
}

// ListDocumentRequests godoc
//
//	@Summary	List document requests
//	@Tags		document-request
//	@Produce	json
//	@Param		project_id	query	string	true	"Project ID"	format(uuid)
//	@Param		limit		query	integer	false	"Limit, default 20, max 200"
//	@Param		cursor		query	string	false	"Cursor from the previous page"
//	@Param		time_desc	query	boolean	false	"Newest first"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=service.ListDocumentRequestsOutput}
//	@Router		/document-request [get]
func (h *DocumentRequestHandler) ListDocumentRequests(c *gin.Context) {
	req := ListDocumentRequestsReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid project_id", err))
		return
	}

	out, err := h.svc.List(c.Request.Context(), service.ListDocumentRequestsInput{
		ProjectID: projectID,
		Limit:     req.Limit,
		Cursor:    req.Cursor,
		TimeDesc:  req.TimeDesc,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

// UploadDocument godoc
//
//	@Summary		Upload requested document
//	@Description	Client uploads the asked-for document; moves the request to uploaded
//	@Tags			document-request
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			request_id			path		string	true	"Document request ID"	format(uuid)
//	@Param			expected_version	formData	integer	true	"Version last read by the caller"
//	@Param			file				formData	file	true	"Document file"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.ProjectDocumentRequest}
//	@Router			/document-request/{request_id}/upload [post]
func (h *DocumentRequestHandler) UploadDocument(c *gin.Context) {
	requestID, ok := parseIDParam(c, "request_id")
	if !ok {
		return
	}
	member, ok := currentMember(c)
	if !ok {
		return
	}

	expectedVersion, err := strconv.Atoi(c.PostForm("expected_version"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid expected_version", err))
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("file is required", err))
		return
	}

	dr, err := h.svc.ClientUpload(c.Request.Context(), service.ClientUploadInput{
		RequestID:       requestID,
		Actor:           member.ID,
		ExpectedVersion: expectedVersion,
		File:            fh,
	})
	if err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: dr})
}

// DownloadDocument godoc
//
//	@Summary		Download uploaded document
//	@Description	Returns a short-lived presigned URL for the document uploaded against the request
//	@Tags			document-request
//	@Produce		json
//	@Param			request_id	path	string	true	"Document request ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response
//	@Router			/document-request/{request_id}/download [get]
func (h *DocumentRequestHandler) DownloadDocument(c *gin.Context) {
	requestID, ok := parseIDParam(c, "request_id")
	if !ok {
		return
	}

	url, err := h.svc.DownloadURL(c.Request.Context(), requestID)
	if err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: gin.H{"url": url}})
}

type CompleteDocumentRequestReq struct {
	ExpectedVersion int `json:"expected_version" binding:"min=0"`
}

// CompleteDocumentRequest godoc
//
//	@Summary		Complete document request
//	@Description	Accept the uploaded document and close the request
//	@Tags			document-request
//	@Accept			json
//	@Produce		json
//	@Param			request_id	path	string								true	"Document request ID"	format(uuid)
//	@Param			payload		body	handler.CompleteDocumentRequestReq	true	"Complete payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.ProjectDocumentRequest}
//	@Router			/document-request/{request_id}/complete [post]
func (h *DocumentRequestHandler) CompleteDocumentRequest(c *gin.Context) {
	requestID, ok := parseIDParam(c, "request_id")
	if !ok {
		return
	}
	req := CompleteDocumentRequestReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	member, ok := currentMember(c)
	if !ok {
		return
	}

	dr, err := h.svc.Complete(c.Request.Context(), service.CompleteDocumentRequestInput{
		RequestID:       requestID,
		Actor:           member.ID,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		c.JSON(serializer.WorkflowErr(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: dr})
}
