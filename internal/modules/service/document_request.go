package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/auditflow-io/auditflow/internal/infra/blob"
	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/modules/repo"
	"github.com/auditflow-io/auditflow/internal/pkg/apperr"
	"github.com/auditflow-io/auditflow/internal/pkg/paging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// BlobStore is the slice of the blob layer this service needs.
// *blob.S3Deps satisfies it.
type BlobStore interface {
	UploadFormFile(ctx context.Context, keyPrefix string, fh *multipart.FileHeader) (*blob.UploadedMeta, error)
	PresignGet(ctx context.Context, key string, expire time.Duration) (string, error)
}

// DocumentRequestService drives the ad hoc client document lifecycle:
// pending -> uploaded -> completed. Both transitions are version-guarded.
type DocumentRequestService interface {
	Create(ctx context.Context, in CreateDocumentRequestInput) (*model.ProjectDocumentRequest, error)
	Get(ctx context.Context, requestID uuid.UUID) (*model.ProjectDocumentRequest, error)
	List(ctx context.Context, in ListDocumentRequestsInput) (*ListDocumentRequestsOutput, error)
	ClientUpload(ctx context.Context, in ClientUploadInput) (*model.ProjectDocumentRequest, error)
	Complete(ctx context.Context, in CompleteDocumentRequestInput) (*model.ProjectDocumentRequest, error)
	// DownloadURL returns a short-lived presigned link to the uploaded
	// document.
	DownloadURL(ctx context.Context, requestID uuid.UUID) (string, error)
}

type CreateDocumentRequestInput struct {
	ProjectID   uuid.UUID
	Actor       uuid.UUID
	Title       string
	Description string
}

type ListDocumentRequestsInput struct {
	ProjectID uuid.UUID
	Limit     int
	Cursor    string
	TimeDesc  bool
}

type ListDocumentRequestsOutput struct {
	Items      []*model.ProjectDocumentRequest `json:"items"`
	NextCursor string                          `json:"next_cursor,omitempty"`
	HasMore    bool                            `json:"has_more"`
}

type ClientUploadInput struct {
	RequestID       uuid.UUID
	Actor           uuid.UUID
	ExpectedVersion int
	File            *multipart.FileHeader
}

type CompleteDocumentRequestInput struct {
	RequestID       uuid.UUID
	Actor           uuid.UUID
	ExpectedVersion int
}

type documentRequestService struct {
	r             repo.DocumentRequestRepo
	projects      repo.ProjectRepo
	blob          BlobStore
	presignExpire time.Duration
	notify        Notifier
	log           *zap.Logger
}

func NewDocumentRequestService(r repo.DocumentRequestRepo, projects repo.ProjectRepo, b BlobStore, presignExpire time.Duration, notify Notifier, log *zap.Logger) DocumentRequestService {
	return &documentRequestService{r: r, projects: projects, blob: b, presignExpire: presignExpire, notify: notify, log: log}
}

func (s *documentRequestService) Create(ctx context.Context, in CreateDocumentRequestInput) (*model.ProjectDocumentRequest, error) {
	project, err := s.projects.Get(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}

	dr := &model.ProjectDocumentRequest{
		ProjectID:   project.ID,
		Title:       in.Title,
		Description: in.Description,
		Status:      model.DocumentRequestPending,
		ProjectName: project.Name,
		ClientName:  project.ClientName,
	}
	if err := s.r.Create(ctx, dr); err != nil {
		return nil, fmt.Errorf("create document request: %w", err)
	}

	s.logActivity(ctx, dr, in.Actor, "document_requested", datatypes.JSONMap{
		"title": in.Title,
	})
	s.notify.Dispatch(ctx, Event{
		ProjectID: project.ID,
		EventKind: EventActionRequired,
		Message:   fmt.Sprintf("document requested: %s", in.Title),
	})
	return dr, nil
}

func (s *documentRequestService) Get(ctx context.Context, requestID uuid.UUID) (*model.ProjectDocumentRequest, error) {
	return s.r.Get(ctx, requestID)
}

func (s *documentRequestService) List(ctx context.Context, in ListDocumentRequestsInput) (*ListDocumentRequestsOutput, error) {
	var afterT time.Time
	var afterID uuid.UUID
	var err error
	if in.Cursor != "" {
		afterT, afterID, err = paging.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, err
		}
	}

	items, err := s.r.ListWithCursor(ctx, in.ProjectID, afterT, afterID, in.Limit+1, in.TimeDesc)
	if err != nil {
		return nil, err
	}

	out := &ListDocumentRequestsOutput{Items: items}
	if len(items) > in.Limit {
		out.HasMore = true
		out.Items = items[:in.Limit]
		last := out.Items[len(out.Items)-1]
		out.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	}
	return out, nil
}

func (s *documentRequestService) ClientUpload(ctx context.Context, in ClientUploadInput) (*model.ProjectDocumentRequest, error) {
	dr, err := s.r.Get(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	if dr.Status == model.DocumentRequestCompleted {
		return nil, apperr.InvalidTransition("document request is already completed")
	}

	meta, err := s.blob.UploadFormFile(ctx, "document-requests", in.File)
	if err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}

	err = s.r.UpdateRequestGuarded(ctx, dr.ID, in.ExpectedVersion, in.Actor, map[string]any{
		"status": model.DocumentRequestUploaded,
		"document_meta": datatypes.JSONMap{
			"bucket":   meta.Bucket,
			"key":      meta.Key,
			"etag":     meta.ETag,
			"sha256":   meta.SHA256,
			"mime":     meta.MIME,
			"size_b":   meta.SizeB,
			"filename": in.File.Filename,
		},
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, dr, in.Actor, "document_uploaded", datatypes.JSONMap{
		"key":      meta.Key,
		"filename": in.File.Filename,
	})
	s.notify.Dispatch(ctx, Event{
		ProjectID: dr.ProjectID,
		EventKind: EventWorkerTaskUpdate,
		Message:   fmt.Sprintf("document uploaded for request %q", dr.Title),
	})
	return s.r.Get(ctx, dr.ID)
}

func (s *documentRequestService) Complete(ctx context.Context, in CompleteDocumentRequestInput) (*model.ProjectDocumentRequest, error) {
	dr, err := s.r.Get(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	if dr.Status != model.DocumentRequestUploaded {
		return nil, apperr.InvalidTransition("document request has no uploaded document to accept")
	}

	err = s.r.UpdateRequestGuarded(ctx, dr.ID, in.ExpectedVersion, in.Actor, map[string]any{
		"status": model.DocumentRequestCompleted,
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, dr, in.Actor, "document_request_completed", nil)
	return s.r.Get(ctx, dr.ID)
}

func (s *documentRequestService) DownloadURL(ctx context.Context, requestID uuid.UUID) (string, error) {
	dr, err := s.r.Get(ctx, requestID)
	if err != nil {
		return "", err
	}
	key, _ := dr.DocumentMeta["key"].(string)
	if dr.Status == model.DocumentRequestPending || key == "" {
		return "", apperr.InvalidTransition("document request has no uploaded document")
	}
	return s.blob.PresignGet(ctx, key, s.presignExpire)
}

func (s *documentRequestService) logActivity(ctx context.Context, dr *model.ProjectDocumentRequest, actor uuid.UUID, action string, detail datatypes.JSONMap) {
	if err := s.projects.CreateActivity(ctx, &model.ActivityLog{
		ProjectID: dr.ProjectID,
		Target:    model.DocRequestRef(dr.ID),
		Action:    action,
		ActorID:   actor,
		Detail:    detail,
	}); err != nil {
		s.log.Sugar().Warnw("activity log write failed", "action", action, "err", err)
	}
}
