package repo

import (
	"context"
	"errors"
	"time"

	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/pkg/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRequestRepo interface {
	Create(ctx context.Context, dr *model.ProjectDocumentRequest) error
	Get(ctx context.Context, requestID uuid.UUID) (*model.ProjectDocumentRequest, error)
	ListWithCursor(ctx context.Context, projectID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]*model.ProjectDocumentRequest, error)
	UpdateRequestGuarded(ctx context.Context, requestID uuid.UUID, expectedVersion int, actor uuid.UUID, changes map[string]any) error
}

type documentRequestRepo struct{ db *gorm.DB }

func NewDocumentRequestRepo(db *gorm.DB) DocumentRequestRepo {
	return &documentRequestRepo{db: db}
}

func (r *documentRequestRepo) Create(ctx context.Context, dr *model.ProjectDocumentRequest) error {
	return r.db.WithContext(ctx).Create(dr).Error
}

func (r *documentRequestRepo) Get(ctx context.Context, requestID uuid.UUID) (*model.ProjectDocumentRequest, error) {
	var dr model.ProjectDocumentRequest
	err := r.db.WithContext(ctx).Where("id = ?", requestID).First(&dr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("document request")
	}
	if err != nil {
		return nil, err
	}
	return &dr, nil
}

func (r *documentRequestRepo) ListWithCursor(ctx context.Context, projectID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]*model.ProjectDocumentRequest, error) {
	q := r.db.WithContext(ctx).Where("project_id = ?", projectID)

	if !afterCreatedAt.IsZero() && afterID != uuid.Nil {
		comparisonOp := ">"
		if timeDesc {
			comparisonOp = "<"
		}
		q = q.Where(
			"(created_at "+comparisonOp+" ?) OR (created_at = ? AND id "+comparisonOp+" ?)",
			afterCreatedAt, afterCreatedAt, afterID,
		)
	}

	orderBy := "created_at ASC, id ASC"
	if timeDesc {
		orderBy = "created_at DESC, id DESC"
	}

	var items []*model.ProjectDocumentRequest
	return items, q.Order(orderBy).Limit(limit).Find(&items).Error
}

func (r *documentRequestRepo) UpdateRequestGuarded(ctx context.Context, requestID uuid.UUID, expectedVersion int, actor uuid.UUID, changes map[string]any) error {
	return UpdateGuarded[model.ProjectDocumentRequest](ctx, r.db, requestID, expectedVersion, actor, changes)
}
